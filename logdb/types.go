// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/delegation/thor"
	"github.com/vechain/delegation/xenv"
)

// Receipt is the record of a committed call.
type Receipt struct {
	Seq     uint64
	ID      thor.Bytes32
	Caller  thor.Address
	Method  string
	Value   *big.Int
	GasUsed uint64
}

// Event represents xenv.Event that can be stored in db.
type Event struct {
	Seq     uint64
	Index   uint32
	Address thor.Address
	Name    string
	Data    []byte // rlp encoded fields
}

// DecodeFields decodes the fields of the event into val, which must be a
// pointer to a struct or slice matching the emitted fields.
func (e *Event) DecodeFields(val any) error {
	return rlp.DecodeBytes(e.Data, val)
}

func newEvent(seq uint64, index uint32, ev *xenv.Event) (*Event, error) {
	data, err := rlp.EncodeToBytes(ev.Fields)
	if err != nil {
		return nil, err
	}
	return &Event{
		Seq:     seq,
		Index:   index,
		Address: ev.Address,
		Name:    ev.Name,
		Data:    data,
	}, nil
}

// Transfer represents xenv.Transfer that can be stored in db.
type Transfer struct {
	Seq       uint64
	Index     uint32
	Recipient thor.Address
	Amount    *big.Int
	Memo      string
}

func newTransfer(seq uint64, index uint32, tr *xenv.Transfer) *Transfer {
	return &Transfer{
		Seq:       seq,
		Index:     index,
		Recipient: tr.Recipient,
		Amount:    tr.Amount,
		Memo:      tr.Memo,
	}
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive range of call sequence numbers. A To below From
// leaves the range open ended.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type ReceiptFilter struct {
	Range   *Range
	Caller  *thor.Address
	Method  string
	Options *Options
	Order   Order // default asc
}

type EventFilter struct {
	Range   *Range
	Name    string
	Options *Options
	Order   Order
}

type TransferFilter struct {
	Range     *Range
	Recipient *thor.Address
	Options   *Options
	Order     Order
}
