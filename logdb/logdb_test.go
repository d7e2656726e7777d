// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/delegation/thor"
	"github.com/vechain/delegation/xenv"
)

var (
	contract = thor.BytesToAddress([]byte("contract"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
)

func newReceipt(seq uint64, caller thor.Address, method string, value int64) *Receipt {
	return &Receipt{
		Seq:     seq,
		ID:      thor.Blake2b([]byte(method), big.NewInt(int64(seq)).Bytes()),
		Caller:  caller,
		Method:  method,
		Value:   big.NewInt(value),
		GasUsed: 21000 + seq,
	}
}

func stakedEvent(who thor.Address, amount int64) *xenv.Event {
	return &xenv.Event{Address: contract, Name: "Staked", Fields: []any{who, big.NewInt(amount)}}
}

func fill(t *testing.T, db *LogDB) {
	require.NoError(t, db.Write(newReceipt(1, alice, "stake", 100), []*xenv.Event{stakedEvent(alice, 100)}, nil))
	require.NoError(t, db.Write(newReceipt(2, bob, "stake", 50), []*xenv.Event{stakedEvent(bob, 50)}, nil))
	require.NoError(t, db.Write(newReceipt(3, alice, "claimReward", 0),
		[]*xenv.Event{{Address: contract, Name: "RewardClaimed", Fields: []any{alice, big.NewInt(7)}}},
		[]*xenv.Transfer{{Recipient: alice, Amount: big.NewInt(7), Memo: "reward"}},
	))
	require.NoError(t, db.Write(newReceipt(4, bob, "claimReward", 0), nil,
		[]*xenv.Transfer{{Recipient: bob, Amount: big.NewInt(3), Memo: "reward"}, {Recipient: alice, Amount: big.NewInt(1), Memo: "fee"}},
	))
}

func TestEmpty(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Zero(t, seq)

	receipts, err := db.FilterReceipts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, receipts)
	assert.NotEmpty(t, db.DriverVersion())
}

func TestReceipts(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	ctx := context.Background()
	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), seq)

	all, err := db.FilterReceipts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, newReceipt(1, alice, "stake", 100), all[0])

	tests := []struct {
		name   string
		filter *ReceiptFilter
		want   []uint64
	}{
		{"caller", &ReceiptFilter{Caller: &alice}, []uint64{1, 3}},
		{"method", &ReceiptFilter{Method: "claimReward"}, []uint64{3, 4}},
		{"caller and method", &ReceiptFilter{Caller: &bob, Method: "stake"}, []uint64{2}},
		{"range", &ReceiptFilter{Range: &Range{From: 2, To: 3}}, []uint64{2, 3}},
		{"open range", &ReceiptFilter{Range: &Range{From: 3}}, []uint64{3, 4}},
		{"desc", &ReceiptFilter{Order: DESC}, []uint64{4, 3, 2, 1}},
		{"limit", &ReceiptFilter{Order: DESC, Options: &Options{Offset: 1, Limit: 2}}, []uint64{3, 2}},
		{"no match", &ReceiptFilter{Method: "init"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FilterReceipts(ctx, tt.filter)
			require.NoError(t, err)
			var seqs []uint64
			for _, r := range got {
				seqs = append(seqs, r.Seq)
			}
			assert.Equal(t, tt.want, seqs)
		})
	}
}

func TestEvents(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	events, err := db.FilterEvents(context.Background(), &EventFilter{Name: "Staked", Order: DESC})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[0].Seq)
	assert.Equal(t, contract, events[0].Address)

	var fields struct {
		Who    thor.Address
		Amount *big.Int
	}
	require.NoError(t, events[0].DecodeFields(&fields))
	assert.Equal(t, bob, fields.Who)
	assert.Equal(t, big.NewInt(50), fields.Amount)

	events, err = db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestTransfers(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	transfers, err := db.FilterTransfers(context.Background(), &TransferFilter{Recipient: &alice})
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, &Transfer{Seq: 3, Index: 0, Recipient: alice, Amount: big.NewInt(7), Memo: "reward"}, transfers[0])
	assert.Equal(t, &Transfer{Seq: 4, Index: 1, Recipient: alice, Amount: big.NewInt(1), Memo: "fee"}, transfers[1])

	transfers, err = db.FilterTransfers(context.Background(), &TransferFilter{Range: &Range{From: 4, To: 4}, Order: DESC})
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, uint32(1), transfers[0].Index)
}

func TestRewrite(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()
	fill(t, db)

	require.NoError(t, db.Write(newReceipt(3, bob, "stake", 9), nil, nil))

	receipts, err := db.FilterReceipts(context.Background(), &ReceiptFilter{Range: &Range{From: 3, To: 3}})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "stake", receipts[0].Method)

	events, err := db.FilterEvents(context.Background(), &EventFilter{Name: "RewardClaimed"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnencodableEvent(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	err = db.Write(newReceipt(1, alice, "stake", 1), []*xenv.Event{{Name: "Bad", Fields: []any{make(chan int)}}}, nil)
	assert.Error(t, err)

	receipts, err := db.FilterReceipts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, receipts)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := New(path)
	require.NoError(t, err)
	fill(t, db)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	seq, err := db.NewestSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), seq)
}
