// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/delegation/thor"
)

// BigInt is a storage cell of a non-negative arbitrary precision integer.
// Zero is stored as an empty slot.
type BigInt struct {
	ctx *Context
	pos thor.Bytes32
}

func NewBigInt(ctx *Context, pos thor.Bytes32) *BigInt {
	return &BigInt{ctx: ctx, pos: pos}
}

func decodeBigInt(raw []byte) (*big.Int, error) {
	value := new(big.Int)
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, value); err != nil {
		return nil, errors.Wrap(err, "decode big int")
	}
	return value, nil
}

func (b *BigInt) Get() (*big.Int, error) {
	raw, err := b.ctx.load(b.pos)
	if err != nil {
		return nil, err
	}
	return decodeBigInt(raw)
}

func (b *BigInt) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return errors.New("negative value")
	}
	var raw []byte
	if value.Sign() > 0 {
		var err error
		if raw, err = rlp.EncodeToBytes(value); err != nil {
			return err
		}
	}
	return b.ctx.store(b.pos, raw)
}

func (b *BigInt) Add(delta *big.Int) error {
	value, err := b.Get()
	if err != nil {
		return err
	}
	return b.Set(value.Add(value, delta))
}

// Sub subtracts delta, the stored value must not go below zero.
func (b *BigInt) Sub(delta *big.Int) error {
	value, err := b.Get()
	if err != nil {
		return err
	}
	if value.Cmp(delta) < 0 {
		return errors.New("value underflow")
	}
	return b.Set(value.Sub(value, delta))
}
