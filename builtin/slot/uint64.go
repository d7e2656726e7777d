// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/delegation/thor"
)

// Uint64 is a storage cell of a 64-bit counter or id.
type Uint64 struct {
	ctx *Context
	pos thor.Bytes32
}

func NewUint64(ctx *Context, pos thor.Bytes32) *Uint64 {
	return &Uint64{ctx: ctx, pos: pos}
}

func (u *Uint64) Get() (uint64, error) {
	raw, err := u.ctx.load(u.pos)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	var value uint64
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return 0, errors.Wrap(err, "decode uint64")
	}
	return value, nil
}

func (u *Uint64) Set(value uint64) error {
	var raw []byte
	if value != 0 {
		var err error
		if raw, err = rlp.EncodeToBytes(value); err != nil {
			return err
		}
	}
	return u.ctx.store(u.pos, raw)
}
