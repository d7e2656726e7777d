// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import "github.com/vechain/delegation/thor"

// Bytes is a storage cell of an opaque byte string. Empty clears the slot.
type Bytes struct {
	ctx *Context
	pos thor.Bytes32
}

func NewBytes(ctx *Context, pos thor.Bytes32) *Bytes {
	return &Bytes{ctx: ctx, pos: pos}
}

func (b *Bytes) Get() ([]byte, error) {
	return b.ctx.load(b.pos)
}

func (b *Bytes) Set(value []byte) error {
	return b.ctx.store(b.pos, value)
}
