// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slot provides typed storage cells of a builtin contract. Every access
// through a cell is charged to the context's gas function.
package slot

import (
	"math/big"

	"github.com/vechain/delegation/builtin/gascharger"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

type UseGasFunc func(op gascharger.Op, gas uint64)

type Context struct {
	address thor.Address
	state   *state.State
	charger UseGasFunc
}

func NewContext(address thor.Address, state *state.State, charger UseGasFunc) *Context {
	return &Context{
		address: address,
		state:   state,
		charger: charger,
	}
}

func (c *Context) Address() thor.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) UseGas(op gascharger.Op, gas uint64) {
	if c.charger != nil {
		c.charger(op, gas)
	}
}

// Balance returns the balance of the contract account.
func (c *Context) Balance() (*big.Int, error) {
	c.UseGas(gascharger.OpBalance, thor.GetBalanceGas)
	return c.state.GetBalance(c.address)
}

// raw reads a slot without charging gas.
func (c *Context) raw(pos thor.Bytes32) ([]byte, error) {
	return c.state.GetStorage(c.address, pos)
}

// load reads a slot, charging one sload per word.
func (c *Context) load(pos thor.Bytes32) ([]byte, error) {
	v, err := c.raw(pos)
	if err != nil {
		return nil, err
	}
	c.UseGas(gascharger.OpSload, toWordSize(len(v))*thor.SloadGas)
	return v, nil
}

// store writes a slot. Writing into an empty slot is charged as sstore set,
// otherwise as sstore reset.
func (c *Context) store(pos thor.Bytes32, val []byte) error {
	prev, err := c.raw(pos)
	if err != nil {
		return err
	}
	words := toWordSize(max(len(val), len(prev)))
	if len(prev) == 0 && len(val) > 0 {
		c.UseGas(gascharger.OpSstoreSet, words*thor.SstoreSetGas)
	} else {
		c.UseGas(gascharger.OpSstoreReset, words*thor.SstoreResetGas)
	}
	c.state.SetStorage(c.address, pos, val)
	return nil
}
