// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gascharger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/delegation/thor"
)

type fakeEnv struct {
	used, limit uint64
}

func (f *fakeEnv) UseGas(gas uint64) { f.used += gas }
func (f *fakeEnv) GasLeft() uint64   { return f.limit - f.used }

func TestCharge(t *testing.T) {
	env := &fakeEnv{limit: 1_000_000}
	c := New(env)

	c.Charge(OpSload, thor.SloadGas)
	c.Charge(OpSload, 3*thor.SloadGas)
	c.Charge(OpSstoreSet, thor.SstoreSetGas)
	c.Charge(OpSstoreReset, thor.SstoreResetGas)
	c.Charge(OpBalance, thor.GetBalanceGas)
	c.Charge(OpCustom, 7)
	c.Charge(OpSload, 0)

	assert.Equal(t, uint64(4), c.Ops(OpSload))
	assert.Equal(t, uint64(1), c.Ops(OpSstoreSet))
	assert.Equal(t, uint64(1), c.Ops(OpSstoreReset))
	assert.Equal(t, uint64(1), c.Ops(OpBalance))
	assert.Equal(t, uint64(7), c.customGas)

	total := 4*thor.SloadGas + thor.SstoreSetGas + thor.SstoreResetGas + thor.GetBalanceGas + 7
	assert.Equal(t, total, c.TotalGas())
	assert.Equal(t, total, env.used)
	assert.Equal(t, env.limit-total, c.GasLeft())
	assert.Contains(t, c.Breakdown(), "BALANCE: 1 ops")
	c.Report()
}

func TestChargeByOp(t *testing.T) {
	c := New(&fakeEnv{limit: 1_000_000})

	// two sload words cost as much as one balance read
	c.Charge(OpSload, 2*thor.SloadGas)
	assert.Equal(t, uint64(2), c.Ops(OpSload))
	assert.Zero(t, c.Ops(OpBalance))

	c.Charge(OpSstoreReset, 4*thor.SstoreResetGas)
	assert.Equal(t, uint64(4), c.Ops(OpSstoreReset))
	assert.Zero(t, c.Ops(OpSstoreSet))

	// a charge not a multiple of its op gas is custom
	c.Charge(OpBalance, 10)
	assert.Zero(t, c.Ops(OpBalance))
	assert.Contains(t, c.Breakdown(), "SLOAD: 2 ops (400 gas)")
	assert.Contains(t, c.Breakdown(), "CUSTOM: 10 gas")
}

func TestHook(t *testing.T) {
	var hooked *Charger
	SetTestHook(func(c *Charger) { hooked = c })
	defer ClearTestHook()

	c := New(&fakeEnv{})
	assert.Same(t, c, hooked)
}
