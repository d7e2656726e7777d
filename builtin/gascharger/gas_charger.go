// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package gascharger charges native contract work to the call environment and
// keeps a breakdown of what the gas was spent on.
package gascharger

import (
	"fmt"

	"github.com/vechain/delegation/metrics"
	"github.com/vechain/delegation/thor"
)

// Env is the gas sink, normally *xenv.Environment.
type Env interface {
	UseGas(gas uint64)
	GasLeft() uint64
}

var metricGasCharged = metrics.LazyLoadCounterVec("gas_charged_count", []string{"kind"})

// Op is the kind of work a charge pays for.
type Op int

const (
	OpCustom Op = iota
	OpSload
	OpSstoreSet
	OpSstoreReset
	OpBalance
)

// unit gas of the metered ops
var opGas = map[Op]uint64{
	OpSload:       thor.SloadGas,
	OpSstoreSet:   thor.SstoreSetGas,
	OpSstoreReset: thor.SstoreResetGas,
	OpBalance:     thor.GetBalanceGas,
}

// Test hook - only used during testing
var testHook func(*Charger) = nil

type Charger struct {
	env       Env
	ops       map[Op]uint64
	customGas uint64
	totalGas  uint64
}

func New(env Env) *Charger {
	charger := &Charger{
		env: env,
		ops: make(map[Op]uint64),
	}

	if testHook != nil {
		testHook(charger)
	}

	return charger
}

// Charge consumes gas spent on op, which may abort the call. Metered ops are
// counted in units of their op gas, anything else is custom gas.
func (c *Charger) Charge(op Op, gas uint64) {
	c.totalGas += gas

	if unit, ok := opGas[op]; ok && gas%unit == 0 {
		c.ops[op] += gas / unit
	} else {
		c.customGas += gas
	}

	c.env.UseGas(gas)
}

// Ops returns how many units of op were charged.
func (c *Charger) Ops(op Op) uint64 {
	return c.ops[op]
}

// GasLeft reports the remaining budget of the call.
func (c *Charger) GasLeft() uint64 {
	return c.env.GasLeft()
}

func (c *Charger) TotalGas() uint64 {
	return c.totalGas
}

func (c *Charger) Breakdown() string {
	return fmt.Sprintf(
		"SLOAD: %d ops (%d gas) | SSTORE_SET: %d ops (%d gas) | SSTORE_RESET: %d ops (%d gas) | BALANCE: %d ops (%d gas) | CUSTOM: %d gas | TOTAL: %d gas",
		c.ops[OpSload], c.ops[OpSload]*thor.SloadGas,
		c.ops[OpSstoreSet], c.ops[OpSstoreSet]*thor.SstoreSetGas,
		c.ops[OpSstoreReset], c.ops[OpSstoreReset]*thor.SstoreResetGas,
		c.ops[OpBalance], c.ops[OpBalance]*thor.GetBalanceGas,
		c.customGas,
		c.totalGas,
	)
}

// Report publishes the breakdown to metrics.
func (c *Charger) Report() {
	for kind, gas := range map[string]uint64{
		"sload":        c.ops[OpSload] * thor.SloadGas,
		"sstore_set":   c.ops[OpSstoreSet] * thor.SstoreSetGas,
		"sstore_reset": c.ops[OpSstoreReset] * thor.SstoreResetGas,
		"balance":      c.ops[OpBalance] * thor.GetBalanceGas,
		"custom":       c.customGas,
	} {
		if gas > 0 {
			metricGasCharged().AddWithLabel(int64(gas), map[string]string{"kind": kind})
		}
	}
}

// Test helper functions

func SetTestHook(hook func(*Charger)) {
	testHook = hook
}

func ClearTestHook() {
	testHook = nil
}
