// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the native contracts to their addresses and exposes
// their method tables.
package builtin

import (
	"github.com/vechain/delegation/builtin/delegation"
	"github.com/vechain/delegation/builtin/gascharger"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var logger = log.WithContext("pkg", "builtin")

// Builtin contracts binding.
var (
	Delegation = &delegationContract{thor.BytesToAddress([]byte("Delegation"))}
)

type delegationContract struct {
	Address thor.Address
}

// Native returns the contract bound to state. Storage access is charged to
// charger when it is not nil.
func (d *delegationContract) Native(state *state.State, charger *gascharger.Charger) *delegation.Delegation {
	return delegation.New(d.Address, state, charger)
}
