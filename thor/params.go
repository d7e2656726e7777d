// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"github.com/ethereum/go-ethereum/params"
)

// Gas costs charged by the native contract for storage and balance access.
const (
	SloadGas       uint64 = params.SloadGasEIP150
	SstoreSetGas   uint64 = params.SstoreSetGas
	SstoreResetGas uint64 = params.SstoreResetGas
	GetBalanceGas  uint64 = params.BalanceGasEIP150
	TransferGas    uint64 = params.CallValueTransferGas

	// ClauseGas is the intrinsic cost of every call.
	ClauseGas uint64 = params.TxGas * 2 / 3

	// DefaultCallGasLimit is the budget of a call that does not specify one.
	DefaultCallGasLimit uint64 = 10 * 1000 * 1000
)
