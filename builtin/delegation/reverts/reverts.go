// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a business rule failure. The call that raised it is reverted.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	InvalidAmount     = New("total stake cannot be 0")
	ExceedsCapacity   = New("payment exceeds maximum total stake")
	UnknownCaller     = New("unknown caller")
	UnknownSeller     = New("unknown seller")
	InsufficientStake = New("payment exceeds stake owned by user")
	ExceedsOffer      = New("payment exceeds stake offered")

	NotOwner                  = New("caller is not the owner")
	AlreadyInitialized        = New("contract already initialized")
	NotInitialized            = New("contract not initialized")
	InvalidServiceFee         = New("service fee exceeds 10000 basis points")
	CapBelowFilledStake       = New("delegation cap below filled stake")
	GlobalOperationInProgress = New("another global operation is in progress")
)
