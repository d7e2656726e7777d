// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package checkpoint defines the persisted progress record of a global
// operation and its binary encoding.
//
// Every variant is a tag byte followed by its fields. Integers of arbitrary
// size are a 4-byte big-endian length followed by the big-endian magnitude, and
// cursor ids are 8 bytes big-endian. Nil integers encode as zero and a nil step
// as a sweep that has not started. In the top-level form, used for the storage
// slot, None is the empty byte string. In the nested form None is the tag 0.
package checkpoint

import (
	"math/big"
)

// Checkpoint tags.
const (
	TagNone                     byte = 0
	TagModifyTotalDelegationCap byte = 1
	TagChangeServiceFee         byte = 2
)

// Step tags.
const (
	TagComputeAllRewards             byte = 0
	TagSwapWaitingToActive           byte = 1
	TagSwapUnstakedToDeferredPayment byte = 2
	TagSwapActiveToDeferredPayment   byte = 3
)

// Checkpoint is a global operation in progress, or None.
type Checkpoint interface {
	Tag() byte
	encode(w *writer)
}

// Step is the current step of a delegation cap change.
type Step interface {
	Tag() byte
	encode(w *writer)
}

// ComputeAllRewardsData is the cursor of a sweep over all users.
type ComputeAllRewardsData struct {
	LastID            uint64
	SumUnclaimed      *big.Int
	RewardsCheckpoint *big.Int // historical rewards when the sweep started
}

// NewComputeAllRewardsData starts a sweep measured against rewardsCheckpoint.
func NewComputeAllRewardsData(rewardsCheckpoint *big.Int) ComputeAllRewardsData {
	return ComputeAllRewardsData{
		SumUnclaimed:      new(big.Int),
		RewardsCheckpoint: new(big.Int).Set(rewardsCheckpoint),
	}
}

func (d *ComputeAllRewardsData) encode(w *writer) {
	w.uint64(d.LastID)
	w.bigInt(d.SumUnclaimed)
	w.bigInt(d.RewardsCheckpoint)
}

func (d *ComputeAllRewardsData) decode(r *reader) (err error) {
	if d.LastID, err = r.uint64(); err != nil {
		return
	}
	if d.SumUnclaimed, err = r.bigInt(); err != nil {
		return
	}
	d.RewardsCheckpoint, err = r.bigInt()
	return
}

type (
	// None means no global operation is in progress.
	None struct{}

	// ModifyTotalDelegationCap changes the capacity of the pool.
	ModifyTotalDelegationCap struct {
		NewDelegationCap                *big.Int
		RemainingSwapWaitingToActive    *big.Int
		RemainingSwapActiveToDeferred   *big.Int
		RemainingSwapUnstakedToDeferred *big.Int
		Step                            Step
	}

	// ChangeServiceFee changes the owner's cut once all users are settled.
	ChangeServiceFee struct {
		NewServiceFee      *big.Int
		ComputeRewardsData ComputeAllRewardsData
	}
)

func (None) Tag() byte                      { return TagNone }
func (*ModifyTotalDelegationCap) Tag() byte { return TagModifyTotalDelegationCap }
func (*ChangeServiceFee) Tag() byte         { return TagChangeServiceFee }

func (None) encode(w *writer) {
	w.byte(TagNone)
}

func (c *ModifyTotalDelegationCap) encode(w *writer) {
	w.byte(TagModifyTotalDelegationCap)
	w.bigInt(c.NewDelegationCap)
	w.bigInt(c.RemainingSwapWaitingToActive)
	w.bigInt(c.RemainingSwapActiveToDeferred)
	w.bigInt(c.RemainingSwapUnstakedToDeferred)
	step := c.Step
	if step == nil {
		// zero value, like the nil integers
		step = &ComputeAllRewards{}
	}
	step.encode(w)
}

func (c *ChangeServiceFee) encode(w *writer) {
	w.byte(TagChangeServiceFee)
	w.bigInt(c.NewServiceFee)
	c.ComputeRewardsData.encode(w)
}

type (
	// ComputeAllRewards settles every user before the pools are swapped.
	ComputeAllRewards struct {
		ComputeAllRewardsData
	}
	SwapWaitingToActive           struct{}
	SwapUnstakedToDeferredPayment struct{}
	SwapActiveToDeferredPayment   struct{}
)

func (*ComputeAllRewards) Tag() byte            { return TagComputeAllRewards }
func (SwapWaitingToActive) Tag() byte           { return TagSwapWaitingToActive }
func (SwapUnstakedToDeferredPayment) Tag() byte { return TagSwapUnstakedToDeferredPayment }
func (SwapActiveToDeferredPayment) Tag() byte   { return TagSwapActiveToDeferredPayment }

func (s *ComputeAllRewards) encode(w *writer) {
	w.byte(TagComputeAllRewards)
	s.ComputeAllRewardsData.encode(w)
}

func (s SwapWaitingToActive) encode(w *writer)           { w.byte(s.Tag()) }
func (s SwapUnstakedToDeferredPayment) encode(w *writer) { w.byte(s.Tag()) }
func (s SwapActiveToDeferredPayment) encode(w *writer)   { w.byte(s.Tag()) }

// IsNone tells whether no operation is in progress. A nil checkpoint is None.
func IsNone(c Checkpoint) bool {
	return c == nil || c.Tag() == TagNone
}
