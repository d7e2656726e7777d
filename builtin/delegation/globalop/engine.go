// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package globalop drives the owner's global operations over the pool. An
// operation may need more work than fits in one call, so its progress lives in
// a persisted checkpoint and every call advances it as far as the gas allows.
package globalop

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/delegation/builtin/delegation/checkpoint"
	"github.com/vechain/delegation/builtin/delegation/ledger"
	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/metrics"
)

var logger = log.WithContext("pkg", "globalop")

var (
	slotCheckpoint         = slot.Fixed(13)
	slotLastSweepUnclaimed = slot.Fixed(14)

	metricUnits      = metrics.LazyLoadCounterVec("globalop_unit_count", []string{"unit"})
	metricSweepUsers = metrics.LazyLoadHistogram("globalop_sweep_users", metrics.BucketUsers)
)

const (
	UnitGasName = "globalop-unit-gas"
	SaveGasName = "globalop-save-gas"

	// DefaultUnitGas covers settling one user: three record writes plus the owner's cut.
	DefaultUnitGas uint64 = 100_000
	// DefaultSaveGas covers writing a checkpoint whose amounts fit in 128 bits
	// into an empty slot. Larger amounts need an override.
	DefaultSaveGas uint64 = 100_000
)

// Status is the outcome of a call driving a global operation.
type Status uint8

const (
	Done                  Status = 0
	StoppedBeforeOutOfGas Status = 1
)

func (s Status) String() string {
	switch s {
	case Done:
		return "done"
	case StoppedBeforeOutOfGas:
		return "stopped before out of gas"
	default:
		return "unknown"
	}
}

// Budget reports the gas left to the running call.
type Budget interface {
	GasLeft() uint64
}

type Engine struct {
	ledger   *ledger.Service
	registry *registry.Service
	budget   Budget

	checkpoint         *slot.Bytes
	lastSweepUnclaimed *slot.BigInt

	unitGas *slot.ConfigVariable
	saveGas *slot.ConfigVariable
}

func New(sctx *slot.Context, registry *registry.Service, ledger *ledger.Service, budget Budget) *Engine {
	e := &Engine{
		ledger:             ledger,
		registry:           registry,
		budget:             budget,
		checkpoint:         slot.NewBytes(sctx, slotCheckpoint),
		lastSweepUnclaimed: slot.NewBigInt(sctx, slotLastSweepUnclaimed),
		unitGas:            slot.NewConfigVariable(UnitGasName, DefaultUnitGas),
		saveGas:            slot.NewConfigVariable(SaveGasName, DefaultSaveGas),
	}
	e.unitGas.Override(sctx)
	e.saveGas.Override(sctx)
	return e
}

// Load returns the persisted checkpoint, None when idle.
func (e *Engine) Load() (checkpoint.Checkpoint, error) {
	raw, err := e.checkpoint.Get()
	if err != nil {
		return nil, err
	}
	c, err := checkpoint.Decode(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode global operation checkpoint")
	}
	return c, nil
}

func (e *Engine) save(c checkpoint.Checkpoint) error {
	return e.checkpoint.Set(checkpoint.Encode(c))
}

// LastSweepUnclaimed returns the unclaimed rewards summed by the last completed sweep.
func (e *Engine) LastSweepUnclaimed() (*big.Int, error) {
	return e.lastSweepUnclaimed.Get()
}

func (e *Engine) newSweep() (checkpoint.ComputeAllRewardsData, error) {
	hist, err := e.ledger.HistoricalRewards()
	if err != nil {
		return checkpoint.ComputeAllRewardsData{}, err
	}
	return checkpoint.NewComputeAllRewardsData(hist), nil
}

// NewModifyTotalDelegationCap builds a fresh operation moving the pool capacity
// to newCap. Only unfilled capacity can be withdrawn.
func (e *Engine) NewModifyTotalDelegationCap(newCap *big.Int) (*checkpoint.ModifyTotalDelegationCap, error) {
	if newCap.Sign() <= 0 {
		return nil, reverts.InvalidAmount
	}
	total, err := e.ledger.TotalStake()
	if err != nil {
		return nil, err
	}
	filled, err := e.ledger.FilledStake()
	if err != nil {
		return nil, err
	}
	if newCap.Cmp(filled) < 0 {
		return nil, reverts.CapBelowFilledStake
	}
	sweep, err := e.newSweep()
	if err != nil {
		return nil, err
	}

	c := &checkpoint.ModifyTotalDelegationCap{
		NewDelegationCap:                new(big.Int).Set(newCap),
		RemainingSwapWaitingToActive:    new(big.Int),
		RemainingSwapActiveToDeferred:   new(big.Int),
		RemainingSwapUnstakedToDeferred: new(big.Int),
		Step:                            &checkpoint.ComputeAllRewards{ComputeAllRewardsData: sweep},
	}
	switch diff := new(big.Int).Sub(newCap, total); diff.Sign() {
	case 1:
		c.RemainingSwapWaitingToActive = diff
	case -1:
		c.RemainingSwapUnstakedToDeferred = diff.Neg(diff)
	}
	return c, nil
}

// NewChangeServiceFee builds a fresh operation settling everyone at the current
// fee before switching to fee.
func (e *Engine) NewChangeServiceFee(fee uint64) (*checkpoint.ChangeServiceFee, error) {
	if fee > ledger.MaxServiceFee {
		return nil, reverts.InvalidServiceFee
	}
	sweep, err := e.newSweep()
	if err != nil {
		return nil, err
	}
	return &checkpoint.ChangeServiceFee{
		NewServiceFee:      new(big.Int).SetUint64(fee),
		ComputeRewardsData: sweep,
	}, nil
}

func (e *Engine) affordable() bool {
	return e.budget.GasLeft() >= e.unitGas.Get()+e.saveGas.Get()
}

// Run advances c one unit at a time while the budget affords a unit plus the
// final save, then persists where it got to. Reaching None clears the slot.
func (e *Engine) Run(c checkpoint.Checkpoint) (Status, error) {
	units := 0
	for !checkpoint.IsNone(c) {
		if !e.affordable() {
			if err := e.save(c); err != nil {
				return 0, err
			}
			logger.Info("global operation suspended", "units", units, "checkpoint", describe(c))
			return StoppedBeforeOutOfGas, nil
		}

		next, unit, err := e.step(c)
		if err != nil {
			return 0, err
		}
		metricUnits().AddWithLabel(1, map[string]string{"unit": unit})
		c = next
		units++
	}

	if err := e.save(checkpoint.None{}); err != nil {
		return 0, err
	}
	logger.Info("global operation done", "units", units)
	return Done, nil
}

// step performs one unit of work and returns the next checkpoint.
func (e *Engine) step(c checkpoint.Checkpoint) (checkpoint.Checkpoint, string, error) {
	switch c := c.(type) {
	case *checkpoint.ModifyTotalDelegationCap:
		return e.stepModifyCap(c)
	case *checkpoint.ChangeServiceFee:
		done, err := e.sweepOne(&c.ComputeRewardsData)
		if err != nil {
			return nil, "", err
		}
		if !done {
			return c, "sweep", nil
		}
		if err := e.ledger.SetServiceFee(c.NewServiceFee.Uint64()); err != nil {
			return nil, "", err
		}
		logger.Info("service fee changed", "fee", c.NewServiceFee)
		return checkpoint.None{}, "fee", nil
	default:
		return nil, "", errors.Errorf("unexpected checkpoint tag %d", c.Tag())
	}
}

func (e *Engine) stepModifyCap(c *checkpoint.ModifyTotalDelegationCap) (checkpoint.Checkpoint, string, error) {
	switch step := c.Step.(type) {
	case *checkpoint.ComputeAllRewards:
		done, err := e.sweepOne(&step.ComputeAllRewardsData)
		if err != nil {
			return nil, "", err
		}
		if done {
			c.Step = checkpoint.SwapWaitingToActive{}
		}
		return c, "sweep", nil
	case checkpoint.SwapWaitingToActive:
		if err := e.ledger.OpenCapacity(c.RemainingSwapWaitingToActive); err != nil {
			return nil, "", err
		}
		c.RemainingSwapWaitingToActive = new(big.Int)
		c.Step = checkpoint.SwapUnstakedToDeferredPayment{}
		return c, "swap", nil
	case checkpoint.SwapUnstakedToDeferredPayment:
		// stakes made while the operation was suspended may have filled part
		// of the capacity to withdraw, that part is carried to the next step
		unfilled, err := e.ledger.UnfilledStake()
		if err != nil {
			return nil, "", err
		}
		amount := c.RemainingSwapUnstakedToDeferred
		if amount.Cmp(unfilled) > 0 {
			amount = unfilled
		}
		if err := e.ledger.CloseCapacity(amount); err != nil {
			return nil, "", err
		}
		c.RemainingSwapActiveToDeferred = new(big.Int).Add(
			c.RemainingSwapActiveToDeferred,
			new(big.Int).Sub(c.RemainingSwapUnstakedToDeferred, amount),
		)
		c.RemainingSwapUnstakedToDeferred = new(big.Int)
		c.Step = checkpoint.SwapActiveToDeferredPayment{}
		return c, "swap", nil
	case checkpoint.SwapActiveToDeferredPayment:
		// filled stake is never withdrawn
		if c.RemainingSwapActiveToDeferred.Sign() > 0 {
			logger.Warn("capacity left above the new cap", "cap", c.NewDelegationCap, "excess", c.RemainingSwapActiveToDeferred)
		}
		c.RemainingSwapActiveToDeferred = new(big.Int)
		logger.Info("delegation cap changed", "cap", c.NewDelegationCap)
		return checkpoint.None{}, "swap", nil
	default:
		return nil, "", errors.Errorf("unexpected step tag %d", c.Step.Tag())
	}
}

// sweepOne settles the user after the cursor against the captured rewards
// checkpoint and folds its unclaimed rewards into the sum. It reports whether
// every user has been processed.
func (e *Engine) sweepOne(data *checkpoint.ComputeAllRewardsData) (bool, error) {
	nrUsers, err := e.registry.Count()
	if err != nil {
		return false, err
	}
	if data.LastID >= nrUsers {
		if err := e.lastSweepUnclaimed.Set(data.SumUnclaimed); err != nil {
			return false, err
		}
		logger.Info("sweep complete", "users", nrUsers, "unclaimed", data.SumUnclaimed)
		metricSweepUsers().Observe(int64(nrUsers))
		return true, nil
	}

	id := data.LastID + 1
	user, fee, err := e.ledger.CatchUpTo(id, data.RewardsCheckpoint)
	if err != nil {
		return false, err
	}
	if err := e.ledger.Settle(id, user, fee); err != nil {
		return false, err
	}

	data.SumUnclaimed = new(big.Int).Add(data.SumUnclaimed, user.UnclaimedRewards)
	data.LastID = id
	logger.Debug("user swept", "id", id, "unclaimed", user.UnclaimedRewards)
	return false, nil
}

func describe(c checkpoint.Checkpoint) any {
	switch c := c.(type) {
	case *checkpoint.ModifyTotalDelegationCap:
		if s, ok := c.Step.(*checkpoint.ComputeAllRewards); ok {
			return []any{"modify cap", "sweep", s.LastID}
		}
		return []any{"modify cap", "step", c.Step.Tag()}
	case *checkpoint.ChangeServiceFee:
		return []any{"change fee", "sweep", c.ComputeRewardsData.LastID}
	default:
		return c.Tag()
	}
}
