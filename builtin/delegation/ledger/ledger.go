// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger keeps the reward accounting of the delegation pool.
//
// Rewards are never distributed eagerly. The pool only tracks its historical
// rewards, the total of funds ever received that are not stake:
//
//	historical_rewards = balance + sent_rewards - non_reward_balance
//
// and every user record remembers the historical rewards it was last settled
// against. Settling a user credits the stake weighted share of the growth since
// then.
package ledger

import (
	"math/big"

	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/thor"
)

var logger = log.WithContext("pkg", "ledger")

var (
	slotTotalStake       = slot.Fixed(1)
	slotUnfilledStake    = slot.Fixed(3)
	slotNonRewardBalance = slot.Fixed(7)
	slotSentRewards      = slot.Fixed(8)
	slotServiceFee       = slot.Fixed(11)
	slotOwnerRewards     = slot.Fixed(12)
)

const (
	prefixRewardsSnapshot byte = 4
	prefixUnclaimed       byte = 5
	prefixPersonalStake   byte = 6
)

const (
	// MaxServiceFee is 100% in basis points.
	MaxServiceFee uint64 = 10000

	memoClaim           = "delegation claim"
	memoServiceFeeClaim = "service fee claim"
)

// Sender moves funds out of the contract.
type Sender interface {
	Transfer(to thor.Address, amount *big.Int, memo string) error
}

// UserData is the reward record of a user.
type UserData struct {
	HistoricalRewardsWhenLastCollected *big.Int
	UnclaimedRewards                   *big.Int
	PersonalStake                      *big.Int
}

type Service struct {
	sctx     *slot.Context
	registry *registry.Service

	totalStake       *slot.BigInt
	unfilledStake    *slot.BigInt
	nonRewardBalance *slot.BigInt
	sentRewards      *slot.BigInt
	ownerRewards     *slot.BigInt
	serviceFee       *slot.Uint64
}

func New(sctx *slot.Context, registry *registry.Service) *Service {
	return &Service{
		sctx:             sctx,
		registry:         registry,
		totalStake:       slot.NewBigInt(sctx, slotTotalStake),
		unfilledStake:    slot.NewBigInt(sctx, slotUnfilledStake),
		nonRewardBalance: slot.NewBigInt(sctx, slotNonRewardBalance),
		sentRewards:      slot.NewBigInt(sctx, slotSentRewards),
		ownerRewards:     slot.NewBigInt(sctx, slotOwnerRewards),
		serviceFee:       slot.NewUint64(sctx, slotServiceFee),
	}
}

// Init sets the capacity of the pool, all of it unfilled.
func (s *Service) Init(totalStake *big.Int) error {
	if totalStake.Sign() == 0 {
		return reverts.InvalidAmount
	}
	if err := s.totalStake.Set(totalStake); err != nil {
		return err
	}
	return s.unfilledStake.Set(totalStake)
}

//
// Getters - no state change
//

func (s *Service) TotalStake() (*big.Int, error)       { return s.totalStake.Get() }
func (s *Service) UnfilledStake() (*big.Int, error)    { return s.unfilledStake.Get() }
func (s *Service) NonRewardBalance() (*big.Int, error) { return s.nonRewardBalance.Get() }
func (s *Service) SentRewards() (*big.Int, error)      { return s.sentRewards.Get() }
func (s *Service) OwnerRewards() (*big.Int, error)     { return s.ownerRewards.Get() }
func (s *Service) ServiceFee() (uint64, error)         { return s.serviceFee.Get() }

// FilledStake returns the part of the capacity bought by users.
func (s *Service) FilledStake() (*big.Int, error) {
	total, err := s.totalStake.Get()
	if err != nil {
		return nil, err
	}
	unfilled, err := s.unfilledStake.Get()
	if err != nil {
		return nil, err
	}
	return total.Sub(total, unfilled), nil
}

// HistoricalRewards returns the funds ever received by the pool that are not stake.
// It is recomputed from persisted values on every call.
func (s *Service) HistoricalRewards() (*big.Int, error) {
	balance, err := s.sctx.Balance()
	if err != nil {
		return nil, err
	}
	sent, err := s.sentRewards.Get()
	if err != nil {
		return nil, err
	}
	nonReward, err := s.nonRewardBalance.Get()
	if err != nil {
		return nil, err
	}
	balance.Add(balance, sent)
	return balance.Sub(balance, nonReward), nil
}

// StakeOf returns the stake of the address, 0 if unregistered.
func (s *Service) StakeOf(addr thor.Address) (*big.Int, error) {
	id, err := s.registry.Lookup(addr)
	if err != nil || id == 0 {
		return new(big.Int), err
	}
	return s.PersonalStake(id)
}

// ClaimableReward returns what the address could claim now, 0 if unregistered.
func (s *Service) ClaimableReward(addr thor.Address) (*big.Int, error) {
	id, err := s.registry.Lookup(addr)
	if err != nil || id == 0 {
		return new(big.Int), err
	}
	user, _, err := s.CatchUp(id)
	if err != nil {
		return nil, err
	}
	return user.UnclaimedRewards, nil
}

//
// User records
//

func (s *Service) personalStake(id uint64) *slot.BigInt {
	return slot.NewBigInt(s.sctx, slot.UserKey(prefixPersonalStake, id))
}

func (s *Service) PersonalStake(id uint64) (*big.Int, error) {
	return s.personalStake(id).Get()
}

func (s *Service) SetPersonalStake(id uint64, stake *big.Int) error {
	return s.personalStake(id).Set(stake)
}

func (s *Service) LoadUser(id uint64) (*UserData, error) {
	snapshot, err := slot.NewBigInt(s.sctx, slot.UserKey(prefixRewardsSnapshot, id)).Get()
	if err != nil {
		return nil, err
	}
	unclaimed, err := slot.NewBigInt(s.sctx, slot.UserKey(prefixUnclaimed, id)).Get()
	if err != nil {
		return nil, err
	}
	stake, err := s.personalStake(id).Get()
	if err != nil {
		return nil, err
	}
	return &UserData{
		HistoricalRewardsWhenLastCollected: snapshot,
		UnclaimedRewards:                   unclaimed,
		PersonalStake:                      stake,
	}, nil
}

func (s *Service) StoreUser(id uint64, user *UserData) error {
	if err := slot.NewBigInt(s.sctx, slot.UserKey(prefixRewardsSnapshot, id)).Set(user.HistoricalRewardsWhenLastCollected); err != nil {
		return err
	}
	if err := slot.NewBigInt(s.sctx, slot.UserKey(prefixUnclaimed, id)).Set(user.UnclaimedRewards); err != nil {
		return err
	}
	return s.personalStake(id).Set(user.PersonalStake)
}

//
// Catch up
//

// CatchUp settles the record of user id against the current historical rewards.
// Nothing is persisted; the returned fee is the owner's cut of the settled share.
func (s *Service) CatchUp(id uint64) (*UserData, *big.Int, error) {
	hist, err := s.HistoricalRewards()
	if err != nil {
		return nil, nil, err
	}
	return s.CatchUpTo(id, hist)
}

// CatchUpTo settles the record of user id against target. A record already at or
// beyond target is returned unchanged.
func (s *Service) CatchUpTo(id uint64, target *big.Int) (*UserData, *big.Int, error) {
	user, err := s.LoadUser(id)
	if err != nil {
		return nil, nil, err
	}
	fee := new(big.Int)
	if user.HistoricalRewardsWhenLastCollected.Cmp(target) >= 0 {
		return user, fee, nil // nothing happened since the last catch up
	}
	if user.PersonalStake.Sign() == 0 {
		// no stake, no reward; later stake must not earn what accrued before it
		user.HistoricalRewardsWhenLastCollected = new(big.Int).Set(target)
		return user, fee, nil
	}

	total, err := s.totalStake.Get()
	if err != nil {
		return nil, nil, err
	}
	if total.Sign() == 0 {
		return user, fee, nil
	}
	feeRate, err := s.serviceFee.Get()
	if err != nil {
		return nil, nil, err
	}

	// (target - snapshot) * stake / total, the remainder stays with the pool
	share := new(big.Int).Sub(target, user.HistoricalRewardsWhenLastCollected)
	share.Mul(share, user.PersonalStake)
	share.Quo(share, total)

	if feeRate > 0 {
		fee.Mul(share, new(big.Int).SetUint64(feeRate))
		fee.Quo(fee, new(big.Int).SetUint64(MaxServiceFee))
		share.Sub(share, fee)
	}

	user.HistoricalRewardsWhenLastCollected = new(big.Int).Set(target)
	user.UnclaimedRewards = new(big.Int).Add(user.UnclaimedRewards, share)
	return user, fee, nil
}

// Settle persists a caught up record along with the owner's fee.
func (s *Service) Settle(id uint64, user *UserData, fee *big.Int) error {
	if fee != nil && fee.Sign() > 0 {
		if err := s.ownerRewards.Add(fee); err != nil {
			return err
		}
	}
	return s.StoreUser(id, user)
}

//
// Operations
//

// Stake buys payment worth of capacity for the caller. The payment is expected
// to be already credited to the contract balance.
func (s *Service) Stake(caller thor.Address, payment *big.Int) error {
	if payment.Sign() == 0 {
		return nil
	}

	unfilled, err := s.unfilledStake.Get()
	if err != nil {
		return err
	}
	if payment.Cmp(unfilled) > 0 {
		return reverts.ExceedsCapacity
	}
	if err := s.unfilledStake.Set(unfilled.Sub(unfilled, payment)); err != nil {
		return err
	}

	// keeps the stake apart from rewards
	if err := s.nonRewardBalance.Add(payment); err != nil {
		return err
	}

	id, created, err := s.registry.ResolveOrCreate(caller)
	if err != nil {
		return err
	}

	// settle before crediting, so the new stake earns nothing of the past
	user, fee, err := s.CatchUp(id)
	if err != nil {
		return err
	}
	user.PersonalStake.Add(user.PersonalStake, payment)
	if err := s.Settle(id, user, fee); err != nil {
		return err
	}

	logger.Debug("staked", "user", caller, "id", id, "new", created, "payment", payment)
	return nil
}

// ClaimReward sends the caller all its unclaimed rewards and returns the amount sent.
// The record is persisted even when there is nothing to send.
func (s *Service) ClaimReward(caller thor.Address, sender Sender) (*big.Int, error) {
	id, err := s.registry.Lookup(caller)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, reverts.UnknownCaller
	}

	user, fee, err := s.CatchUp(id)
	if err != nil {
		return nil, err
	}

	amount := user.UnclaimedRewards
	if amount.Sign() > 0 {
		if err := sender.Transfer(caller, amount, memoClaim); err != nil {
			return nil, err
		}
		if err := s.sentRewards.Add(amount); err != nil {
			return nil, err
		}
		user.UnclaimedRewards = new(big.Int)
	}

	if err := s.Settle(id, user, fee); err != nil {
		return nil, err
	}
	logger.Debug("reward claimed", "user", caller, "id", id, "amount", amount)
	return amount, nil
}

// ClaimServiceFee sends the accumulated owner's cut to owner.
func (s *Service) ClaimServiceFee(owner thor.Address, sender Sender) (*big.Int, error) {
	amount, err := s.ownerRewards.Get()
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := sender.Transfer(owner, amount, memoServiceFeeClaim); err != nil {
		return nil, err
	}
	if err := s.sentRewards.Add(amount); err != nil {
		return nil, err
	}
	if err := s.ownerRewards.Set(new(big.Int)); err != nil {
		return nil, err
	}
	return amount, nil
}

//
// Global operation hooks
//

// SetServiceFee changes the owner's cut of future settlements.
func (s *Service) SetServiceFee(fee uint64) error {
	if fee > MaxServiceFee {
		return reverts.InvalidServiceFee
	}
	return s.serviceFee.Set(fee)
}

// OpenCapacity grows the pool by amount of unfilled capacity.
func (s *Service) OpenCapacity(amount *big.Int) error {
	if err := s.totalStake.Add(amount); err != nil {
		return err
	}
	return s.unfilledStake.Add(amount)
}

// CloseCapacity shrinks the pool by amount of unfilled capacity.
func (s *Service) CloseCapacity(amount *big.Int) error {
	unfilled, err := s.unfilledStake.Get()
	if err != nil {
		return err
	}
	if amount.Cmp(unfilled) > 0 {
		return reverts.CapBelowFilledStake
	}
	if err := s.unfilledStake.Set(unfilled.Sub(unfilled, amount)); err != nil {
		return err
	}
	return s.totalStake.Sub(amount)
}
