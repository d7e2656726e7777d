// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package delegation implements the native delegation pool contract: users buy
// a share of the pool's stake capacity, collect their share of the rewards
// paid to the pool and may resell stake to each other. The owner changes the
// pool capacity and service fee through resumable global operations.
package delegation

import (
	"math"
	"math/big"

	"github.com/vechain/delegation/builtin/delegation/checkpoint"
	"github.com/vechain/delegation/builtin/delegation/globalop"
	"github.com/vechain/delegation/builtin/delegation/ledger"
	"github.com/vechain/delegation/builtin/delegation/market"
	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/gascharger"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var (
	logger = log.WithContext("pkg", "delegation")

	slotOwner = slot.Fixed(10)
)

type unlimited struct{}

func (unlimited) GasLeft() uint64 { return math.MaxUint64 }

// Delegation implements the native methods of the delegation contract.
type Delegation struct {
	address thor.Address
	owner   *slot.Bytes

	registry *registry.Service
	ledger   *ledger.Service
	market   *market.Service
	engine   *globalop.Engine
}

// New binds the contract at addr. A nil charger leaves the calls unmetered and
// lets global operations run to completion.
func New(addr thor.Address, state *state.State, charger *gascharger.Charger) *Delegation {
	var (
		useGas slot.UseGasFunc
		budget globalop.Budget = unlimited{}
	)
	if charger != nil {
		useGas = charger.Charge
		budget = charger
	}
	sctx := slot.NewContext(addr, state, useGas)

	reg := registry.New(sctx)
	led := ledger.New(sctx, reg)
	return &Delegation{
		address:  addr,
		owner:    slot.NewBytes(sctx, slotOwner),
		registry: reg,
		ledger:   led,
		market:   market.New(sctx, reg, led),
		engine:   globalop.New(sctx, reg, led, budget),
	}
}

func (d *Delegation) Address() thor.Address {
	return d.address
}

//
// Getters - no state change
//

// Owner returns the address that initialised the contract, zero before Init.
func (d *Delegation) Owner() (thor.Address, error) {
	raw, err := d.owner.Get()
	if err != nil {
		return thor.Address{}, err
	}
	return thor.BytesToAddress(raw), nil
}

func (d *Delegation) NrUsers() (uint64, error)                            { return d.registry.Count() }
func (d *Delegation) StakeOf(addr thor.Address) (*big.Int, error)         { return d.ledger.StakeOf(addr) }
func (d *Delegation) HistoricalRewards() (*big.Int, error)                { return d.ledger.HistoricalRewards() }
func (d *Delegation) ClaimableReward(addr thor.Address) (*big.Int, error) { return d.ledger.ClaimableReward(addr) }
func (d *Delegation) StakeForSale(addr thor.Address) (*big.Int, error)    { return d.market.StakeForSale(addr) }
func (d *Delegation) TotalStake() (*big.Int, error)                       { return d.ledger.TotalStake() }
func (d *Delegation) UnfilledStake() (*big.Int, error)                    { return d.ledger.UnfilledStake() }
func (d *Delegation) ServiceFee() (uint64, error)                         { return d.ledger.ServiceFee() }
func (d *Delegation) OwnerRewards() (*big.Int, error)                     { return d.ledger.OwnerRewards() }
func (d *Delegation) LastSweepUnclaimed() (*big.Int, error)               { return d.engine.LastSweepUnclaimed() }

// GlobalOperationCheckpoint returns the suspended global operation, None when idle.
func (d *Delegation) GlobalOperationCheckpoint() (checkpoint.Checkpoint, error) {
	return d.engine.Load()
}

//
// Setters - state change
//

func (d *Delegation) initialised() (bool, error) {
	raw, err := d.owner.Get()
	return len(raw) > 0, err
}

func (d *Delegation) requireInitialised() error {
	ok, err := d.initialised()
	if err != nil {
		return err
	}
	if !ok {
		return reverts.NotInitialized
	}
	return nil
}

func (d *Delegation) requireOwner(caller thor.Address) error {
	if err := d.requireInitialised(); err != nil {
		return err
	}
	owner, err := d.Owner()
	if err != nil {
		return err
	}
	if owner != caller {
		return reverts.NotOwner
	}
	return nil
}

// Init sets the pool capacity and makes caller the owner. It can run only once.
func (d *Delegation) Init(caller thor.Address, totalStake *big.Int) error {
	ok, err := d.initialised()
	if err != nil {
		return err
	}
	if ok {
		return reverts.AlreadyInitialized
	}
	if err := d.ledger.Init(totalStake); err != nil {
		return err
	}
	if err := d.owner.Set(caller.Bytes()); err != nil {
		return err
	}
	logger.Info("contract initialised", "owner", caller, "capacity", totalStake)
	return nil
}

// Stake buys payment worth of unfilled capacity for caller.
func (d *Delegation) Stake(caller thor.Address, payment *big.Int) error {
	if err := d.requireInitialised(); err != nil {
		return err
	}
	return d.ledger.Stake(caller, payment)
}

func (d *Delegation) ClaimReward(caller thor.Address, sender ledger.Sender) (*big.Int, error) {
	return d.ledger.ClaimReward(caller, sender)
}

func (d *Delegation) OfferStakeForSale(caller thor.Address, amount *big.Int) error {
	return d.market.Offer(caller, amount)
}

func (d *Delegation) PurchaseStake(buyer, seller thor.Address, payment *big.Int, sender ledger.Sender) error {
	if err := d.requireInitialised(); err != nil {
		return err
	}
	return d.market.Purchase(buyer, seller, payment, sender)
}

// ClaimServiceFee sends the owner's accumulated cut to the owner.
func (d *Delegation) ClaimServiceFee(caller thor.Address, sender ledger.Sender) (*big.Int, error) {
	if err := d.requireOwner(caller); err != nil {
		return nil, err
	}
	return d.ledger.ClaimServiceFee(caller, sender)
}

//
// Global operations
//

// ModifyTotalDelegationCap starts moving the pool capacity to newCap, or resumes
// the move already in progress, in which case newCap is ignored.
func (d *Delegation) ModifyTotalDelegationCap(caller thor.Address, newCap *big.Int) (globalop.Status, error) {
	if err := d.requireOwner(caller); err != nil {
		return 0, err
	}
	current, err := d.engine.Load()
	if err != nil {
		return 0, err
	}

	switch c := current.(type) {
	case checkpoint.None:
		if current, err = d.engine.NewModifyTotalDelegationCap(newCap); err != nil {
			return 0, err
		}
		logger.Info("delegation cap change started", "cap", newCap)
	case *checkpoint.ModifyTotalDelegationCap:
		if c.NewDelegationCap.Cmp(newCap) != 0 {
			logger.Debug("resuming cap change", "cap", c.NewDelegationCap, "ignored", newCap)
		}
	default:
		return 0, reverts.GlobalOperationInProgress
	}
	return d.engine.Run(current)
}

// SetServiceFee starts changing the service fee, or resumes the change already
// in progress, in which case fee is ignored.
func (d *Delegation) SetServiceFee(caller thor.Address, fee uint64) (globalop.Status, error) {
	if err := d.requireOwner(caller); err != nil {
		return 0, err
	}
	current, err := d.engine.Load()
	if err != nil {
		return 0, err
	}

	switch current.(type) {
	case checkpoint.None:
		if current, err = d.engine.NewChangeServiceFee(fee); err != nil {
			return 0, err
		}
		logger.Info("service fee change started", "fee", fee)
	case *checkpoint.ChangeServiceFee:
	default:
		return 0, reverts.GlobalOperationInProgress
	}
	return d.engine.Run(current)
}

// ContinueGlobalOperation resumes whatever operation is suspended.
func (d *Delegation) ContinueGlobalOperation(caller thor.Address) (globalop.Status, error) {
	if err := d.requireOwner(caller); err != nil {
		return 0, err
	}
	current, err := d.engine.Load()
	if err != nil {
		return 0, err
	}
	if checkpoint.IsNone(current) {
		return globalop.Done, nil
	}
	return d.engine.Run(current)
}
