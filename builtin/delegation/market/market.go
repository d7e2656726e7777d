// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package market lets users resell stake to each other, one staked unit for
// one unit of payment.
package market

import (
	"math/big"

	"github.com/vechain/delegation/builtin/delegation/ledger"
	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/thor"
)

var logger = log.WithContext("pkg", "market")

const (
	prefixStakeForSale byte = 9

	memoPayment = "payment for stake"
)

type Service struct {
	sctx     *slot.Context
	registry *registry.Service
	ledger   *ledger.Service
}

func New(sctx *slot.Context, registry *registry.Service, ledger *ledger.Service) *Service {
	return &Service{
		sctx:     sctx,
		registry: registry,
		ledger:   ledger,
	}
}

func (s *Service) offer(id uint64) *slot.BigInt {
	return slot.NewBigInt(s.sctx, slot.UserKey(prefixStakeForSale, id))
}

// Offer lists amount of the caller's stake for sale, replacing any previous offer.
// The offer is not kept in line with later changes of the stake.
func (s *Service) Offer(caller thor.Address, amount *big.Int) error {
	id, err := s.registry.Lookup(caller)
	if err != nil {
		return err
	}
	if id == 0 {
		return reverts.UnknownCaller
	}

	stake, err := s.ledger.PersonalStake(id)
	if err != nil {
		return err
	}
	if amount.Cmp(stake) > 0 {
		return reverts.InsufficientStake
	}
	return s.offer(id).Set(amount)
}

// StakeForSale returns the amount the address offers, 0 if unregistered.
func (s *Service) StakeForSale(addr thor.Address) (*big.Int, error) {
	id, err := s.registry.Lookup(addr)
	if err != nil || id == 0 {
		return new(big.Int), err
	}
	return s.offer(id).Get()
}

// Purchase moves payment worth of stake from seller to buyer and forwards the
// payment to seller. The payment is expected to be already credited to the
// contract balance.
//
// The buyer's stake is checked against and decremented by the payment, rather
// than credited. Existing deployments behave this way and it is kept as is.
func (s *Service) Purchase(buyer, seller thor.Address, payment *big.Int, sender ledger.Sender) error {
	sellerID, err := s.registry.Lookup(seller)
	if err != nil {
		return err
	}
	if sellerID == 0 {
		return reverts.UnknownSeller
	}

	offer, err := s.offer(sellerID).Get()
	if err != nil {
		return err
	}
	if payment.Cmp(offer) > 0 {
		return reverts.ExceedsOffer
	}
	if err := s.offer(sellerID).Set(offer.Sub(offer, payment)); err != nil {
		return err
	}

	sellerStake, err := s.ledger.PersonalStake(sellerID)
	if err != nil {
		return err
	}
	if payment.Cmp(sellerStake) > 0 {
		return reverts.InsufficientStake
	}
	if err := s.ledger.SetPersonalStake(sellerID, sellerStake.Sub(sellerStake, payment)); err != nil {
		return err
	}

	buyerID, _, err := s.registry.ResolveOrCreate(buyer)
	if err != nil {
		return err
	}
	buyerStake, err := s.ledger.PersonalStake(buyerID)
	if err != nil {
		return err
	}
	if payment.Cmp(buyerStake) > 0 {
		return reverts.InsufficientStake
	}
	if err := s.ledger.SetPersonalStake(buyerID, buyerStake.Sub(buyerStake, payment)); err != nil {
		return err
	}

	if err := sender.Transfer(seller, payment, memoPayment); err != nil {
		return err
	}
	logger.Debug("stake purchased", "buyer", buyer, "seller", seller, "payment", payment)
	return nil
}
