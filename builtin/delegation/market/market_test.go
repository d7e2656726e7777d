// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package market

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/delegation/builtin/delegation/ledger"
	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/lvldb"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var (
	contract = thor.BytesToAddress([]byte("delegation"))
	seller   = thor.BytesToAddress([]byte("seller"))
	buyer    = thor.BytesToAddress([]byte("buyer"))
)

type recordingSender struct {
	memos []string
	total *big.Int
}

func (r *recordingSender) Transfer(_ thor.Address, amount *big.Int, memo string) error {
	r.memos = append(r.memos, memo)
	r.total.Add(r.total, amount)
	return nil
}

type fixture struct {
	st     *state.State
	market *Service
	ledger *ledger.Service
	reg    *registry.Service
	sender *recordingSender
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, 0)
	sctx := slot.NewContext(contract, st, nil)
	reg := registry.New(sctx)
	led := ledger.New(sctx, reg)
	require.NoError(t, led.Init(big.NewInt(1000)))

	return &fixture{
		st:     st,
		market: New(sctx, reg, led),
		ledger: led,
		reg:    reg,
		sender: &recordingSender{total: new(big.Int)},
	}
}

func (f *fixture) setStake(t *testing.T, who thor.Address, amount int64) uint64 {
	id, _, err := f.reg.ResolveOrCreate(who)
	require.NoError(t, err)
	require.NoError(t, f.ledger.SetPersonalStake(id, big.NewInt(amount)))
	return id
}

func TestOffer(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.market.Offer(seller, big.NewInt(1)), reverts.UnknownCaller)

	f.setStake(t, seller, 400)
	assert.ErrorIs(t, f.market.Offer(seller, big.NewInt(401)), reverts.InsufficientStake)

	require.NoError(t, f.market.Offer(seller, big.NewInt(100)))
	require.NoError(t, f.market.Offer(seller, big.NewInt(50)))

	offer, err := f.market.StakeForSale(seller)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(50), offer, "offers overwrite")

	offer, err = f.market.StakeForSale(buyer)
	assert.NoError(t, err)
	assert.Zero(t, offer.Sign())
}

func TestPurchaseErrors(t *testing.T) {
	f := newFixture(t)

	err := f.market.Purchase(buyer, seller, big.NewInt(1), f.sender)
	assert.ErrorIs(t, err, reverts.UnknownSeller)

	sellerID := f.setStake(t, seller, 400)
	require.NoError(t, f.market.Offer(seller, big.NewInt(100)))

	err = f.market.Purchase(buyer, seller, big.NewInt(101), f.sender)
	assert.ErrorIs(t, err, reverts.ExceedsOffer)

	// offer left above the stake, which was reduced by other means
	require.NoError(t, f.ledger.SetPersonalStake(sellerID, big.NewInt(10)))
	err = f.market.Purchase(buyer, seller, big.NewInt(50), f.sender)
	assert.ErrorIs(t, err, reverts.InsufficientStake)
}

// A buyer without stake cannot purchase, as its stake is decremented by the payment.
func TestPurchaseDecrementsBuyerStake(t *testing.T) {
	f := newFixture(t)
	f.setStake(t, seller, 400)
	require.NoError(t, f.market.Offer(seller, big.NewInt(100)))

	chk := f.st.NewCheckpoint()
	err := f.market.Purchase(buyer, seller, big.NewInt(100), f.sender)
	assert.ErrorIs(t, err, reverts.InsufficientStake)
	assert.Empty(t, f.sender.memos)
	// the host discards the partial changes of a failed call
	f.st.RevertTo(chk)

	// a buyer holding enough stake goes through, and loses stake
	f.setStake(t, buyer, 150)
	require.NoError(t, f.market.Purchase(buyer, seller, big.NewInt(100), f.sender))

	offer, _ := f.market.StakeForSale(seller)
	assert.Zero(t, offer.Sign(), "payment equal to the offer zeroes it")

	sellerStake, _ := f.ledger.StakeOf(seller)
	assert.Equal(t, big.NewInt(300), sellerStake)
	buyerStake, _ := f.ledger.StakeOf(buyer)
	assert.Equal(t, big.NewInt(50), buyerStake)

	assert.Equal(t, []string{"payment for stake"}, f.sender.memos)
	assert.Equal(t, big.NewInt(100), f.sender.total)
}
