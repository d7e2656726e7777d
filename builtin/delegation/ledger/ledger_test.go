// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/delegation/builtin/delegation/registry"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/lvldb"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var (
	contract = thor.BytesToAddress([]byte("delegation"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
	owner    = thor.BytesToAddress([]byte("owner"))
)

type transfer struct {
	to     thor.Address
	amount *big.Int
	memo   string
}

// testSender moves funds out of the contract account.
type testSender struct {
	st   *state.State
	sent []transfer
}

func (s *testSender) Transfer(to thor.Address, amount *big.Int, memo string) error {
	ok, err := s.st.SubBalance(contract, amount)
	if err != nil {
		return err
	}
	if !ok {
		return assert.AnError
	}
	if err := s.st.AddBalance(to, amount); err != nil {
		return err
	}
	s.sent = append(s.sent, transfer{to, new(big.Int).Set(amount), memo})
	return nil
}

type testLedger struct {
	*Service
	t      *testing.T
	st     *state.State
	sender *testSender
}

func newTestLedger(t *testing.T, totalStake int64) *testLedger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, 0)
	sctx := slot.NewContext(contract, st, nil)
	l := &testLedger{
		Service: New(sctx, registry.New(sctx)),
		t:       t,
		st:      st,
		sender:  &testSender{st: st},
	}
	if totalStake > 0 {
		require.NoError(t, l.Init(big.NewInt(totalStake)))
	}
	return l
}

// reward adds external funds to the pool.
func (l *testLedger) reward(amount int64) {
	require.NoError(l.t, l.st.AddBalance(contract, big.NewInt(amount)))
}

// stake credits the payment to the contract, then stakes it.
func (l *testLedger) stake(who thor.Address, payment int64) error {
	l.reward(payment)
	return l.Stake(who, big.NewInt(payment))
}

func (l *testLedger) claimable(who thor.Address) int64 {
	v, err := l.ClaimableReward(who)
	require.NoError(l.t, err)
	return v.Int64()
}

func (l *testLedger) historical() int64 {
	v, err := l.HistoricalRewards()
	require.NoError(l.t, err)
	return v.Int64()
}

func TestInit(t *testing.T) {
	l := newTestLedger(t, 0)
	assert.ErrorIs(t, l.Init(big.NewInt(0)), reverts.InvalidAmount)

	require.NoError(t, l.Init(big.NewInt(1000)))
	total, _ := l.TotalStake()
	unfilled, _ := l.UnfilledStake()
	assert.Equal(t, big.NewInt(1000), total)
	assert.Equal(t, big.NewInt(1000), unfilled)
}

func TestStakeAccounting(t *testing.T) {
	l := newTestLedger(t, 1000)

	payments := []int64{400, 0, 100, 250}
	var sum int64
	for i, p := range payments {
		who := alice
		if i%2 == 1 {
			who = bob
		}
		require.NoError(t, l.stake(who, p))
		sum += p

		unfilled, _ := l.UnfilledStake()
		nonReward, _ := l.NonRewardBalance()
		assert.Equal(t, 1000-sum, unfilled.Int64())
		assert.Equal(t, sum, nonReward.Int64())
		assert.Zero(t, l.historical())
	}

	nr, _ := l.registry.Count()
	assert.Equal(t, uint64(2), nr)

	stake, _ := l.StakeOf(alice)
	assert.Equal(t, big.NewInt(500), stake)
	stake, _ = l.StakeOf(bob)
	assert.Equal(t, big.NewInt(250), stake)

	assert.ErrorIs(t, l.Stake(bob, big.NewInt(251)), reverts.ExceedsCapacity)
}

func TestSingleUserReward(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 400))

	l.reward(100)
	assert.Equal(t, int64(100), l.historical())
	assert.Equal(t, int64(40), l.claimable(alice))

	// views never mutate
	user, err := l.LoadUser(1)
	require.NoError(t, err)
	assert.Zero(t, user.UnclaimedRewards.Sign())
	assert.Zero(t, user.HistoricalRewardsWhenLastCollected.Sign())

	amount, err := l.ClaimReward(alice, l.sender)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), amount)
	assert.Equal(t, []transfer{{alice, big.NewInt(40), "delegation claim"}}, l.sender.sent)

	assert.Zero(t, l.claimable(alice))
	assert.Equal(t, int64(100), l.historical())

	sent, _ := l.SentRewards()
	assert.Equal(t, big.NewInt(40), sent)
}

func TestTruncatingShare(t *testing.T) {
	l := newTestLedger(t, 3)
	require.NoError(t, l.stake(alice, 1))
	require.NoError(t, l.stake(bob, 1))

	l.reward(10)
	assert.Equal(t, int64(3), l.claimable(alice))
	assert.Equal(t, int64(3), l.claimable(bob))
}

func TestLateStakerEarnsNothingOfThePast(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 500))
	l.reward(100)

	require.NoError(t, l.stake(bob, 500))
	assert.Zero(t, l.claimable(bob))
	assert.Equal(t, int64(50), l.claimable(alice))

	l.reward(100)
	assert.Equal(t, int64(50), l.claimable(bob))
	assert.Equal(t, int64(100), l.claimable(alice))
}

func TestTopUpSettlesFirst(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 100))
	l.reward(100)

	require.NoError(t, l.stake(alice, 100))
	user, err := l.LoadUser(1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), user.UnclaimedRewards)
	assert.Equal(t, big.NewInt(100), user.HistoricalRewardsWhenLastCollected)
	assert.Equal(t, big.NewInt(200), user.PersonalStake)

	l.reward(100)
	assert.Equal(t, int64(30), l.claimable(alice))
}

func TestZeroStakeRegistersNobody(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 0))

	nr, _ := l.registry.Count()
	assert.Zero(t, nr)
}

func TestClaimUnknownCaller(t *testing.T) {
	l := newTestLedger(t, 1000)
	_, err := l.ClaimReward(alice, l.sender)
	assert.ErrorIs(t, err, reverts.UnknownCaller)

	assert.Zero(t, l.claimable(alice))
	stake, err := l.StakeOf(alice)
	assert.NoError(t, err)
	assert.Zero(t, stake.Sign())
}

func TestClaimNothingRefreshesSnapshot(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 1000))

	amount, err := l.ClaimReward(alice, l.sender)
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())
	assert.Empty(t, l.sender.sent)
}

func TestServiceFee(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 1000))

	assert.ErrorIs(t, l.SetServiceFee(MaxServiceFee+1), reverts.InvalidServiceFee)
	require.NoError(t, l.SetServiceFee(1000)) // 10%

	l.reward(200)
	assert.Equal(t, int64(180), l.claimable(alice))

	_, err := l.ClaimReward(alice, l.sender)
	require.NoError(t, err)
	fee, _ := l.OwnerRewards()
	assert.Equal(t, big.NewInt(20), fee)

	amount, err := l.ClaimServiceFee(owner, l.sender)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), amount)
	assert.Equal(t, transfer{owner, big.NewInt(20), "service fee claim"}, l.sender.sent[1])
	assert.Equal(t, int64(200), l.historical())

	amount, err = l.ClaimServiceFee(owner, l.sender)
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())
}

func TestCatchUpTo(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 500))
	l.reward(100)

	user, fee, err := l.CatchUpTo(1, big.NewInt(60))
	require.NoError(t, err)
	assert.Zero(t, fee.Sign())
	assert.Equal(t, big.NewInt(30), user.UnclaimedRewards)
	require.NoError(t, l.Settle(1, user, fee))

	// target behind the snapshot leaves the record untouched
	user, _, err = l.CatchUpTo(1, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), user.HistoricalRewardsWhenLastCollected)
	assert.Equal(t, big.NewInt(30), user.UnclaimedRewards)

	assert.Equal(t, int64(50), l.claimable(alice))
}

func TestCapacity(t *testing.T) {
	l := newTestLedger(t, 1000)
	require.NoError(t, l.stake(alice, 400))

	require.NoError(t, l.OpenCapacity(big.NewInt(500)))
	total, _ := l.TotalStake()
	unfilled, _ := l.UnfilledStake()
	assert.Equal(t, big.NewInt(1500), total)
	assert.Equal(t, big.NewInt(1100), unfilled)

	require.NoError(t, l.CloseCapacity(big.NewInt(1100)))
	filled, _ := l.FilledStake()
	total, _ = l.TotalStake()
	assert.Equal(t, big.NewInt(400), filled)
	assert.Equal(t, big.NewInt(400), total)

	assert.ErrorIs(t, l.CloseCapacity(big.NewInt(1)), reverts.CapBelowFilledStake)
}
