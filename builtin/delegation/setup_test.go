// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/delegation/lvldb"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var contract = thor.BytesToAddress([]byte("delegation"))

type transfer struct {
	to     thor.Address
	amount *big.Int
	memo   string
}

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

// DelegationTest drives the contract the way calls do: attached value is
// credited first and a failing operation leaves no trace.
type DelegationTest struct {
	*Delegation
	t      *testing.T
	st     *state.State
	sender *testSender
}

func newTest(t *testing.T) *DelegationTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, 0)
	return &DelegationTest{
		Delegation: New(contract, st, nil),
		t:          t,
		st:         st,
		sender:     &testSender{st: st},
	}
}

func (ts *DelegationTest) call(value int64, expected error, fn func() error) *DelegationTest {
	cp := ts.st.NewCheckpoint()
	if value > 0 {
		require.NoError(ts.t, ts.st.AddBalance(contract, big.NewInt(value)))
	}
	err := fn()
	if expected != nil {
		assert.ErrorIs(ts.t, err, expected)
	} else {
		assert.NoError(ts.t, err)
	}
	if err != nil {
		ts.st.RevertTo(cp)
	}
	return ts
}

func (ts *DelegationTest) Initialise(caller thor.Address, total int64, expected error) *DelegationTest {
	return ts.call(0, expected, func() error {
		return ts.Init(caller, big.NewInt(total))
	})
}

func (ts *DelegationTest) Deposit(caller thor.Address, payment int64, expected error) *DelegationTest {
	return ts.call(payment, expected, func() error {
		return ts.Stake(caller, big.NewInt(payment))
	})
}

// Reward simulates an external reward paid to the pool.
func (ts *DelegationTest) Reward(amount int64) *DelegationTest {
	require.NoError(ts.t, ts.st.AddBalance(contract, big.NewInt(amount)))
	return ts
}

func (ts *DelegationTest) Claim(caller thor.Address, expected error) *DelegationTest {
	return ts.call(0, expected, func() error {
		_, err := ts.ClaimReward(caller, ts.sender)
		return err
	})
}

func (ts *DelegationTest) Offer(caller thor.Address, amount int64, expected error) *DelegationTest {
	return ts.call(0, expected, func() error {
		return ts.OfferStakeForSale(caller, big.NewInt(amount))
	})
}

func (ts *DelegationTest) Buy(buyer, seller thor.Address, payment int64, expected error) *DelegationTest {
	return ts.call(payment, expected, func() error {
		return ts.PurchaseStake(buyer, seller, big.NewInt(payment), ts.sender)
	})
}

func (ts *DelegationTest) AssertStake(addr thor.Address, expected int64) *DelegationTest {
	stake, err := ts.StakeOf(addr)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, stake.Int64(), "stake mismatch for %v", addr)
	return ts
}

func (ts *DelegationTest) AssertClaimable(addr thor.Address, expected int64) *DelegationTest {
	reward, err := ts.ClaimableReward(addr)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, reward.Int64(), "claimable reward mismatch for %v", addr)
	return ts
}

func (ts *DelegationTest) AssertHistorical(expected int64) *DelegationTest {
	hist, err := ts.HistoricalRewards()
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, hist.Int64(), "historical rewards mismatch")
	return ts
}

func (ts *DelegationTest) AssertUnfilled(expected int64) *DelegationTest {
	unfilled, err := ts.UnfilledStake()
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, unfilled.Int64(), "unfilled stake mismatch")
	return ts
}

func (ts *DelegationTest) AssertOffer(addr thor.Address, expected int64) *DelegationTest {
	offer, err := ts.StakeForSale(addr)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, offer.Int64(), "offer mismatch for %v", addr)
	return ts
}

func (ts *DelegationTest) AssertNrUsers(expected uint64) *DelegationTest {
	n, err := ts.NrUsers()
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, n, "user count mismatch")
	return ts
}

func (ts *DelegationTest) AssertBalance(addr thor.Address, expected int64) *DelegationTest {
	balance, err := ts.st.GetBalance(addr)
	assert.NoError(ts.t, err)
	assert.Equal(ts.t, expected, balance.Int64(), "balance mismatch for %v", addr)
	return ts
}
