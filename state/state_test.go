// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/delegation/lvldb"
	"github.com/vechain/delegation/thor"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, 0), db
}

func TestStateReadsEmpty(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))

	bal, err := st.GetBalance(addr)
	assert.Nil(t, err)
	assert.Equal(t, 0, bal.Sign())

	v, err := st.GetStorage(addr, thor.TaggedKey(1))
	assert.Nil(t, err)
	assert.Empty(t, v)
}

func TestStateRevert(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))
	key := thor.TaggedKey(1)

	st.SetBalance(addr, big.NewInt(10))
	st.SetStorage(addr, key, []byte{1})

	chk := st.NewCheckpoint()
	st.SetBalance(addr, big.NewInt(20))
	st.SetStorage(addr, key, []byte{2})
	assert.Nil(t, st.AddBalance(addr, big.NewInt(5)))

	bal, _ := st.GetBalance(addr)
	assert.Equal(t, big.NewInt(25), bal)

	st.RevertTo(chk)
	bal, _ = st.GetBalance(addr)
	assert.Equal(t, big.NewInt(10), bal)
	v, _ := st.GetStorage(addr, key)
	assert.Equal(t, []byte{1}, v)

	// revert everything
	st.RevertTo(0)
	bal, _ = st.GetBalance(addr)
	assert.Equal(t, 0, bal.Sign())
	st.SetBalance(addr, big.NewInt(1))
	bal, _ = st.GetBalance(addr)
	assert.Equal(t, big.NewInt(1), bal)
}

func TestStateSubBalance(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))
	st.SetBalance(addr, big.NewInt(10))

	ok, err := st.SubBalance(addr, big.NewInt(11))
	assert.Nil(t, err)
	assert.False(t, ok)

	ok, err = st.SubBalance(addr, big.NewInt(4))
	assert.Nil(t, err)
	assert.True(t, ok)

	bal, _ := st.GetBalance(addr)
	assert.Equal(t, big.NewInt(6), bal)
}

func TestStateReturnsCopies(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))
	st.SetBalance(addr, big.NewInt(10))

	bal, _ := st.GetBalance(addr)
	bal.SetInt64(100)

	bal, _ = st.GetBalance(addr)
	assert.Equal(t, big.NewInt(10), bal)
}

func TestStageCommit(t *testing.T) {
	st, db := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))
	key1, key2 := thor.TaggedKey(1), thor.TaggedKey(2)

	st.SetBalance(addr, big.NewInt(7))
	st.SetStorage(addr, key1, []byte("hello"))
	st.SetStorage(addr, key2, []byte("x"))
	st.SetStorage(addr, key2, nil)

	stage := st.Stage()
	assert.Equal(t, 3, stage.Len())
	require.NoError(t, stage.Commit())

	// nothing left to stage
	assert.Equal(t, 0, st.Stage().Len())

	// a fresh state instance over the same store sees the committed values
	fresh := New(db, 16)
	bal, err := fresh.GetBalance(addr)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(7), bal)

	v, err := fresh.GetStorage(addr, key1)
	assert.Nil(t, err)
	assert.Equal(t, []byte("hello"), v)

	v, err = fresh.GetStorage(addr, key2)
	assert.Nil(t, err)
	assert.Empty(t, v)

	has, err := storageBucket.NewGetter(db).Has(storageDBKey(addr, key2))
	assert.Nil(t, err)
	assert.False(t, has)
}

func TestEncodeDecodeStorage(t *testing.T) {
	st, _ := newTestState(t)
	addr := thor.BytesToAddress([]byte("acc"))
	key := thor.TaggedKey(3)

	assert.Nil(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return []byte{0xaa}, nil
	}))

	var got []byte
	assert.Nil(t, st.DecodeStorage(addr, key, func(b []byte) error {
		got = b
		return nil
	}))
	assert.Equal(t, []byte{0xaa}, got)

	err := st.EncodeStorage(addr, key, func() ([]byte, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.IsType(t, &Error{}, err)
}
