// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/delegation/kv"
	"github.com/vechain/delegation/stackedmap"
	"github.com/vechain/delegation/thor"
)

const (
	balanceBucket = kv.Bucket("b")
	storageBucket = kv.Bucket("s")

	defaultCacheSize = 4096
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	balanceKey thor.Address
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
)

// State manages balances and storage of accounts.
// Changes are kept in memory until staged and committed.
type State struct {
	store kv.Store
	cache *lru.ARCCache // committed values, keyed by bucket-prefixed db key
	sm    *stackedmap.StackedMap[any, any]
}

// New create state object over the given store.
// cacheSize limits the number of committed values cached in memory; 0 picks a default.
func New(store kv.Store, cacheSize int) *State {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, _ := lru.NewARC(cacheSize)
	s := &State{
		store: store,
		cache: cache,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.cacheGetter)
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case balanceKey:
		raw, err := s.load(balanceBucket, thor.Address(k).Bytes())
		if err != nil {
			return nil, false, err
		}
		return new(big.Int).SetBytes(raw), true, nil
	case storageKey:
		raw, err := s.load(storageBucket, storageDBKey(k.addr, k.key))
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// load reads committed value, an absent key reads as empty.
func (s *State) load(bucket kv.Bucket, key []byte) ([]byte, error) {
	ck := string(bucket) + string(key)
	if v, ok := s.cache.Get(ck); ok {
		return v.([]byte), nil
	}
	v, err := bucket.NewGetter(s.store).Get(key)
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, err
		}
		v = nil
	}
	s.cache.Add(ck, v)
	return v, nil
}

// storageDBKey derives the db key of a storage slot.
func storageDBKey(addr thor.Address, key thor.Bytes32) []byte {
	return thor.Blake2b(addr[:], key[:]).Bytes()
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) {
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
}

// AddBalance adds amount to the balance of the given address.
func (s *State) AddBalance(addr thor.Address, amount *big.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	s.SetBalance(addr, bal.Add(bal, amount))
	return nil
}

// SubBalance subtracts amount from the balance of the given address.
// It returns false without any change if the balance is insufficient.
func (s *State) SubBalance(addr thor.Address, amount *big.Int) (bool, error) {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return false, err
	}
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	s.SetBalance(addr, bal.Sub(bal, amount))
	return true, nil
}

// GetStorage returns raw storage value for the given address and key.
// A slot never written reads as empty.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) ([]byte, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// SetStorage set raw storage value. Empty value clears the slot.
func (s *State) SetStorage(addr thor.Address, key thor.Bytes32, value []byte) {
	s.sm.Put(storageKey{addr, key}, append([]byte(nil), value...))
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects all changes since the last commit.
func (s *State) Stage() *Stage {
	var (
		balances = make(map[thor.Address]*big.Int)
		storage  = make(map[storageKey][]byte)
	)
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case balanceKey:
			balances[thor.Address(key)] = v.(*big.Int)
		case storageKey:
			storage[key] = v.([]byte)
		}
		return true
	})
	return &Stage{
		state:    s,
		balances: balances,
		storage:  storage,
	}
}
