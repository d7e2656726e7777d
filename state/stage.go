// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/vechain/delegation/kv"
	"github.com/vechain/delegation/thor"
)

// Stage abstracts changes to be committed.
type Stage struct {
	state    *State
	balances map[thor.Address]*big.Int
	storage  map[storageKey][]byte
}

// Len returns count of changed entries.
func (s *Stage) Len() int {
	return len(s.balances) + len(s.storage)
}

// Commit writes all changes into the store in one batch, and resets the
// journal of the state.
func (s *Stage) Commit() error {
	var (
		batch   = s.state.store.NewBatch()
		written = make(map[string][]byte, s.Len())
	)

	put := func(bucket kv.Bucket, key, val []byte) error {
		written[string(bucket)+string(key)] = val
		if len(val) == 0 {
			return bucket.NewPutter(batch).Delete(key)
		}
		return bucket.NewPutter(batch).Put(key, val)
	}

	for addr, bal := range s.balances {
		if err := put(balanceBucket, addr.Bytes(), bal.Bytes()); err != nil {
			return &Error{err}
		}
	}
	for k, v := range s.storage {
		if err := put(storageBucket, storageDBKey(k.addr, k.key), v); err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for k, v := range written {
		if len(v) == 0 {
			v = nil
		}
		s.state.cache.Add(k, v)
	}
	s.state.reset()
	metricStateCommitCount().AddWithLabel(int64(len(s.balances)), map[string]string{"type": "balance"})
	metricStateCommitCount().AddWithLabel(int64(len(s.storage)), map[string]string{"type": "storage"})
	return nil
}
