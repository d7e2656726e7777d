// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb is the goleveldb backed kv.Store holding the contract state.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vechain/delegation/kv"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/metrics"
)

var (
	_ kv.Store = (*LevelDB)(nil)

	logger = log.WithContext("pkg", "lvldb")

	metricBatchOps   = metrics.LazyLoadHistogram("lvldb_batch_ops", []int64{0, 1, 2, 5, 10, 20, 50, 100, 500})
	metricBatchCount = metrics.LazyLoadCounterVec("lvldb_batch_count", []string{"outcome"})
)

// minimal cache and file handle budget, in MiB and handles
const minCapacity = 16

// Options tunes the database. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int `yaml:"cache-size"` // MiB
	OpenFilesCacheCapacity int `yaml:"open-files-cache-capacity"`
}

func (o Options) leveldb() *opt.Options {
	cache := max(o.CacheSize, minCapacity)
	return &opt.Options{
		OpenFilesCacheCapacity: max(o.OpenFilesCacheCapacity, minCapacity),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // two are kept in memory during compaction
		Filter:                 filter.NewBloomFilter(10),
	}
}

// LevelDB is a kv.Store on goleveldb.
type LevelDB struct {
	db  *leveldb.DB
	stg storage.Storage // not closed by db, holds the file lock
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, "open storage at %v", path)
	}
	ldb, err := open(stg, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("database opened", "path", path, "cache", max(opts.CacheSize, minCapacity))
	return ldb, nil
}

// NewMem opens an empty database held in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	db, err := leveldb.Open(stg, opts.leveldb())
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db, stg}, nil
}

// IsNotFound reports whether err is the missing key error of Get.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (ldb *LevelDB) Get(key []byte) ([]byte, error) { return ldb.db.Get(key, nil) }
func (ldb *LevelDB) Has(key []byte) (bool, error)   { return ldb.db.Has(key, nil) }
func (ldb *LevelDB) Put(key, value []byte) error    { return ldb.db.Put(key, value, nil) }
func (ldb *LevelDB) Delete(key []byte) error        { return ldb.db.Delete(key, nil) }

// Close closes the database and releases its storage. Later operations fail.
func (ldb *LevelDB) Close() error {
	if err := ldb.db.Close(); err != nil {
		ldb.stg.Close()
		return err
	}
	return ldb.stg.Close()
}

// NewBatch starts a batch applied atomically by Write.
func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{ldb.db, new(leveldb.Batch)}
}

// Iterate walks the keys in r in ascending order.
func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, nil)
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int { return b.b.Len() }

func (b *batch) Write() error {
	metricBatchOps().Observe(int64(b.b.Len()))
	if err := b.db.Write(b.b, nil); err != nil {
		metricBatchCount().AddWithLabel(1, map[string]string{"outcome": "error"})
		return err
	}
	metricBatchCount().AddWithLabel(1, map[string]string{"outcome": "ok"})
	return nil
}
