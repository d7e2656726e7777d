// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes calls against the delegation contract. Calls are
// strictly serialized; a call either commits all of its changes in one batch
// or leaves no trace.
package runtime

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/delegation/builtin"
	"github.com/vechain/delegation/builtin/delegation"
	"github.com/vechain/delegation/builtin/delegation/reverts"
	"github.com/vechain/delegation/kv"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/logdb"
	"github.com/vechain/delegation/lvldb"
	"github.com/vechain/delegation/metrics"
	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
	"github.com/vechain/delegation/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	// ErrIntrinsicGas is returned when the gas limit does not cover the clause gas.
	ErrIntrinsicGas = errors.New("intrinsic gas too low")
	// ErrInsufficientFunds is returned when the caller cannot pay the attached value.
	ErrInsufficientFunds = errors.New("insufficient funds for value")

	metricCallCount = metrics.LazyLoadCounterVec("call_count", []string{"method", "outcome"})
	metricCallGas   = metrics.LazyLoadHistogramVec("call_gas", []string{"method"}, metrics.BucketGas)
	metricUsers     = metrics.LazyLoadGauge("users")

	// account holding the runtime's own bookkeeping
	metaAddress = thor.BytesToAddress([]byte("runtime"))
	keySequence = thor.TaggedKey(1)
)

// Clause is one call to the contract.
type Clause struct {
	Caller   thor.Address
	Value    *big.Int
	GasLimit uint64 // 0 picks thor.DefaultCallGasLimit
	Method   string
	Args     []any // rlp encoded as a list
}

// Receipt is the outcome of a call.
type Receipt struct {
	ID        thor.Bytes32
	Seq       uint64
	Method    string
	GasUsed   uint64
	Reverted  bool
	Output    []any
	Transfers []*xenv.Transfer
	Events    []*xenv.Event
}

// Runtime owns the state of the contract.
type Runtime struct {
	mu     sync.Mutex
	store  kv.Store
	closer func() error
	state  *state.State
	logDB  *logdb.LogDB
}

// New creates a runtime over store.
func New(store kv.Store) *Runtime {
	return &Runtime{
		store:  store,
		closer: func() error { return nil },
		state:  state.New(store, 0),
	}
}

// Open creates a runtime over the leveldb at path. An empty path opens an
// in-memory database.
func Open(path string, opts lvldb.Options) (*Runtime, error) {
	var (
		db  *lvldb.LevelDB
		err error
	)
	if path == "" {
		db, err = lvldb.NewMem()
	} else {
		db, err = lvldb.New(path, opts)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	rt := New(db)
	rt.closer = db.Close
	return rt, nil
}

// Close releases the database opened by Open.
func (rt *Runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.closer()
}

// SetLogDB makes the runtime record every committed call into db.
func (rt *Runtime) SetLogDB(db *logdb.LogDB) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.logDB = db
}

// Contract returns the delegation contract address.
func (rt *Runtime) Contract() thor.Address {
	return builtin.Delegation.Address
}

// View runs fn against the committed contract without gas metering. Changes
// made by fn are discarded.
func (rt *Runtime) View(fn func(d *delegation.Delegation) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	cp := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(cp)
	return fn(builtin.Delegation.Native(rt.state, nil))
}

// Balance returns the committed balance of addr.
func (rt *Runtime) Balance(addr thor.Address) (*big.Int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.GetBalance(addr)
}

// Mint credits amount to addr out of thin air, for development networks.
func (rt *Runtime) Mint(addr thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if err := rt.state.AddBalance(addr, amount); err != nil {
		return err
	}
	if err := rt.state.Stage().Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	logger.Debug("minted", "to", addr, "amount", amount)
	return nil
}

func (rt *Runtime) nextSequence() (uint64, error) {
	raw, err := rt.state.GetStorage(metaAddress, keySequence)
	if err != nil {
		return 0, err
	}
	var seq uint64
	if len(raw) == 8 {
		seq = binary.BigEndian.Uint64(raw)
	}
	seq++
	rt.state.SetStorage(metaAddress, keySequence, binary.BigEndian.AppendUint64(nil, seq))
	return seq, nil
}

// Call executes the clause. A call failing on a business rule or running out
// of gas returns a reverted receipt along with the reason; other errors come
// without a receipt.
func (rt *Runtime) Call(clause Clause) (receipt *Receipt, err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if clause.GasLimit == 0 {
		clause.GasLimit = thor.DefaultCallGasLimit
	}
	if clause.GasLimit < thor.ClauseGas {
		return nil, ErrIntrinsicGas
	}
	value := clause.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, errors.New("negative value")
	}

	var input []byte
	if len(clause.Args) > 0 {
		if input, err = rlp.EncodeToBytes(clause.Args); err != nil {
			return nil, errors.Wrap(err, "encode args")
		}
	}
	encoded, err := rlp.EncodeToBytes([]any{clause.Caller, value, clause.GasLimit, clause.Method, input})
	if err != nil {
		return nil, errors.Wrap(err, "encode clause")
	}

	cp := rt.state.NewCheckpoint()
	defer func() {
		if err != nil {
			rt.state.RevertTo(cp)
		}
	}()

	seq, err := rt.nextSequence()
	if err != nil {
		return nil, err
	}

	// the attached value is credited before the method runs
	if value.Sign() > 0 {
		ok, err := rt.state.SubBalance(clause.Caller, value)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientFunds
		}
		if err := rt.state.AddBalance(rt.Contract(), value); err != nil {
			return nil, err
		}
	}

	env := xenv.New(rt.state, &xenv.CallContext{
		Caller:   clause.Caller,
		To:       rt.Contract(),
		Value:    value,
		GasLimit: clause.GasLimit - thor.ClauseGas,
		Input:    input,
	})
	output, callErr := builtin.NativeCall(env, clause.Method)

	receipt = &Receipt{
		ID:      thor.Blake2b(encoded, binary.BigEndian.AppendUint64(nil, seq)),
		Seq:     seq,
		Method:  clause.Method,
		GasUsed: thor.ClauseGas + env.GasUsed(),
	}
	metricCallGas().ObserveWithLabels(int64(receipt.GasUsed), map[string]string{"method": clause.Method})

	if callErr != nil {
		receipt.Reverted = true
		outcome := "error"
		switch {
		case xenv.IsOutOfGas(callErr):
			outcome = "out_of_gas"
		case reverts.IsRevertErr(callErr):
			outcome = "revert"
		}
		metricCallCount().AddWithLabel(1, map[string]string{"method": clause.Method, "outcome": outcome})
		logger.Debug("call reverted", "method", clause.Method, "caller", clause.Caller, "gas", receipt.GasUsed, "error", callErr)
		return receipt, callErr
	}

	receipt.Output = output
	receipt.Transfers = env.Transfers()
	receipt.Events = env.Events()

	if err = rt.state.Stage().Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": clause.Method, "outcome": "success"})
	rt.reportUsers()
	rt.writeLog(clause, value, receipt)

	logger.Debug("call executed", "method", clause.Method, "caller", clause.Caller, "gas", receipt.GasUsed, "id", receipt.ID)
	return receipt, nil
}

// writeLog records a committed call. The state is already committed, so a
// failure only costs the log entry.
func (rt *Runtime) writeLog(clause Clause, value *big.Int, receipt *Receipt) {
	if rt.logDB == nil {
		return
	}
	if err := rt.logDB.Write(&logdb.Receipt{
		Seq:     receipt.Seq,
		ID:      receipt.ID,
		Caller:  clause.Caller,
		Method:  clause.Method,
		Value:   value,
		GasUsed: receipt.GasUsed,
	}, receipt.Events, receipt.Transfers); err != nil {
		logger.Warn("failed to write call log", "seq", receipt.Seq, "error", err)
	}
}

func (rt *Runtime) reportUsers() {
	n, err := builtin.Delegation.Native(rt.state, nil).NrUsers()
	if err != nil {
		logger.Warn("failed to read user count", "error", err)
		return
	}
	metricUsers().Set(int64(n))
}
