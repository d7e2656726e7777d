// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv is the execution environment of a native contract call: the
// caller and attached value, the gas budget, transfers and events.
package xenv

import (
	"math/big"

	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/delegation/state"
	"github.com/vechain/delegation/thor"
)

var (
	// ErrOutOfGas is returned when a call consumes more gas than its limit.
	ErrOutOfGas = errors.New("out of gas")
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	// ErrValueNotAccepted is returned when value is attached to a non-payable method.
	ErrValueNotAccepted = errors.New("value transfer not accepted")
)

type vmError struct {
	cause error
}

func (e *vmError) Error() string {
	return e.cause.Error()
}

// CallContext describes the call being executed.
type CallContext struct {
	Caller   thor.Address
	To       thor.Address
	Value    *big.Int
	GasLimit uint64
	Input    []byte // rlp encoded arguments
}

// Transfer is a value transfer made by the contract.
type Transfer struct {
	Recipient thor.Address
	Amount    *big.Int
	Memo      string
}

// Event is a record emitted by the contract.
type Event struct {
	Address thor.Address
	Name    string
	Fields  []any
}

// Environment an env to execute native method.
type Environment struct {
	state     *state.State
	ctx       *CallContext
	gasUsed   uint64
	transfers []*Transfer
	events    []*Event
}

// New create a new env.
func New(state *state.State, ctx *CallContext) *Environment {
	if ctx.Value == nil {
		ctx.Value = new(big.Int)
	}
	return &Environment{
		state: state,
		ctx:   ctx,
	}
}

func (env *Environment) State() *state.State    { return env.state }
func (env *Environment) Caller() thor.Address   { return env.ctx.Caller }
func (env *Environment) To() thor.Address       { return env.ctx.To }
func (env *Environment) Value() *big.Int        { return new(big.Int).Set(env.ctx.Value) }
func (env *Environment) GasUsed() uint64        { return env.gasUsed }
func (env *Environment) Transfers() []*Transfer { return env.transfers }
func (env *Environment) Events() []*Event       { return env.events }
func (env *Environment) GasLeft() uint64        { return env.ctx.GasLimit - env.gasUsed }

// UseGas consumes gas, and aborts the call when the limit is exceeded.
func (env *Environment) UseGas(gas uint64) {
	if gas > env.GasLeft() {
		env.gasUsed = env.ctx.GasLimit
		panic(&vmError{ErrOutOfGas})
	}
	env.gasUsed += gas
}

func (env *Environment) ParseArgs(val any) {
	if len(env.ctx.Input) == 0 {
		return
	}
	if err := rlp.DecodeBytes(env.ctx.Input, val); err != nil {
		// as vm error
		panic(&vmError{errors.WithMessage(err, "decode native input")})
	}
}

// Transfer sends amount from the contract to the recipient.
func (env *Environment) Transfer(to thor.Address, amount *big.Int, memo string) error {
	env.UseGas(thor.TransferGas)
	if amount.Sign() == 0 {
		return nil
	}
	ok, err := env.state.SubBalance(env.ctx.To, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	if err := env.state.AddBalance(to, amount); err != nil {
		return err
	}
	env.transfers = append(env.transfers, &Transfer{
		Recipient: to,
		Amount:    new(big.Int).Set(amount),
		Memo:      memo,
	})
	return nil
}

// Log emits an event of the contract. fields are charged as rlp encoded data.
func (env *Environment) Log(name string, fields ...any) {
	data, err := rlp.EncodeToBytes(fields)
	if err != nil {
		panic(errors.WithMessage(err, "encode native event"))
	}
	env.UseGas(ethparams.LogGas + ethparams.LogTopicGas + ethparams.LogDataGas*uint64(len(data)))
	env.events = append(env.events, &Event{
		Address: env.ctx.To,
		Name:    name,
		Fields:  fields,
	})
}

func (env *Environment) Stop(vmerr error) {
	panic(&vmError{vmerr})
}

// Call wraps proc into a function that converts an abort of the call into an error.
func (env *Environment) Call(proc func(env *Environment) ([]any, error), payable bool) func() ([]any, error) {
	return func() (output []any, err error) {
		if !payable && env.ctx.Value.Sign() != 0 {
			// reject value transfer on call
			return nil, ErrValueNotAccepted
		}

		defer func() {
			if e := recover(); e != nil {
				if rec, ok := e.(*vmError); ok {
					output, err = nil, rec.cause
				} else {
					panic(e)
				}
			}
		}()
		return proc(env)
	}
}

// IsOutOfGas tells whether err is caused by gas exhaustion.
func IsOutOfGas(err error) bool {
	return errors.Is(err, ErrOutOfGas)
}
