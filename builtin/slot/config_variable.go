// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/thor"
)

var logger = log.WithContext("pkg", "slot")

// ConfigVariable is a contract tunable with a default value, which may be
// overridden by a non-zero value stored in its slot.
type ConfigVariable struct {
	slot        thor.Bytes32
	name        string
	value       uint64
	initialised bool
}

func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:  thor.BytesToBytes32([]byte(name)),
		name:  name,
		value: defaultValue,
	}
}

func (c *ConfigVariable) Get() uint64 {
	return c.value
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() thor.Bytes32 {
	return c.slot
}

// Override loads the stored value once. The read is free of gas, otherwise
// the cost of a call would depend on whether it is the first one.
func (c *ConfigVariable) Override(ctx *Context) {
	if c.initialised { // early return to prevent subsequent reads
		return
	}
	raw, err := ctx.raw(c.slot)
	if err != nil {
		logger.Warn("failed to read config value", "slot", c.Name(), "error", err)
		return
	}
	num, err := decodeBigInt(raw)
	if err != nil {
		logger.Warn("failed to decode config value", "slot", c.Name(), "error", err)
		return
	}

	c.initialised = true

	if num.Sign() > 0 && num.IsUint64() {
		c.value = num.Uint64()
		logger.Debug("debug override found new config value", "slot", c.Name(), "value", c.Get())
	} else {
		logger.Debug("using default config value", "slot", c.Name(), "value", c.Get())
	}
}

// Store writes an override value for the variable into the contract storage.
func (c *ConfigVariable) Store(ctx *Context, value uint64) error {
	return NewBigInt(ctx, c.slot).Set(new(big.Int).SetUint64(value))
}

// Reset forgets the loaded value, so the next Override reads storage again.
func (c *ConfigVariable) Reset(defaultValue uint64) {
	c.value = defaultValue
	c.initialised = false
}
