// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/delegation/lvldb"
)

// Config is the content of the configuration file. Flags set on the command
// line take precedence over it.
type Config struct {
	DataDir  string        `yaml:"data-dir"`
	GasLimit uint64        `yaml:"gas-limit"`
	LevelDB  lvldb.Options `yaml:"leveldb"`
	Log      struct {
		Verbosity *int   `yaml:"verbosity"`
		Format    string `yaml:"format"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %v", path)
	}
	return &cfg, nil
}

// resolve fills the settings the command line leaves unset from the file,
// falling back to the flag defaults.
func (cfg *Config) resolve(ctx *cli.Context) {
	if ctx.GlobalIsSet(dataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(gasLimitFlag.Name) || cfg.GasLimit == 0 {
		cfg.GasLimit = ctx.GlobalUint64(gasLimitFlag.Name)
	}
	if ctx.GlobalIsSet(verbosityFlag.Name) || cfg.Log.Verbosity == nil {
		v := ctx.GlobalInt(verbosityFlag.Name)
		cfg.Log.Verbosity = &v
	}
	if ctx.GlobalIsSet(logFormatFlag.Name) || cfg.Log.Format == "" {
		cfg.Log.Format = ctx.GlobalString(logFormatFlag.Name)
	}
	if ctx.GlobalIsSet(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = ctx.GlobalBool(enableMetricsFlag.Name)
	}
	if ctx.GlobalIsSet(metricsAddrFlag.Name) || cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ctx.GlobalString(metricsAddrFlag.Name)
	}
}
