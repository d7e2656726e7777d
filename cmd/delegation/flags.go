// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/thor"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path of a YAML configuration file",
		EnvVar: "DELEGATION_CONFIG",
	}
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		Usage:  "directory of the contract database",
		EnvVar: "DELEGATION_DATA_DIR",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  3,
		Usage:  "log verbosity (0-5)",
		EnvVar: "DELEGATION_VERBOSITY",
	}
	logFormatFlag = cli.StringFlag{
		Name:   "log-format",
		Value:  log.FormatTerminal,
		Usage:  "log output format (terminal|json|logfmt)",
		EnvVar: "DELEGATION_LOG_FORMAT",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		Usage:  "enables metrics collection",
		EnvVar: "DELEGATION_ENABLE_METRICS",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:   "metrics-addr",
		Value:  "localhost:2112",
		Usage:  "metrics service listening address",
		EnvVar: "DELEGATION_METRICS_ADDR",
	}
	gasLimitFlag = cli.Uint64Flag{
		Name:   "gas-limit",
		Value:  thor.DefaultCallGasLimit,
		Usage:  "gas limit of each call",
		EnvVar: "DELEGATION_GAS_LIMIT",
	}

	// call flags
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "caller address",
	}
	valueFlag = cli.StringFlag{
		Name:  "value",
		Value: "0",
		Usage: "value attached to the call",
	}
	userFlag = cli.StringFlag{
		Name:  "user",
		Usage: "also show the records of this address",
	}

	// history flags
	methodFlag = cli.StringFlag{
		Name:  "method",
		Usage: "only show calls of this method",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 20,
		Usage: "maximum number of calls to show",
	}
	descFlag = cli.BoolFlag{
		Name:  "desc",
		Usage: "show the newest calls first",
	}
)
