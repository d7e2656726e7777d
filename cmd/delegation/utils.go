// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/thor"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".delegation")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func initLogger(verbosity int, format string) error {
	handler, err := log.NewHandler(os.Stderr, format, log.FromLegacyLevel(verbosity))
	if err != nil {
		return err
	}
	log.SetDefault(handler)
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

type argKind int

const (
	argAmount argKind = iota
	argAddress
	argUint64
)

// methodArgs lists the arguments of the methods taking any.
var methodArgs = map[string][]argKind{
	"init":                     {argAmount},
	"getStake":                 {argAddress},
	"getClaimableReward":       {argAddress},
	"getStakeForSale":          {argAddress},
	"offerStakeForSale":        {argAmount},
	"purchaseStake":            {argAddress},
	"modifyTotalDelegationCap": {argAmount},
	"setServiceFee":            {argUint64},
}

// parseArgs converts the command line arguments of method into call arguments.
func parseArgs(method string, raw []string) ([]any, error) {
	kinds := methodArgs[method]
	if len(raw) != len(kinds) {
		return nil, errors.Errorf("%v takes %d argument(s), got %d", method, len(kinds), len(raw))
	}
	args := make([]any, 0, len(kinds))
	for i, kind := range kinds {
		switch kind {
		case argAmount:
			v, err := parseAmount(raw[i])
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		case argAddress:
			addr, err := thor.ParseAddress(raw[i])
			if err != nil {
				return nil, errors.Wrapf(err, "invalid address %q", raw[i])
			}
			args = append(args, addr)
		case argUint64:
			v, err := strconv.ParseUint(raw[i], 0, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid number %q", raw[i])
			}
			args = append(args, v)
		}
	}
	return args, nil
}

func fatal(args ...any) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
