// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/delegation/builtin"
	"github.com/vechain/delegation/builtin/delegation"
	"github.com/vechain/delegation/builtin/delegation/checkpoint"
	"github.com/vechain/delegation/builtin/delegation/globalop"
	"github.com/vechain/delegation/cmd/delegation/httpserver"
	"github.com/vechain/delegation/log"
	"github.com/vechain/delegation/logdb"
	"github.com/vechain/delegation/metrics"
	"github.com/vechain/delegation/runtime"
	"github.com/vechain/delegation/thor"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if gitCommit == "" {
		return version
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "delegation",
		Usage:   "Runs the delegation pool contract over a local database",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			verbosityFlag,
			logFormatFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			gasLimitFlag,
		},
		Commands: []cli.Command{
			{
				Name:      "call",
				Usage:     "call a method of the contract",
				ArgsUsage: "<method> [args...]",
				Flags:     []cli.Flag{fromFlag, valueFlag},
				Action:    callAction,
			},
			{
				Name:      "mint",
				Usage:     "credit funds to an address",
				ArgsUsage: "<address> <amount>",
				Action:    mintAction,
			},
			{
				Name:   "inspect",
				Usage:  "print the contract state",
				Flags:  []cli.Flag{userFlag},
				Action: inspectAction,
			},
			{
				Name:      "globalop",
				Usage:     "drive a global operation to completion (cap <amount> | fee <basis points> | continue)",
				ArgsUsage: "<kind> [arg]",
				Flags:     []cli.Flag{fromFlag},
				Action:    globalOpAction,
			},
			{
				Name:   "history",
				Usage:  "list committed calls with their events and transfers",
				Flags:  []cli.Flag{userFlag, methodFlag, limitFlag, descFlag},
				Action: historyAction,
			},
			{
				Name:  "methods",
				Usage: "list the contract methods",
				Action: func(*cli.Context) error {
					for _, name := range builtin.NativeMethods() {
						payable := ""
						if builtin.IsPayable(name) {
							payable = " (payable)"
						}
						fmt.Printf("%v%v %v\n", name, payable, strings.Repeat("<arg> ", len(methodArgs[name])))
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

type node struct {
	rt     *runtime.Runtime
	logDB  *logdb.LogDB
	cfg    *Config
	closer []func()
}

func (n *node) Close() {
	for i := len(n.closer) - 1; i >= 0; i-- {
		n.closer[i]()
	}
}

// setup loads the configuration, installs logging and metrics and opens the runtime.
func setup(ctx *cli.Context) (*node, error) {
	cfg, err := loadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}
	cfg.resolve(ctx)

	if err := initLogger(*cfg.Log.Verbosity, cfg.Log.Format); err != nil {
		return nil, err
	}

	n := &node{cfg: cfg}
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
		url, stop, err := httpserver.StartMetricsServer(cfg.Metrics.Addr)
		if err != nil {
			return nil, err
		}
		log.Info("metrics server started", "url", url)
		n.closer = append(n.closer, func() {
			log.Info("stopping metrics server...")
			stop()
		})
	}

	if cfg.DataDir == "" {
		n.Close()
		return nil, errors.Errorf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		n.Close()
		return nil, errors.Wrapf(err, "create data dir at '%v'", cfg.DataDir)
	}
	rt, err := runtime.Open(filepath.Join(cfg.DataDir, "state"), cfg.LevelDB)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.rt = rt
	n.closer = append(n.closer, func() {
		log.Debug("closing database...")
		rt.Close()
	})

	logDB, err := logdb.New(filepath.Join(cfg.DataDir, "logs.db"))
	if err != nil {
		n.Close()
		return nil, errors.Wrap(err, "open log database")
	}
	n.logDB = logDB
	rt.SetLogDB(logDB)
	n.closer = append(n.closer, func() {
		log.Debug("closing log database...")
		logDB.Close()
	})
	return n, nil
}

func callerOf(ctx *cli.Context) (thor.Address, error) {
	from := ctx.String(fromFlag.Name)
	if from == "" {
		return thor.Address{}, nil
	}
	addr, err := thor.ParseAddress(from)
	return addr, errors.Wrapf(err, "invalid caller %q", from)
}

func printReceipt(receipt *runtime.Receipt) {
	fmt.Printf("id:       %v\n", receipt.ID)
	fmt.Printf("gas used: %v\n", receipt.GasUsed)
	fmt.Printf("reverted: %v\n", receipt.Reverted)
	for i, out := range receipt.Output {
		if c, ok := out.(checkpoint.Checkpoint); ok {
			fmt.Printf("output %d: %s", i, spew.Sdump(c))
			continue
		}
		fmt.Printf("output %d: %v\n", i, out)
	}
	for _, tr := range receipt.Transfers {
		fmt.Printf("transfer: %v -> %v (%v)\n", tr.Amount, tr.Recipient, tr.Memo)
	}
	for _, ev := range receipt.Events {
		fmt.Printf("event:    %v %v\n", ev.Name, ev.Fields)
	}
}

func callAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("method required")
	}
	method := ctx.Args().First()
	args, err := parseArgs(method, ctx.Args().Tail())
	if err != nil {
		return err
	}
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}
	value, err := parseAmount(ctx.String(valueFlag.Name))
	if err != nil {
		return err
	}

	n, err := setup(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	receipt, err := n.rt.Call(runtime.Clause{
		Caller:   caller,
		Value:    value,
		GasLimit: n.cfg.GasLimit,
		Method:   method,
		Args:     args,
	})
	if receipt != nil {
		printReceipt(receipt)
	}
	return err
}

func mintAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("address and amount required")
	}
	addr, err := thor.ParseAddress(ctx.Args().Get(0))
	if err != nil {
		return errors.Wrap(err, "invalid address")
	}
	amount, err := parseAmount(ctx.Args().Get(1))
	if err != nil {
		return err
	}

	n, err := setup(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.rt.Mint(addr, amount); err != nil {
		return err
	}
	balance, err := n.rt.Balance(addr)
	if err != nil {
		return err
	}
	fmt.Printf("balance of %v: %v\n", addr, balance)
	return nil
}

func inspectAction(ctx *cli.Context) error {
	var (
		user    thor.Address
		hasUser = ctx.String(userFlag.Name) != ""
	)
	if hasUser {
		var err error
		if user, err = thor.ParseAddress(ctx.String(userFlag.Name)); err != nil {
			return errors.Wrap(err, "invalid user")
		}
	}

	n, err := setup(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	balance, err := n.rt.Balance(n.rt.Contract())
	if err != nil {
		return err
	}
	return n.rt.View(func(d *delegation.Delegation) error {
		var report []any
		for _, item := range []struct {
			name string
			get  func() (any, error)
		}{
			{"owner", func() (any, error) { return d.Owner() }},
			{"total stake", func() (any, error) { return d.TotalStake() }},
			{"unfilled stake", func() (any, error) { return d.UnfilledStake() }},
			{"users", func() (any, error) { return d.NrUsers() }},
			{"historical rewards", func() (any, error) { return d.HistoricalRewards() }},
			{"service fee", func() (any, error) { return d.ServiceFee() }},
			{"owner rewards", func() (any, error) { return d.OwnerRewards() }},
			{"last sweep unclaimed", func() (any, error) { return d.LastSweepUnclaimed() }},
		} {
			v, err := item.get()
			if err != nil {
				return errors.Wrap(err, item.name)
			}
			report = append(report, item.name, v)
		}

		fmt.Printf("contract:             %v\n", d.Address())
		fmt.Printf("balance:              %v\n", balance)
		for i := 0; i < len(report); i += 2 {
			fmt.Printf("%-21s %v\n", report[i].(string)+":", report[i+1])
		}

		c, err := d.GlobalOperationCheckpoint()
		if err != nil {
			return err
		}
		fmt.Printf("global operation:     %s", spew.Sdump(c))

		if hasUser {
			stake, err := d.StakeOf(user)
			if err != nil {
				return err
			}
			reward, err := d.ClaimableReward(user)
			if err != nil {
				return err
			}
			offer, err := d.StakeForSale(user)
			if err != nil {
				return err
			}
			fmt.Printf("user %v: stake %v, claimable %v, for sale %v\n", user, stake, reward, offer)
		}
		return nil
	})
}

// sweepPosition returns how many users the suspended operation has swept.
func sweepPosition(c checkpoint.Checkpoint) uint64 {
	switch c := c.(type) {
	case *checkpoint.ModifyTotalDelegationCap:
		if s, ok := c.Step.(*checkpoint.ComputeAllRewards); ok {
			return s.LastID
		}
		return ^uint64(0)
	case *checkpoint.ChangeServiceFee:
		return c.ComputeRewardsData.LastID
	default:
		return ^uint64(0)
	}
}

func globalOpAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("operation kind required")
	}
	var clause runtime.Clause
	switch kind := ctx.Args().First(); kind {
	case "cap":
		args, err := parseArgs("modifyTotalDelegationCap", ctx.Args().Tail())
		if err != nil {
			return err
		}
		clause = runtime.Clause{Method: "modifyTotalDelegationCap", Args: args}
	case "fee":
		args, err := parseArgs("setServiceFee", ctx.Args().Tail())
		if err != nil {
			return err
		}
		clause = runtime.Clause{Method: "setServiceFee", Args: args}
	case "continue":
		clause = runtime.Clause{Method: "continueGlobalOperation"}
	default:
		return errors.Errorf("unknown operation kind %q", kind)
	}
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}

	n, err := setup(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	var nrUsers uint64
	if err := n.rt.View(func(d *delegation.Delegation) (err error) {
		nrUsers, err = d.NrUsers()
		return
	}); err != nil {
		return err
	}

	bar := pb.New64(int64(nrUsers)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	clause.Caller = caller
	clause.GasLimit = n.cfg.GasLimit
	var last []byte
	for calls := 1; ; calls++ {
		receipt, err := n.rt.Call(clause)
		if err != nil {
			return err
		}
		status := receipt.Output[0].(globalop.Status)
		log.Debug("global operation call", "calls", calls, "status", status, "gas", receipt.GasUsed)
		if status == globalop.Done {
			bar.Set64(int64(nrUsers))
			bar.Finish()
			fmt.Printf("done in %d call(s)\n", calls)
			return nil
		}

		if err := n.rt.View(func(d *delegation.Delegation) error {
			c, err := d.GlobalOperationCheckpoint()
			if err != nil {
				return err
			}
			enc := checkpoint.Encode(c)
			if last != nil && string(enc) == string(last) {
				return errors.Errorf("no progress with gas limit %v, use -%s to raise it", n.cfg.GasLimit, gasLimitFlag.Name)
			}
			last = enc
			if pos := sweepPosition(c); pos <= nrUsers {
				bar.Set64(int64(pos))
			} else {
				bar.Set64(int64(nrUsers))
			}
			return nil
		}); err != nil {
			return err
		}
		clause = runtime.Clause{Caller: caller, GasLimit: n.cfg.GasLimit, Method: "continueGlobalOperation"}
	}
}

func historyAction(ctx *cli.Context) error {
	filter := &logdb.ReceiptFilter{
		Method:  ctx.String(methodFlag.Name),
		Options: &logdb.Options{Limit: ctx.Uint64(limitFlag.Name)},
	}
	if ctx.Bool(descFlag.Name) {
		filter.Order = logdb.DESC
	}
	if user := ctx.String(userFlag.Name); user != "" {
		addr, err := thor.ParseAddress(user)
		if err != nil {
			return errors.Wrap(err, "invalid user")
		}
		filter.Caller = &addr
	}

	n, err := setup(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	bg := context.Background()
	receipts, err := n.logDB.FilterReceipts(bg, filter)
	if err != nil {
		return err
	}
	for _, r := range receipts {
		fmt.Printf("#%-6d %-26s from %v value %v gas %v\n", r.Seq, r.Method, r.Caller, r.Value, r.GasUsed)

		var (
			rng       = &logdb.Range{From: r.Seq, To: r.Seq}
			events    []*logdb.Event
			transfers []*logdb.Transfer
		)
		g, gctx := errgroup.WithContext(bg)
		g.Go(func() (err error) {
			events, err = n.logDB.FilterEvents(gctx, &logdb.EventFilter{Range: rng})
			return
		})
		g.Go(func() (err error) {
			transfers, err = n.logDB.FilterTransfers(gctx, &logdb.TransferFilter{Range: rng})
			return
		})
		if err := g.Wait(); err != nil {
			return err
		}

		for _, ev := range events {
			var fields []any
			if err := ev.DecodeFields(&fields); err != nil {
				return errors.Wrapf(err, "decode event %v", ev.Name)
			}
			fmt.Printf("        event    %v %x\n", ev.Name, fields)
		}
		for _, tr := range transfers {
			fmt.Printf("        transfer %v -> %v (%v)\n", tr.Amount, tr.Recipient, tr.Memo)
		}
	}
	return nil
}
