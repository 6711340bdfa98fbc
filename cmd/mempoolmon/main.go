// Copyright 2025 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// mempoolmon watches the public transaction pool of an Ethereum network over
// devp2p and reports transactions calling a configured contract.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/mempoolmon/internal/debug"
	"github.com/ethereum/mempoolmon/internal/flags"
	"github.com/ethereum/mempoolmon/internal/version"
	"github.com/ethereum/mempoolmon/monitor"
	"github.com/ethereum/mempoolmon/session"
	"github.com/urfave/cli/v2"

	// Automatically set GOMAXPROCS to match Linux container CPU quota.
	_ "go.uber.org/automaxprocs"
)

const envPrefix = "MEMPOOLMON"

var app = flags.NewApp("Ethereum mempool monitor")

func init() {
	app.Action = mempoolmon
	app.Flags = flags.Merge(
		monitorFlags,
		queueFlags,
		networkFlags,
		metricsFlags,
		debug.Flags,
	)
	flags.AutoEnvVars(app.Flags, envPrefix)

	app.Commands = []*cli.Command{
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		flags.CheckEnvVars(ctx, app.Flags, envPrefix)
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
	app.CommandNotFound = func(ctx *cli.Context, cmd string) {
		fmt.Fprintf(os.Stderr, "No such command: %s\n", cmd)
		os.Exit(1)
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// mempoolmon is the main entry point. It runs the monitor until interrupted.
func mempoolmon(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	setupMetrics(&cfg.Metrics)

	cfg.Network.Name = version.ClientName("mempoolmon")
	cfg.Network.Log = log.New("module", "eth")
	cfg.Monitor.Log = log.Root()

	proc := &monitor.LogProcessor{Log: log.New("module", "matches")}
	mon, err := monitor.New(&cfg.Monitor, &netBackend{cfg: &cfg.Network}, proc)
	if err != nil {
		return err
	}
	// Signals arriving while seeds are bootstrapped are buffered and handled
	// as soon as Start returns.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	if err := mon.Start(); err != nil {
		return fmt.Errorf("failed to start monitor: %v", err)
	}
	vsn, vcs := version.Info()
	log.Info("Mempool monitor started", "version", vsn, "vcs", vcs, "self", mon.Self())

	report(mon, ctx.Duration(statsIntervalFlag.Name), sigc)

	log.Info("Got interrupt, shutting down...")
	go func() {
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.Warn("Already shutting down, interrupt more to panic.", "times", i-1)
			}
		}
		panic("boom")
	}()
	return mon.Stop()
}

// report logs peer changes and periodic status until a signal arrives.
func report(mon *monitor.Monitor, interval time.Duration, sigc <-chan os.Signal) {
	events := make(chan session.Event, 64)
	sub := mon.Registry().SubscribeEvents(events)
	defer sub.Unsubscribe()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-sigc:
			return
		case ev := <-events:
			log.Debug("Peer session changed", "event", ev.Type, "id", ev.Peer, "peers", mon.Registry().Len())
		case <-tick:
			st := mon.Stats()
			log.Info("Mempool monitor status", "peers", st.Peers, "msgs", st.Messages,
				"txs", st.Transactions, "matches", st.Matches, "decodefail", st.DecodeFailures,
				"requested", st.HashesRequested, "active", st.Dispatch.Active,
				"pending", st.Dispatch.Pending, "dropped", st.Dispatch.Dropped, "failed", st.Dispatch.Failed)
		case err := <-sub.Err():
			if err != nil {
				log.Warn("Peer event subscription failed", "err", err)
			}
			return
		}
	}
}

// setupMetrics starts the process metrics collector and the metrics HTTP
// endpoint when enabled.
func setupMetrics(cfg *metricsConfig) {
	if !cfg.Enabled {
		return
	}
	if !metrics.Enabled {
		log.Warn("Metrics must be enabled on the command line with --metrics to be recorded")
	}
	go metrics.CollectProcessMetrics(3 * time.Second)

	if cfg.HTTP != "" {
		address := net.JoinHostPort(cfg.HTTP, strconv.Itoa(cfg.Port))
		log.Info("Enabling stand-alone metrics HTTP endpoint", "address", address)
		exp.Setup(address)
	}
}
