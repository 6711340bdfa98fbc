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

package main

import (
	"strings"
	"time"

	"github.com/ethereum/mempoolmon/dispatch"
	"github.com/ethereum/mempoolmon/internal/flags"
	"github.com/ethereum/mempoolmon/monitor"
	"github.com/urfave/cli/v2"
)

var dropPolicy = dispatch.DefaultConfig.Policy

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}

	// Monitor settings
	targetFlag = &cli.StringFlag{
		Name:     "target",
		Usage:    "Contract address transactions are matched against",
		Value:    monitor.DefaultTarget,
		Category: flags.MonitorCategory,
	}
	selectorsFlag = &cli.StringFlag{
		Name:     "selectors",
		Usage:    "Comma separated list of 4 byte function selectors to match",
		Value:    strings.Join(monitor.DefaultSelectors, ","),
		Category: flags.MonitorCategory,
	}
	codesFlag = &cli.StringFlag{
		Name:     "codes",
		Usage:    "Message code assignment used for classification (only eth68 works with the devp2p server)",
		Value:    monitor.DefaultConfig.Codes,
		Category: flags.MonitorCategory,
	}
	knownTxsFlag = &cli.IntFlag{
		Name:     "knowntxs",
		Usage:    "Number of transaction hashes remembered to avoid duplicate requests",
		Value:    monitor.DefaultConfig.KnownTxs,
		Category: flags.MonitorCategory,
	}

	// Dispatch queue settings
	workersFlag = &cli.IntFlag{
		Name:     "workers",
		Usage:    "Maximum number of concurrently processed matches",
		Value:    dispatch.DefaultConfig.Workers,
		Category: flags.QueueCategory,
	}
	backlogFlag = &cli.IntFlag{
		Name:     "backlog",
		Usage:    "Maximum number of matches waiting for a worker",
		Value:    dispatch.DefaultConfig.Backlog,
		Category: flags.QueueCategory,
	}
	dropPolicyFlag = &cli.GenericFlag{
		Name:     "drop-policy",
		Usage:    `Overflow policy of a full backlog ("oldest" or "newest")`,
		Value:    &flags.TextValue{V: &dropPolicy},
		Category: flags.QueueCategory,
	}
	graceFlag = &cli.DurationFlag{
		Name:     "grace",
		Usage:    "Time in-flight matches are given to finish on shutdown",
		Value:    dispatch.DefaultConfig.Grace,
		Category: flags.QueueCategory,
	}

	// Networking settings
	bootnodesFlag = &cli.StringFlag{
		Name:     "bootnodes",
		Usage:    "Comma separated enode URLs for P2P discovery bootstrap",
		Category: flags.NetworkingCategory,
	}
	listenPortFlag = &cli.IntFlag{
		Name:     "port",
		Usage:    "Network listening port",
		Value:    30303,
		Category: flags.NetworkingCategory,
	}
	listenAddrFlag = &cli.StringFlag{
		Name:     "addr",
		Usage:    "Network listening address",
		Category: flags.NetworkingCategory,
	}
	maxPeersFlag = &cli.IntFlag{
		Name:     "maxpeers",
		Usage:    "Maximum number of network peers",
		Value:    120,
		Category: flags.NetworkingCategory,
	}
	natFlag = &cli.StringFlag{
		Name:     "nat",
		Usage:    "NAT port mapping mechanism (any|none|upnp|pmp|pmp:<IP>|extip:<IP>)",
		Value:    "any",
		Category: flags.NetworkingCategory,
	}
	nodeKeyFileFlag = &cli.StringFlag{
		Name:     "nodekey",
		Usage:    "P2P node key file",
		Category: flags.NetworkingCategory,
	}
	nodeKeyHexFlag = &cli.StringFlag{
		Name:     "nodekeyhex",
		Usage:    "P2P node key as hex (for testing)",
		Category: flags.NetworkingCategory,
	}
	networkIDFlag = &cli.Uint64Flag{
		Name:     "networkid",
		Usage:    "Network identifier announced in the eth handshake",
		Value:    1,
		Category: flags.NetworkingCategory,
	}
	forkIDFlag = &cli.StringFlag{
		Name:     "forkid",
		Usage:    "Fork identifier to announce as 0x<hash>[/<next>], disables remote fork validation (required on mainnet for forks newer than the bundled chain config)",
		Category: flags.NetworkingCategory,
	}

	// Metrics settings
	metricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	metricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Enable stand-alone metrics HTTP server listening interface",
		Category: flags.MetricsCategory,
	}
	metricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics HTTP server listening port",
		Value:    6060,
		Category: flags.MetricsCategory,
	}

	statsIntervalFlag = &cli.DurationFlag{
		Name:     "stats",
		Usage:    "Interval of the periodic status report (0 disables it)",
		Value:    time.Minute,
		Category: flags.LoggingCategory,
	}
)

var (
	monitorFlags = []cli.Flag{
		configFileFlag,
		targetFlag,
		selectorsFlag,
		codesFlag,
		knownTxsFlag,
		statsIntervalFlag,
	}
	queueFlags = []cli.Flag{
		workersFlag,
		backlogFlag,
		dropPolicyFlag,
		graceFlag,
	}
	networkFlags = []cli.Flag{
		bootnodesFlag,
		listenPortFlag,
		listenAddrFlag,
		maxPeersFlag,
		natFlag,
		nodeKeyFileFlag,
		nodeKeyHexFlag,
		networkIDFlag,
		forkIDFlag,
	}
	metricsFlags = []cli.Flag{
		metricsEnabledFlag,
		metricsHTTPFlag,
		metricsPortFlag,
	}
)

// splitAndTrim splits a comma separated list, dropping empty elements.
func splitAndTrim(input string) []string {
	var ret []string
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}
