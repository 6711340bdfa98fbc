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
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"reflect"
	"strconv"
	"unicode"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/mempoolmon/classify"
	"github.com/ethereum/mempoolmon/dispatch"
	"github.com/ethereum/mempoolmon/ethnet"
	"github.com/ethereum/mempoolmon/internal/flags"
	"github.com/ethereum/mempoolmon/monitor"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

var dumpConfigCommand = &cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Export configuration values in a TOML format",
	ArgsUsage:   "<dumpfile (optional)>",
	Flags:       flags.Merge(monitorFlags, queueFlags, networkFlags, metricsFlags),
	Description: `Export configuration values in TOML format (to stdout by default).`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type metricsConfig struct {
	Enabled bool
	HTTP    string
	Port    int
}

type mempoolmonConfig struct {
	Monitor monitor.Config
	Network ethnet.Config
	Metrics metricsConfig
}

func defaultConfig() mempoolmonConfig {
	cfg := mempoolmonConfig{
		Monitor: monitor.DefaultConfig,
		Network: ethnet.DefaultConfig,
		Metrics: metricsConfig{Port: 6060},
	}
	cfg.Monitor.Selectors = append([]string(nil), monitor.DefaultSelectors...)
	cfg.Monitor.Bootnodes = append([]string(nil), monitor.DefaultConfig.Bootnodes...)
	return cfg
}

func loadConfig(file string, cfg *mempoolmonConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig assembles the effective configuration: defaults first, then the
// config file, then any command line flags that were set explicitly.
func makeConfig(ctx *cli.Context) (*mempoolmonConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
	}
	setMonitor(ctx, &cfg.Monitor)
	setDispatch(ctx, &cfg.Monitor.Dispatch)
	if err := setNetwork(ctx, &cfg.Network); err != nil {
		return nil, err
	}
	setMetrics(ctx, &cfg.Metrics)
	if err := checkCodes(&cfg.Monitor); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkCodes rejects code sets the eth server cannot deliver. The server
// forwards eth/68 numbered messages only.
func checkCodes(cfg *monitor.Config) error {
	codes, err := classify.ParseCodeSet(cfg.Codes)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(codes, classify.Eth68Codes) {
		return fmt.Errorf("code set %q is not supported by the eth/%d server", cfg.Codes, ethnet.ETH68)
	}
	return nil
}

func setMonitor(ctx *cli.Context, cfg *monitor.Config) {
	if ctx.IsSet(targetFlag.Name) {
		cfg.Target = ctx.String(targetFlag.Name)
	}
	if ctx.IsSet(selectorsFlag.Name) {
		cfg.Selectors = splitAndTrim(ctx.String(selectorsFlag.Name))
	}
	if ctx.IsSet(codesFlag.Name) {
		cfg.Codes = ctx.String(codesFlag.Name)
	}
	if ctx.IsSet(knownTxsFlag.Name) {
		cfg.KnownTxs = ctx.Int(knownTxsFlag.Name)
	}
	if ctx.IsSet(bootnodesFlag.Name) {
		cfg.Bootnodes = splitAndTrim(ctx.String(bootnodesFlag.Name))
	}
}

func setDispatch(ctx *cli.Context, cfg *dispatch.Config) {
	if ctx.IsSet(workersFlag.Name) {
		cfg.Workers = ctx.Int(workersFlag.Name)
	}
	if ctx.IsSet(backlogFlag.Name) {
		cfg.Backlog = ctx.Int(backlogFlag.Name)
	}
	if ctx.IsSet(dropPolicyFlag.Name) {
		cfg.Policy = *flags.GlobalText(ctx, dropPolicyFlag.Name).(*dispatch.Policy)
	}
	if ctx.IsSet(graceFlag.Name) {
		cfg.Grace = ctx.Duration(graceFlag.Name)
	}
}

func setNetwork(ctx *cli.Context, cfg *ethnet.Config) error {
	if ctx.IsSet(listenAddrFlag.Name) || ctx.IsSet(listenPortFlag.Name) {
		host, port, err := net.SplitHostPort(cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %v", cfg.ListenAddr, err)
		}
		if ctx.IsSet(listenAddrFlag.Name) {
			host = ctx.String(listenAddrFlag.Name)
		}
		if ctx.IsSet(listenPortFlag.Name) {
			port = strconv.Itoa(ctx.Int(listenPortFlag.Name))
		}
		cfg.ListenAddr = net.JoinHostPort(host, port)
	}
	if ctx.IsSet(maxPeersFlag.Name) {
		cfg.MaxPeers = ctx.Int(maxPeersFlag.Name)
	}
	if ctx.IsSet(natFlag.Name) {
		cfg.NAT = ctx.String(natFlag.Name)
	}
	if ctx.IsSet(networkIDFlag.Name) {
		cfg.NetworkID = ctx.Uint64(networkIDFlag.Name)
	}
	if ctx.IsSet(forkIDFlag.Name) {
		cfg.ForkID = ctx.String(forkIDFlag.Name)
	}
	return setNodeKey(ctx, cfg)
}

// setNodeKey loads a node key from the command line flags if provided.
func setNodeKey(ctx *cli.Context, cfg *ethnet.Config) error {
	var (
		hex  = ctx.String(nodeKeyHexFlag.Name)
		file = ctx.String(nodeKeyFileFlag.Name)
	)
	switch {
	case file != "" && hex != "":
		return fmt.Errorf("options %q and %q are mutually exclusive", nodeKeyFileFlag.Name, nodeKeyHexFlag.Name)
	case file != "":
		key, err := crypto.LoadECDSA(flags.ExpandPath(file))
		if err != nil {
			return fmt.Errorf("option %q: %v", nodeKeyFileFlag.Name, err)
		}
		cfg.PrivateKey = key
	case hex != "":
		key, err := crypto.HexToECDSA(hex)
		if err != nil {
			return fmt.Errorf("option %q: %v", nodeKeyHexFlag.Name, err)
		}
		cfg.PrivateKey = key
	}
	return nil
}

func setMetrics(ctx *cli.Context, cfg *metricsConfig) {
	if ctx.IsSet(metricsEnabledFlag.Name) {
		cfg.Enabled = ctx.Bool(metricsEnabledFlag.Name)
	}
	if ctx.IsSet(metricsHTTPFlag.Name) {
		cfg.HTTP = ctx.String(metricsHTTPFlag.Name)
	}
	if ctx.IsSet(metricsPortFlag.Name) {
		cfg.Port = ctx.Int(metricsPortFlag.Name)
	}
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = dump.Write(out)
	return err
}
