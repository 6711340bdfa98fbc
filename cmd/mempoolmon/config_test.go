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
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/mempoolmon/dispatch"
	"github.com/ethereum/mempoolmon/internal/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// newContext builds a cli context with all the mempoolmon flags applied to the
// given arguments.
func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags.Merge(monitorFlags, queueFlags, networkFlags, metricsFlags) {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := makeConfig(newContext(t))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Monitor.Dispatch.Workers)
	assert.Equal(t, dispatch.DropOldest, cfg.Monitor.Dispatch.Policy)
	assert.Equal(t, ":30303", cfg.Network.ListenAddr)
	assert.Equal(t, 120, cfg.Network.MaxPeers)
	assert.Equal(t, "eth68", cfg.Monitor.Codes)
	assert.NotEmpty(t, cfg.Monitor.Bootnodes)
	assert.Nil(t, cfg.Network.PrivateKey)
}

func TestConfigFlags(t *testing.T) {
	ctx := newContext(t,
		"--selectors", "0x7ff36ab5, 0x18cbafe5,",
		"--workers", "4",
		"--drop-policy", "newest",
		"--grace", "2s",
		"--addr", "127.0.0.1",
		"--port", "30305",
		"--bootnodes", "",
		"--nodekeyhex", "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291",
	)
	cfg, err := makeConfig(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"0x7ff36ab5", "0x18cbafe5"}, cfg.Monitor.Selectors)
	assert.Equal(t, 4, cfg.Monitor.Dispatch.Workers)
	assert.Equal(t, dispatch.DropNewest, cfg.Monitor.Dispatch.Policy)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Dispatch.Grace)
	assert.Equal(t, "127.0.0.1:30305", cfg.Network.ListenAddr)
	assert.Empty(t, cfg.Monitor.Bootnodes)
	assert.NotNil(t, cfg.Network.PrivateKey)
}

func TestConfigNodeKeyExclusive(t *testing.T) {
	ctx := newContext(t, "--nodekey", "key.txt", "--nodekeyhex", "00")
	_, err := makeConfig(ctx)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestConfigFile(t *testing.T) {
	cfg := defaultConfig()
	cfg.Monitor.Target = "0x0000000000000000000000000000000000000001"
	cfg.Monitor.Dispatch.Policy = dispatch.DropNewest
	cfg.Network.MaxPeers = 10
	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, out, 0644))

	// Flags take precedence over the file.
	loaded, err := makeConfig(newContext(t, "--config", file, "--maxpeers", "20"))
	require.NoError(t, err)
	assert.Equal(t, cfg.Monitor.Target, loaded.Monitor.Target)
	assert.Equal(t, dispatch.DropNewest, loaded.Monitor.Dispatch.Policy)
	assert.Equal(t, 20, loaded.Network.MaxPeers)
}

func TestConfigFileUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Monitor]\nTarget = \"0x01\"\nWorkers = 3\n"), 0644))

	cfg := defaultConfig()
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Workers' is not defined")
}

func TestConfigLegacyCodesRejected(t *testing.T) {
	_, err := makeConfig(newContext(t, "--codes", "legacy"))
	assert.ErrorContains(t, err, `code set "legacy" is not supported`)

	_, err = makeConfig(newContext(t, "--codes", "eth68"))
	assert.NoError(t, err)
}
