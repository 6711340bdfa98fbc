// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package ethnet connects the monitor to the Ethereum devp2p network: it runs
// a discv4 node for peer discovery and a p2p server speaking the eth protocol
// just far enough to receive transaction propagation traffic.
package ethnet

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/forkid"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/nat"
)

// Config are the devp2p settings of the monitor.
type Config struct {
	// Name is the client identity advertised in the devp2p hello.
	Name string `toml:"-"`

	// ListenAddr is the TCP and UDP address the node listens on.
	ListenAddr string

	// MaxPeers is the maximum number of connected peers.
	MaxPeers int

	// NAT is the port mapping mechanism (any|none|upnp|pmp|extip:<IP>).
	NAT string

	// NetworkID is announced in the eth handshake. Peers on other networks
	// are disconnected.
	NetworkID uint64

	// ForkID overrides the fork identifier advertised in the handshake, given
	// as "0x<hash>" or "0x<hash>/<next>". When set, the remote fork id is not
	// validated either. Without it the fork id is derived from the chain
	// configuration bundled with go-ethereum, which lags the live network
	// once it forks again. Only eth/68 is offered in the handshake.
	ForkID string `toml:",omitempty"`

	// PrivateKey is the node key. A random key is generated if unset.
	PrivateKey *ecdsa.PrivateKey `toml:"-"`

	// Genesis is the chain the monitor claims to follow. Defaults to mainnet.
	Genesis *core.Genesis `toml:"-"`

	Log log.Logger `toml:"-"`
}

// DefaultConfig contains the default network settings.
var DefaultConfig = Config{
	ListenAddr: ":30303",
	MaxPeers:   120,
	NAT:        "any",
	NetworkID:  1,
}

// NodeKey retrieves the configured private key of the node, generating a
// throwaway one if none was given.
func (c *Config) NodeKey() *ecdsa.PrivateKey {
	if c.PrivateKey != nil {
		return c.PrivateKey
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		log.Crit("Failed to generate ephemeral node key", "err", err)
	}
	c.PrivateKey = key
	return key
}

func (c *Config) logger() log.Logger {
	if c.Log == nil {
		return log.Root()
	}
	return c.Log
}

func (c *Config) genesis() *core.Genesis {
	if c.Genesis == nil {
		return core.DefaultGenesisBlock()
	}
	return c.Genesis
}

// forkID parses the fork id override. A nil id means none is configured.
func (c *Config) forkID() (*forkid.ID, error) {
	if c.ForkID == "" {
		return nil, nil
	}
	hash, next, _ := strings.Cut(c.ForkID, "/")
	blob, err := hexutil.Decode(hash)
	if err != nil || len(blob) != 4 {
		return nil, fmt.Errorf("invalid fork hash %q", hash)
	}
	id := new(forkid.ID)
	copy(id.Hash[:], blob)
	if next != "" {
		if id.Next, err = strconv.ParseUint(next, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid fork next %q: %v", next, err)
		}
	}
	return id, nil
}

func (c *Config) nat() (nat.Interface, error) {
	return nat.Parse(c.NAT)
}
