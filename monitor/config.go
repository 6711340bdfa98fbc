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

package monitor

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/mempoolmon/dispatch"
)

var errInvalidSeed = errors.New("invalid seed")

// DefaultTarget is the router contract watched when none is configured.
const DefaultTarget = "0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af"

// DefaultSelectors are swapExactETHForTokens, swapExactTokensForETH and
// swapExactTokensForTokensSupportingFeeOnTransferTokens.
var DefaultSelectors = []string{"0x7ff36ab5", "0x18cbafe5", "0x5c11d795"}

// Seed describes a bootstrap peer used to join the network.
type Seed struct {
	ID      string // Hex encoded 64 byte secp256k1 public key
	Address string // IP address or host name
	UDP     int    // Discovery port
	TCP     int    // Listening port, defaults to UDP if zero
}

// Node converts the descriptor into a node record.
func (s Seed) Node() (*enode.Node, error) {
	blob, err := hexutil.Decode(ensurePrefix(s.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %v", errInvalidSeed, s.ID, err)
	}
	if len(blob) != 64 {
		return nil, fmt.Errorf("%w: id has %d bytes, want 64", errInvalidSeed, len(blob))
	}
	pub, err := crypto.UnmarshalPubkey(append([]byte{0x04}, blob...))
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %v", errInvalidSeed, s.ID, err)
	}
	// The cgo secp256k1 unmarshaller does not validate the point.
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("%w: id %q is not a point on secp256k1", errInvalidSeed, s.ID)
	}
	ip := net.ParseIP(s.Address)
	if ip == nil {
		addr, err := net.ResolveIPAddr("ip", s.Address)
		if err != nil {
			return nil, fmt.Errorf("%w: address %q: %v", errInvalidSeed, s.Address, err)
		}
		ip = addr.IP
	}
	if s.UDP <= 0 || s.UDP > 65535 {
		return nil, fmt.Errorf("%w: udp port %d", errInvalidSeed, s.UDP)
	}
	tcp := s.TCP
	if tcp == 0 {
		tcp = s.UDP
	}
	return enode.NewV4(pub, ip, tcp, s.UDP), nil
}

func ensurePrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}

// Config are the settings of the monitor.
type Config struct {
	// Target is the contract address calls are matched against.
	Target string

	// Selectors is the allow-set of 4 byte function selectors.
	Selectors []string

	// Codes names the message code assignment used to classify messages
	// (eth68 or legacy).
	Codes string

	// Seeds are bootstrap peers given as descriptors. They are contacted
	// before the Bootnodes.
	Seeds []Seed `toml:",omitempty"`

	// Bootnodes are bootstrap peers given as enode URLs.
	Bootnodes []string

	// KnownTxs is the number of transaction hashes remembered to avoid
	// requesting announced transactions twice.
	KnownTxs int

	// Dispatch configures the processing queue.
	Dispatch dispatch.Config

	Log log.Logger `toml:"-"`
}

// DefaultConfig contains the default monitor settings.
var DefaultConfig = Config{
	Target:    DefaultTarget,
	Selectors: DefaultSelectors,
	Codes:     "eth68",
	Bootnodes: params.MainnetBootnodes,
	KnownTxs:  32768,
	Dispatch:  dispatch.DefaultConfig,
}

// seedNodes resolves all configured bootstrap peers in order.
func (c *Config) seedNodes() ([]*enode.Node, error) {
	nodes := make([]*enode.Node, 0, len(c.Seeds)+len(c.Bootnodes))
	for i, seed := range c.Seeds {
		n, err := seed.Node()
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	for _, url := range c.Bootnodes {
		n, err := enode.Parse(enode.ValidSchemes, url)
		if err != nil {
			return nil, fmt.Errorf("%w: bootnode %q: %v", errInvalidSeed, url, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (c *Config) logger() log.Logger {
	if c.Log == nil {
		return log.Root()
	}
	return c.Log
}
