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

package ethnet

import (
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/discover"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/p2p/enr"
	"github.com/ethereum/go-ethereum/p2p/nat"
)

// Discovery is a discv4 node used to find peers for the eth server.
type Discovery struct {
	udp   *discover.UDPv4
	db    *enode.DB
	local *enode.LocalNode
	log   log.Logger
}

// ListenDiscovery opens the UDP socket on the configured listen address and
// starts the discovery protocol. Seeds are used as table bootstrap nodes.
func ListenDiscovery(cfg *Config, seeds []*enode.Node) (*Discovery, error) {
	natm, err := cfg.nat()
	if err != nil {
		return nil, fmt.Errorf("invalid NAT setting %q: %w", cfg.NAT, err)
	}
	addr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	db, err := enode.OpenDB("")
	if err != nil {
		conn.Close()
		return nil, err
	}
	laddr := conn.LocalAddr().(*net.UDPAddr)

	local := enode.NewLocalNode(db, cfg.NodeKey())
	local.SetFallbackIP(net.IP{127, 0, 0, 1})
	local.SetFallbackUDP(laddr.Port)
	local.Set(enr.TCP(laddr.Port))
	if ip, ok := natm.(nat.ExtIP); ok {
		local.SetStaticIP(net.IP(ip))
	}
	logger := cfg.logger().New("proto", "discv4")

	udp, err := discover.ListenV4(conn, local, discover.Config{
		PrivateKey: cfg.NodeKey(),
		Bootnodes:  seeds,
		Log:        logger,
	})
	if err != nil {
		conn.Close()
		db.Close()
		return nil, err
	}
	logger.Debug("Discovery listening", "addr", laddr, "self", udp.Self().URLv4())
	return &Discovery{udp: udp, db: db, local: local, log: logger}, nil
}

// Bootstrap contacts a seed node and reports whether it answered.
func (d *Discovery) Bootstrap(n *enode.Node) error {
	if err := d.udp.Ping(n); err != nil {
		return fmt.Errorf("ping %v: %w", n.IP(), err)
	}
	return nil
}

// Nodes returns an endless iterator of random nodes from the discovery table.
func (d *Discovery) Nodes() enode.Iterator {
	return d.udp.RandomNodes()
}

// Self returns the local node record.
func (d *Discovery) Self() *enode.Node {
	return d.udp.Self()
}

// Close stops the discovery protocol and releases the socket.
func (d *Discovery) Close() {
	d.udp.Close()
	d.db.Close()
}
