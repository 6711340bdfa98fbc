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
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/mempoolmon/ethnet"
	"github.com/ethereum/mempoolmon/monitor"
)

// netBackend opens the devp2p components of the monitor.
type netBackend struct {
	cfg *ethnet.Config
}

func (b *netBackend) OpenDiscovery(seeds []*enode.Node) (monitor.Discovery, error) {
	disc, err := ethnet.ListenDiscovery(b.cfg, seeds)
	if err != nil {
		return nil, err
	}
	return disc, nil
}

func (b *netBackend) OpenSessions(nodes enode.Iterator, handler monitor.PeerHandler) (monitor.Sessions, error) {
	srv, err := ethnet.NewServer(b.cfg, handler, nodes)
	if err != nil {
		nodes.Close()
		return nil, err
	}
	if err := srv.Start(); err != nil {
		nodes.Close()
		return nil, err
	}
	return srv, nil
}
