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
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/mempoolmon/txfilter"
)

// Match is a transaction which passed the filter, together with where and when
// it was seen.
type Match struct {
	*txfilter.Candidate

	Peer     enode.ID  // Node the transaction was received from
	PeerName string    // Client name of that node
	Received time.Time // Time the carrying message was handled
}

// Processor is the downstream stage run on the dispatch queue for every match.
// Implementations must honour ctx cancellation on shutdown.
type Processor interface {
	Process(ctx context.Context, m *Match) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, m *Match) error

func (f ProcessorFunc) Process(ctx context.Context, m *Match) error {
	return f(ctx, m)
}

// LogProcessor reports every match as a log line.
type LogProcessor struct {
	Log log.Logger
}

func (p *LogProcessor) Process(ctx context.Context, m *Match) error {
	logger := p.Log
	if logger == nil {
		logger = log.Root()
	}
	logger.Info("Matched router call", "hash", m.Hash, "method", txfilter.MethodName(m.Selector),
		"to", m.To, "value", m.Value, "gasprice", m.Tx.GasFeeCap(), "nonce", m.Tx.Nonce(),
		"peer", m.Peer.TerminalString(), "client", m.PeerName, "delay", time.Since(m.Received))
	return nil
}
