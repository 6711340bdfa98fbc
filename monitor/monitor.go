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

// Package monitor watches the transaction propagation traffic of the Ethereum
// network for calls into a target contract and dispatches every match to a
// bounded processing pipeline.
package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/mempoolmon/classify"
	"github.com/ethereum/mempoolmon/dispatch"
	"github.com/ethereum/mempoolmon/session"
	"github.com/ethereum/mempoolmon/txfilter"
	lru "github.com/hashicorp/golang-lru"
)

// State is the lifecycle state of a Monitor.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Discovery finds peers on the network.
type Discovery interface {
	// Bootstrap contacts a seed node. A failure only concerns that seed.
	Bootstrap(n *enode.Node) error

	// Nodes returns an iterator of dial candidates.
	Nodes() enode.Iterator

	// Self returns the local node record.
	Self() *enode.Node

	Close()
}

// PeerHandler receives the events of the session layer.
type PeerHandler interface {
	PeerAdded(s *session.Session)
	PeerRemoved(id enode.ID)
	HandleMessage(msg *classify.Message)
}

// Requester fetches announced transactions from the announcing peer.
type Requester interface {
	RequestTransactions(id enode.ID, hashes []common.Hash) error
}

// Sessions is the running session layer. It reports peers and messages to the
// PeerHandler it was opened with.
type Sessions interface {
	Requester
	Close()
}

// Backend opens the network components of the monitor.
type Backend interface {
	OpenDiscovery(seeds []*enode.Node) (Discovery, error)
	OpenSessions(nodes enode.Iterator, handler PeerHandler) (Sessions, error)
}

// Monitor is the session lifecycle controller. It owns the network handles,
// the peer registry and the dispatch queue of the current run.
type Monitor struct {
	cfg        *Config
	backend    Backend
	proc       Processor
	seeds      []*enode.Node
	filter     *txfilter.Filter
	classifier *classify.Classifier
	registry   *session.Registry
	stats      counters
	log        log.Logger

	startStop sync.Mutex // Serializes Start and Stop

	lock    sync.Mutex // Protects the fields below
	state   State
	disc    Discovery
	sess    Sessions
	queue   *dispatch.Queue
	handler *handler
}

// New validates the configuration and creates a stopped monitor. A nil
// processor logs every match.
func New(cfg *Config, backend Backend, proc Processor) (*Monitor, error) {
	logger := cfg.logger()

	filter, err := txfilter.NewFilter(cfg.Target, cfg.Selectors)
	if err != nil {
		return nil, err
	}
	codes, err := classify.ParseCodeSet(cfg.Codes)
	if err != nil {
		return nil, err
	}
	seeds, err := cfg.seedNodes()
	if err != nil {
		return nil, err
	}
	if cfg.KnownTxs <= 0 {
		cfg.KnownTxs = DefaultConfig.KnownTxs
	}
	if proc == nil {
		proc = &LogProcessor{Log: logger}
	}
	return &Monitor{
		cfg:        cfg,
		backend:    backend,
		proc:       proc,
		seeds:      seeds,
		filter:     filter,
		classifier: classify.New("eth", codes),
		registry:   session.NewRegistry(logger),
		log:        logger,
	}, nil
}

// Start brings the monitor online. It is a no-op if the monitor is running.
// Seeds are bootstrapped one after the other; a failing seed is logged and
// skipped. If any component fails to open, everything opened so far is
// released and the monitor stays stopped.
func (m *Monitor) Start() error {
	m.startStop.Lock()
	defer m.startStop.Unlock()

	if m.State() == Running {
		return nil
	}
	disc, err := m.backend.OpenDiscovery(m.seeds)
	if err != nil {
		return fmt.Errorf("failed to start discovery: %w", err)
	}
	known, err := lru.New(m.cfg.KnownTxs)
	if err != nil {
		disc.Close()
		return err
	}
	fetching, err := lru.New(m.cfg.KnownTxs)
	if err != nil {
		disc.Close()
		return err
	}
	qcfg := m.cfg.Dispatch
	if qcfg.Log == nil {
		qcfg.Log = m.log.New("module", "dispatch")
	}
	queue := dispatch.New(qcfg)

	h := &handler{
		registry:   m.registry,
		classifier: m.classifier,
		filter:     m.filter,
		queue:      queue,
		proc:       m.proc,
		known:      known,
		stats:      &m.stats,
		log:        m.log,

		fetching:     fetching,
		fetchTimeout: txFetchTimeout,
	}
	sess, err := m.backend.OpenSessions(disc.Nodes(), h)
	if err != nil {
		disc.Close()
		queue.Drain(context.Background())
		return fmt.Errorf("failed to start sessions: %w", err)
	}
	h.setRequester(sess)

	m.lock.Lock()
	m.disc, m.sess, m.queue, m.handler = disc, sess, queue, h
	m.lock.Unlock()

	m.bootstrap(disc)

	m.lock.Lock()
	m.state = Running
	m.lock.Unlock()
	m.log.Info("Mempool monitor started", "target", m.filter.Target(), "selectors", len(m.filter.Selectors()), "workers", qcfg.Workers)
	return nil
}

// bootstrap contacts every seed in order. Failures never stop the sequence.
func (m *Monitor) bootstrap(disc Discovery) {
	var failed int
	for i, seed := range m.seeds {
		if err := disc.Bootstrap(seed); err != nil {
			failed++
			m.log.Warn("Seed bootstrap failed", "index", i, "id", seed.ID().TerminalString(), "addr", seed.IP(), "err", err)
			continue
		}
		m.log.Debug("Seed bootstrapped", "index", i, "id", seed.ID().TerminalString(), "addr", seed.IP())
	}
	if len(m.seeds) > 0 && failed == len(m.seeds) {
		m.log.Warn("No seed node reachable, relying on discovery table", "seeds", len(m.seeds))
	}
}

// Stop takes the monitor offline. It is a no-op if the monitor is stopped.
// Sessions and discovery are closed first so no new work arrives, then the
// dispatch queue is drained within its grace period.
func (m *Monitor) Stop() error {
	m.startStop.Lock()
	defer m.startStop.Unlock()

	m.lock.Lock()
	if m.state == Stopped {
		m.lock.Unlock()
		return nil
	}
	sess, disc, queue := m.sess, m.disc, m.queue
	m.disc, m.sess, m.handler = nil, nil, nil
	m.lock.Unlock()

	sess.Close()
	disc.Close()
	if err := queue.Drain(context.Background()); err != nil {
		m.log.Warn("Abandoned processing tasks", "err", err)
	}
	m.registry.Clear()

	m.lock.Lock()
	m.state = Stopped
	m.lock.Unlock()
	m.log.Info("Mempool monitor stopped")
	return nil
}

// State returns the lifecycle state.
func (m *Monitor) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// Registry returns the peer registry.
func (m *Monitor) Registry() *session.Registry {
	return m.registry
}

// Peers returns a snapshot of the active peer sessions.
func (m *Monitor) Peers() []*session.Session {
	return m.registry.Sessions()
}

// Self returns the enode URL of the local node, or an empty string if the
// monitor is stopped.
func (m *Monitor) Self() string {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.disc == nil {
		return ""
	}
	return m.disc.Self().URLv4()
}

// Stats is a snapshot of the monitor's diagnostic counters.
type Stats struct {
	Messages            uint64 // Messages received on any protocol
	TxHashAnnouncements uint64
	FullTxAnnouncements uint64
	Ignored             uint64 // Messages classified as other
	Transactions        uint64 // Successfully decoded transactions
	DecodeFailures      uint64
	Matches             uint64
	Submitted           uint64 // Matches accepted by the dispatch queue
	SubmitFailures      uint64
	HashesKnown         uint64 // Announced hashes skipped as seen or already requested
	HashesRequested     uint64
	RequestFailures     uint64
	Peers               int
	Dispatch            dispatch.Stats // Counters of the current or last queue
}

// Stats returns the current counters.
func (m *Monitor) Stats() Stats {
	m.lock.Lock()
	queue := m.queue
	m.lock.Unlock()

	stats := Stats{
		Messages:            m.stats.messages.Load(),
		TxHashAnnouncements: m.stats.hashAnnounces.Load(),
		FullTxAnnouncements: m.stats.fullAnnounces.Load(),
		Ignored:             m.stats.ignored.Load(),
		Transactions:        m.stats.transactions.Load(),
		DecodeFailures:      m.stats.decodeFailures.Load(),
		Matches:             m.stats.matches.Load(),
		Submitted:           m.stats.submitted.Load(),
		SubmitFailures:      m.stats.submitFailures.Load(),
		HashesKnown:         m.stats.hashesKnown.Load(),
		HashesRequested:     m.stats.hashesFetched.Load(),
		RequestFailures:     m.stats.requestFails.Load(),
		Peers:               m.registry.Len(),
	}
	if queue != nil {
		stats.Dispatch = queue.Stats()
	}
	return stats
}
