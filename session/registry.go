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

package session

import (
	"bytes"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/p2p/enode"
)

var (
	peerGauge        = metrics.NewRegisteredGauge("mempoolmon/peers", nil)
	peerStaleMeter   = metrics.NewRegisteredMeter("mempoolmon/peers/stale", nil)
	peerAddedMeter   = metrics.NewRegisteredMeter("mempoolmon/peers/added", nil)
	peerDroppedMeter = metrics.NewRegisteredMeter("mempoolmon/peers/dropped", nil)
)

// EventType is the kind of change reported by the registry.
type EventType string

const (
	EventAdded   EventType = "add"
	EventRemoved EventType = "drop"
)

// Event is sent to subscribers whenever a session is registered or removed.
type Event struct {
	Type    EventType
	Peer    enode.ID
	Session *Session
}

// Registry is the set of active peer sessions, keyed by node id. All methods are
// safe for concurrent use and never fail: the inputs are best-effort telemetry
// coming from the session layer.
type Registry struct {
	lock     sync.RWMutex
	sessions map[enode.ID]*Session
	feed     event.FeedOf[Event]
	log      log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.Root()
	}
	return &Registry{
		sessions: make(map[enode.ID]*Session),
		log:      logger,
	}
}

// PeerAdded registers s as the active session for its node id. A session already
// present under the same id is considered stale: it is marked closed and replaced.
func (r *Registry) PeerAdded(s *Session) {
	s.SetState(StateActive)

	r.lock.Lock()
	stale := r.sessions[s.ID]
	r.sessions[s.ID] = s
	count := len(r.sessions)
	r.lock.Unlock()

	if stale != nil && stale != s {
		stale.SetState(StateClosed)
		peerStaleMeter.Mark(1)
		r.log.Warn("Replacing stale peer session", "id", s.ID, "old", stale.RemoteAddr, "new", s.RemoteAddr)
	}
	peerAddedMeter.Mark(1)
	peerGauge.Update(int64(count))
	r.log.Debug("Peer session added", "id", s.ID, "name", s.Name, "addr", s.RemoteAddr, "peers", count)

	r.feed.Send(Event{Type: EventAdded, Peer: s.ID, Session: s})
}

// PeerRemoved drops the session registered under id. Unknown ids are ignored.
func (r *Registry) PeerRemoved(id enode.ID) {
	r.lock.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	count := len(r.sessions)
	r.lock.Unlock()

	if !ok {
		return
	}
	s.SetState(StateClosed)
	peerDroppedMeter.Mark(1)
	peerGauge.Update(int64(count))
	r.log.Debug("Peer session removed", "id", id, "addr", s.RemoteAddr, "duration", s.age(), "peers", count)

	r.feed.Send(Event{Type: EventRemoved, Peer: id, Session: s})
}

// Lookup returns the session registered under id.
func (r *Registry) Lookup(id enode.ID) (*Session, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.sessions)
}

// Sessions returns a snapshot of all registered sessions ordered by node id.
func (r *Registry) Sessions() []*Session {
	r.lock.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.lock.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
	})
	return list
}

// Clear closes and removes every session. It is used on shutdown, after the
// session layer has stopped delivering events.
func (r *Registry) Clear() {
	r.lock.Lock()
	old := r.sessions
	r.sessions = make(map[enode.ID]*Session)
	r.lock.Unlock()

	for id, s := range old {
		s.SetState(StateClosed)
		r.feed.Send(Event{Type: EventRemoved, Peer: id, Session: s})
	}
	peerGauge.Update(0)
}

// SubscribeEvents subscribes the given channel to session changes. The channel
// should be buffered: a slow subscriber stalls the session layer.
func (r *Registry) SubscribeEvents(ch chan<- Event) event.Subscription {
	return r.feed.Subscribe(ch)
}
