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

// Package session tracks the devp2p peers the monitor is currently connected to.
package session

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/p2p/enode"
)

// State is the connection state of a peer session.
type State uint32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// Session is a logical connection to a remote node speaking the eth protocol.
type Session struct {
	ID         enode.ID // Node id derived from the remote public key
	Name       string   // Client identity string advertised in the devp2p hello
	RemoteAddr net.Addr // Address of the underlying TCP connection
	TCP        int      // Advertised TCP port, 0 if unknown
	UDP        int      // Advertised discovery port, 0 if unknown
	Version    uint     // Negotiated eth protocol version
	Since      time.Time

	state atomic.Uint32
}

// New creates a session in the connecting state.
func New(id enode.ID, name string, addr net.Addr, tcp, udp int) *Session {
	return &Session{
		ID:         id,
		Name:       name,
		RemoteAddr: addr,
		TCP:        tcp,
		UDP:        udp,
		Since:      time.Now(),
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// SetState transitions the session. Closed is terminal.
func (s *Session) SetState(st State) {
	for {
		cur := s.state.Load()
		if State(cur) == StateClosed {
			return
		}
		if s.state.CompareAndSwap(cur, uint32(st)) {
			return
		}
	}
}

// TerminalString returns a short identifier suitable for log output.
func (s *Session) TerminalString() string {
	if s.RemoteAddr == nil {
		return s.ID.TerminalString()
	}
	return fmt.Sprintf("%s@%v", s.ID.TerminalString(), s.RemoteAddr)
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{id=%x name=%q addr=%v tcp=%d udp=%d state=%v}", s.ID[:8], s.Name, s.RemoteAddr, s.TCP, s.UDP, s.State())
}

func (s *Session) age() time.Duration {
	return time.Since(s.Since).Round(time.Millisecond)
}
