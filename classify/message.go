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

// Package classify sorts inbound sub-protocol messages into the transaction
// propagation classes the monitor cares about.
package classify

import (
	"fmt"

	"github.com/ethereum/mempoolmon/session"
)

// Message codes of the eth/68 wire protocol that carry transactions.
const (
	TransactionsMsg               = 0x02
	NewPooledTransactionHashesMsg = 0x08
	GetPooledTransactionsMsg      = 0x09
	PooledTransactionsMsg         = 0x0a
)

// Message is a single frame received from a peer on a named sub-protocol.
type Message struct {
	Protocol string
	Code     uint64
	Payload  []byte

	// Peer is the session the frame arrived on. It is only used for logging and
	// follow-up requests; the session may already be closed when the message
	// is processed.
	Peer *session.Session
}

func (m *Message) String() string {
	return fmt.Sprintf("msg #%v (%v bytes)", m.Code, len(m.Payload))
}

// Kind identifies the variant of a Class.
type Kind int

const (
	KindOther Kind = iota
	KindTxHashes
	KindFullTxs
)

func (k Kind) String() string {
	switch k {
	case KindTxHashes:
		return "tx-hashes"
	case KindFullTxs:
		return "full-txs"
	default:
		return "other"
	}
}

// Class is the result of classifying a message. It is one of
// TxHashesAnnouncement, FullTxAnnouncement or Other.
type Class interface {
	Kind() Kind
}

// TxHashesAnnouncement announces transactions by hash only. The bodies have to
// be requested from the announcing peer.
type TxHashesAnnouncement struct {
	Payload []byte
}

// FullTxAnnouncement carries complete transaction bodies.
type FullTxAnnouncement struct {
	Payload []byte
}

// Other is any message the monitor has no use for.
type Other struct{}

func (TxHashesAnnouncement) Kind() Kind { return KindTxHashes }
func (FullTxAnnouncement) Kind() Kind   { return KindFullTxs }
func (Other) Kind() Kind                { return KindOther }
