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

package classify

import (
	"fmt"
	"strings"
)

// CodeSet assigns message codes of the target protocol to transaction classes.
type CodeSet struct {
	Hashes []uint64 // codes announcing transaction hashes
	Full   []uint64 // codes carrying full transactions
}

var (
	// Eth68Codes is the code assignment of the eth/68 wire protocol.
	Eth68Codes = CodeSet{
		Hashes: []uint64{NewPooledTransactionHashesMsg},
		Full:   []uint64{TransactionsMsg, PooledTransactionsMsg},
	}

	// LegacyCodes is the numbering used by earlier monitors which treated code
	// 2 as a hash announcement and code 3 as a full transaction announcement.
	// It does not fit the eth/68 wire protocol, where 2 carries full
	// transactions and 3 is GetBlockHeaders, and only serves sessions
	// layers that renumber messages themselves.
	LegacyCodes = CodeSet{
		Hashes: []uint64{2},
		Full:   []uint64{3},
	}
)

// ParseCodeSet resolves a code set by name.
func ParseCodeSet(name string) (CodeSet, error) {
	switch strings.ToLower(name) {
	case "", "eth68":
		return Eth68Codes, nil
	case "legacy":
		return LegacyCodes, nil
	default:
		return CodeSet{}, fmt.Errorf("unknown code set %q (want eth68 or legacy)", name)
	}
}

// Classifier maps messages to classes by protocol name and message code. It
// holds no mutable state and is safe for concurrent use.
type Classifier struct {
	protocol string
	kinds    map[uint64]Kind
}

// New creates a classifier for the given sub-protocol. A code listed in both
// sets is treated as a full transaction announcement.
func New(protocol string, codes CodeSet) *Classifier {
	c := &Classifier{
		protocol: protocol,
		kinds:    make(map[uint64]Kind, len(codes.Hashes)+len(codes.Full)),
	}
	for _, code := range codes.Hashes {
		c.kinds[code] = KindTxHashes
	}
	for _, code := range codes.Full {
		c.kinds[code] = KindFullTxs
	}
	return c
}

// Protocol returns the sub-protocol name the classifier accepts.
func (c *Classifier) Protocol() string {
	return c.protocol
}

// Classify returns the class of msg. Messages of other protocols and unknown
// codes classify as Other.
func (c *Classifier) Classify(msg *Message) Class {
	if msg.Protocol != c.protocol {
		return Other{}
	}
	switch c.kinds[msg.Code] {
	case KindTxHashes:
		return TxHashesAnnouncement{Payload: msg.Payload}
	case KindFullTxs:
		return FullTxAnnouncement{Payload: msg.Payload}
	default:
		return Other{}
	}
}
