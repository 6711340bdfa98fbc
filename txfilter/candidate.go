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

// Package txfilter decodes propagated transactions and selects the ones calling
// a given contract with one of a set of function selectors.
package txfilter

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

var (
	ErrEmptyTx         = errors.New("empty transaction")
	ErrDecode          = errors.New("invalid transaction encoding")
	ErrInvalidSelector = errors.New("invalid function selector")
	ErrInvalidAddress  = errors.New("invalid contract address")
)

// Selector is the leading four bytes of a transaction's input data.
type Selector [4]byte

// ParseSelector parses a 0x-prefixed 4-byte hex string. Letter case is ignored.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if len(raw) != 2*len(sel) {
		return sel, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	if _, err := hex.Decode(sel[:], []byte(raw)); err != nil {
		return sel, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	return sel, nil
}

// Hex returns the 0x-prefixed lowercase hex encoding of the selector.
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) String() string {
	return s.Hex()
}

// Candidate is a decoded transaction awaiting the filter.
type Candidate struct {
	Raw   []byte
	Tx    *types.Transaction
	Hash  common.Hash
	To    *common.Address // nil for contract creation
	Data  []byte
	Value *uint256.Int

	Selector    Selector
	HasSelector bool // input data is at least four bytes long
}

// TryDecode decodes a single transaction. Both the canonical encoding (legacy
// RLP list or type-prefixed envelope) and the network encoding used inside
// eth protocol messages (envelope wrapped in an RLP string) are accepted.
func TryDecode(raw []byte) (*Candidate, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyTx
	}
	var (
		tx  = new(types.Transaction)
		err error
	)
	if raw[0] >= 0x80 && raw[0] < 0xc0 {
		err = rlp.DecodeBytes(raw, tx)
	} else {
		err = tx.UnmarshalBinary(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	value, overflow := uint256.FromBig(tx.Value())
	if overflow {
		return nil, fmt.Errorf("%w: value exceeds 256 bits", ErrDecode)
	}
	c := &Candidate{
		Raw:   raw,
		Tx:    tx,
		Hash:  tx.Hash(),
		To:    tx.To(),
		Data:  tx.Data(),
		Value: value,
	}
	if len(c.Data) >= len(c.Selector) {
		copy(c.Selector[:], c.Data)
		c.HasSelector = true
	}
	return c, nil
}

// pooledTransactions is the eth/66+ response envelope of a transaction request.
type pooledTransactions struct {
	RequestId uint64
	Txs       []rlp.RawValue
}

// SplitTransactions unpacks the transaction list of a full transaction
// announcement. Both the request/response form [request-id, [tx, ...]] and the
// broadcast form [tx, ...] are supported. The elements are not decoded.
func SplitTransactions(payload []byte) ([]rlp.RawValue, error) {
	var pooled pooledTransactions
	if err := rlp.DecodeBytes(payload, &pooled); err == nil {
		return pooled.Txs, nil
	}
	var txs []rlp.RawValue
	if err := rlp.DecodeBytes(payload, &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return txs, nil
}
