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

package txfilter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// Filter matches candidates against a target contract and a selector allow-set.
// It is immutable after construction and safe for concurrent use.
type Filter struct {
	target    common.Address
	selectors mapset.Set[Selector]
}

// NewFilter creates a filter for calls to target using one of selectors. The
// address is lower-cased before parsing so checksummed and plain forms are
// equivalent.
func NewFilter(target string, selectors []string) (*Filter, error) {
	norm := strings.ToLower(strings.TrimSpace(target))
	if !common.IsHexAddress(norm) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, target)
	}
	set := mapset.NewThreadUnsafeSet[Selector]()
	for _, s := range selectors {
		sel, err := ParseSelector(s)
		if err != nil {
			return nil, err
		}
		set.Add(sel)
	}
	return &Filter{target: common.HexToAddress(norm), selectors: set}, nil
}

// Target returns the contract address calls are matched against.
func (f *Filter) Target() common.Address {
	return f.target
}

// Selectors returns the allow-set in ascending order.
func (f *Filter) Selectors() []Selector {
	list := f.selectors.ToSlice()
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i][:], list[j][:]) < 0
	})
	return list
}

// Matches reports whether c calls the filter's target with an allowed selector.
func (f *Filter) Matches(c *Candidate) bool {
	return Matches(c, f.target, f.selectors)
}

// Matches reports whether c is a call to target whose input data starts with a
// selector in the allow-set. Contract creations and calls with less than four
// bytes of input never match.
func Matches(c *Candidate, target common.Address, selectors mapset.Set[Selector]) bool {
	if c == nil || c.To == nil || !c.HasSelector {
		return false
	}
	if *c.To != target {
		return false
	}
	return selectors.Contains(c.Selector)
}
