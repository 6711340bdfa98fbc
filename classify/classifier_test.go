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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEth68(t *testing.T) {
	c := New("eth", Eth68Codes)
	payload := []byte{0xc0}

	tests := []struct {
		code uint64
		want Kind
	}{
		{0x00, KindOther},
		{TransactionsMsg, KindFullTxs},
		{0x03, KindOther},
		{NewPooledTransactionHashesMsg, KindTxHashes},
		{GetPooledTransactionsMsg, KindOther},
		{PooledTransactionsMsg, KindFullTxs},
		{0x11, KindOther},
	}
	for _, tt := range tests {
		class := c.Classify(&Message{Protocol: "eth", Code: tt.code, Payload: payload})
		assert.Equal(t, tt.want, class.Kind(), "code %#x", tt.code)
	}
}

func TestClassifyLegacyCodes(t *testing.T) {
	c := New("eth", LegacyCodes)

	class := c.Classify(&Message{Protocol: "eth", Code: 3, Payload: []byte{1, 2}})
	full, ok := class.(FullTxAnnouncement)
	require.True(t, ok, "got %T", class)
	assert.Equal(t, []byte{1, 2}, full.Payload)

	class = c.Classify(&Message{Protocol: "eth", Code: 2, Payload: []byte{3}})
	hashes, ok := class.(TxHashesAnnouncement)
	require.True(t, ok, "got %T", class)
	assert.Equal(t, []byte{3}, hashes.Payload)
}

func TestClassifyForeignProtocol(t *testing.T) {
	for _, codes := range []CodeSet{Eth68Codes, LegacyCodes} {
		c := New("eth", codes)
		for _, proto := range []string{"snap", "les", "ETH", ""} {
			for code := uint64(0); code < 32; code++ {
				class := c.Classify(&Message{Protocol: proto, Code: code})
				assert.Equal(t, KindOther, class.Kind(), "protocol %q code %d", proto, code)
			}
		}
	}
}

func TestParseCodeSet(t *testing.T) {
	set, err := ParseCodeSet("")
	require.NoError(t, err)
	assert.Equal(t, Eth68Codes, set)

	set, err = ParseCodeSet("Legacy")
	require.NoError(t, err)
	assert.Equal(t, LegacyCodes, set)

	_, err = ParseCodeSet("eth66")
	assert.Error(t, err)
}
