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
	"fmt"
	"net"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedNode(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	id := fmt.Sprintf("%x", crypto.FromECDSAPub(&key.PublicKey)[1:])

	seed := Seed{ID: id, Address: "18.138.108.67", UDP: 30303}
	n, err := seed.Node()
	require.NoError(t, err)
	assert.Equal(t, enode.PubkeyToIDV4(&key.PublicKey), n.ID())
	assert.True(t, n.IP().Equal(net.ParseIP("18.138.108.67")))
	assert.Equal(t, 30303, n.UDP())
	assert.Equal(t, 30303, n.TCP(), "tcp port defaults to udp")

	seed = Seed{ID: "0x" + id, Address: "10.0.0.1", UDP: 30301, TCP: 30303}
	n, err = seed.Node()
	require.NoError(t, err)
	assert.Equal(t, 30301, n.UDP())
	assert.Equal(t, 30303, n.TCP())
}

func TestSeedNodeInvalid(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	id := fmt.Sprintf("%x", crypto.FromECDSAPub(&key.PublicKey)[1:])

	tests := []Seed{
		{ID: id[:64], Address: "10.0.0.1", UDP: 30303},
		{ID: "zz" + id[2:], Address: "10.0.0.1", UDP: 30303},
		{ID: id, Address: "10.0.0.1", UDP: 0},
		{ID: id, Address: "10.0.0.1", UDP: 70000},
		{ID: fmt.Sprintf("%064x", 1) + fmt.Sprintf("%064x", 1), Address: "10.0.0.1", UDP: 30303},
	}
	for i, seed := range tests {
		_, err := seed.Node()
		assert.ErrorIs(t, err, errInvalidSeed, "seed %d", i)
	}
}

func TestNewRejectsOffCurveSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seeds = []Seed{{ID: fmt.Sprintf("%0128x", 5), Address: "10.0.0.1", UDP: 30303}}

	_, err := New(cfg, new(fakeBackend), nil)
	assert.ErrorIs(t, err, errInvalidSeed)
}

func TestSeedOrder(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	id := fmt.Sprintf("%x", crypto.FromECDSAPub(&key.PublicKey)[1:])

	cfg := &Config{
		Seeds:     []Seed{{ID: id, Address: "10.0.0.1", UDP: 30303}},
		Bootnodes: params.MainnetBootnodes[:2],
	}
	nodes, err := cfg.seedNodes()
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, enode.PubkeyToIDV4(&key.PublicKey), nodes[0].ID())
	assert.Equal(t, enode.MustParse(params.MainnetBootnodes[0]).ID(), nodes[1].ID())
	assert.Equal(t, enode.MustParse(params.MainnetBootnodes[1]).ID(), nodes[2].ID())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig
	m, err := New(&cfg, new(fakeBackend), nil)
	require.NoError(t, err)
	assert.Len(t, m.seeds, len(params.MainnetBootnodes))
	assert.Len(t, m.filter.Selectors(), 3)
	assert.Equal(t, "eth", m.classifier.Protocol())
}
