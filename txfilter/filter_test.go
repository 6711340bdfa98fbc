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
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testKey, _   = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testSigner   = types.LatestSignerForChainID(big.NewInt(1))
	testRouter   = common.HexToAddress("0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af")
	swapETHInput = common.FromHex("0x7ff36ab50000000000000000000000000000000000000000000000000000000000000001")
)

func signedDynamicTx(t *testing.T, to *common.Address, data []byte) *types.Transaction {
	t.Helper()
	tx, err := types.SignNewTx(testKey, testSigner, &types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     7,
		GasTipCap: big.NewInt(1e9),
		GasFeeCap: big.NewInt(30e9),
		Gas:       200000,
		To:        to,
		Value:     big.NewInt(1e18),
		Data:      data,
	})
	require.NoError(t, err)
	return tx
}

func signedLegacyTx(t *testing.T, to *common.Address, data []byte) *types.Transaction {
	t.Helper()
	tx, err := types.SignNewTx(testKey, testSigner, &types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(20e9),
		Gas:      100000,
		To:       to,
		Value:    big.NewInt(5),
		Data:     data,
	})
	require.NoError(t, err)
	return tx
}

func TestTryDecodeEncodings(t *testing.T) {
	dynamic := signedDynamicTx(t, &testRouter, swapETHInput)
	legacy := signedLegacyTx(t, &testRouter, swapETHInput)

	dynamicBinary, err := dynamic.MarshalBinary()
	require.NoError(t, err)
	dynamicNetwork, err := rlp.EncodeToBytes(dynamic)
	require.NoError(t, err)
	legacyBinary, err := legacy.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  []byte
		tx   *types.Transaction
	}{
		{"typed binary", dynamicBinary, dynamic},
		{"typed network", dynamicNetwork, dynamic},
		{"legacy", legacyBinary, legacy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := TryDecode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.tx.Hash(), c.Hash)
			require.NotNil(t, c.To)
			assert.Equal(t, testRouter, *c.To)
			assert.True(t, c.HasSelector)
			assert.Equal(t, "0x7ff36ab5", c.Selector.Hex())
			assert.Zero(t, tt.tx.Value().Cmp(c.Value.ToBig()))
		})
	}
}

func TestTryDecodeFailures(t *testing.T) {
	raw, err := signedDynamicTx(t, &testRouter, swapETHInput).MarshalBinary()
	require.NoError(t, err)

	_, err = TryDecode(nil)
	assert.ErrorIs(t, err, ErrEmptyTx)

	_, err = TryDecode(raw[:len(raw)/2])
	assert.ErrorIs(t, err, ErrDecode)

	_, err = TryDecode([]byte{0x7f, 0x01, 0x02}) // unsupported type
	assert.ErrorIs(t, err, ErrDecode)
}

func TestTryDecodeContractCreation(t *testing.T) {
	raw, err := signedLegacyTx(t, nil, swapETHInput).MarshalBinary()
	require.NoError(t, err)

	c, err := TryDecode(raw)
	require.NoError(t, err)
	assert.Nil(t, c.To)
}

func TestSplitTransactions(t *testing.T) {
	txs := []*types.Transaction{
		signedDynamicTx(t, &testRouter, swapETHInput),
		signedLegacyTx(t, &testRouter, nil),
	}
	broadcast, err := rlp.EncodeToBytes(txs)
	require.NoError(t, err)
	pooled, err := rlp.EncodeToBytes(&struct {
		RequestId uint64
		Txs       []*types.Transaction
	}{RequestId: 1234, Txs: txs})
	require.NoError(t, err)

	for name, payload := range map[string][]byte{"broadcast": broadcast, "pooled": pooled} {
		raws, err := SplitTransactions(payload)
		require.NoError(t, err, name)
		require.Len(t, raws, len(txs), name)
		for i, raw := range raws {
			c, err := TryDecode(raw)
			require.NoError(t, err, name)
			assert.Equal(t, txs[i].Hash(), c.Hash, name)
		}
	}

	raws, err := SplitTransactions([]byte{0xc0})
	require.NoError(t, err)
	assert.Empty(t, raws)

	_, err = SplitTransactions(broadcast[:len(broadcast)-3])
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFilterMatches(t *testing.T) {
	f, err := NewFilter(testRouter.Hex(), []string{"0x7ff36ab5", "0x18CBAFE5"})
	require.NoError(t, err)

	other := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	tests := []struct {
		name string
		to   *common.Address
		data []byte
		want bool
	}{
		{"match", &testRouter, swapETHInput, true},
		{"upper-case selector in set", &testRouter, common.FromHex("0x18cbafe5"), true},
		{"selector not allowed", &testRouter, common.FromHex("0x38ed1739ff"), false},
		{"other contract", &other, swapETHInput, false},
		{"contract creation", nil, swapETHInput, false},
		{"short input", &testRouter, common.FromHex("0x7ff36a"), false},
		{"no input", &testRouter, nil, false},
	}
	for _, tt := range tests {
		raw, err := signedDynamicTx(t, tt.to, tt.data).MarshalBinary()
		require.NoError(t, err)
		c, err := TryDecode(raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.Matches(c), tt.name)
	}
	assert.False(t, f.Matches(nil))
}

func TestFilterAddressCaseInsensitive(t *testing.T) {
	selectors := []string{"0x7ff36ab5"}
	mixed := "0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af"

	lower, err := NewFilter(strings.ToLower(mixed), selectors)
	require.NoError(t, err)
	upper, err := NewFilter("0x"+strings.ToUpper(mixed[2:]), selectors)
	require.NoError(t, err)
	checksum, err := NewFilter(mixed, selectors)
	require.NoError(t, err)

	for _, to := range []*common.Address{&testRouter, nil, new(common.Address)} {
		raw, err := signedDynamicTx(t, to, swapETHInput).MarshalBinary()
		require.NoError(t, err)
		c, err := TryDecode(raw)
		require.NoError(t, err)

		want := lower.Matches(c)
		assert.Equal(t, want, upper.Matches(c))
		assert.Equal(t, want, checksum.Matches(c))
	}
	assert.Equal(t, lower.Target(), upper.Target())
}

func TestNewFilterValidation(t *testing.T) {
	_, err := NewFilter("0x1234", nil)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = NewFilter(testRouter.Hex(), []string{"0x7ff36a"})
	assert.ErrorIs(t, err, ErrInvalidSelector)

	_, err = NewFilter(testRouter.Hex(), []string{"0xzzzzzzzz"})
	assert.ErrorIs(t, err, ErrInvalidSelector)

	f, err := NewFilter(testRouter.Hex(), []string{"0x7ff36ab5", "7FF36AB5", "0x18cbafe5"})
	require.NoError(t, err)
	sels := f.Selectors()
	require.Len(t, sels, 2)
	assert.Equal(t, "0x18cbafe5", sels[0].Hex())
	assert.Equal(t, "0x7ff36ab5", sels[1].Hex())
}

func TestMethodName(t *testing.T) {
	sel, err := ParseSelector("0x7ff36ab5")
	require.NoError(t, err)
	assert.Equal(t, "swapExactETHForTokens", MethodName(sel))

	sel, err = ParseSelector("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", MethodName(sel))
}
