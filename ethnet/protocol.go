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

package ethnet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/forkid"
	"github.com/ethereum/go-ethereum/rlp"
)

// Constants to match up protocol versions and messages
const (
	ETH68 = 68
)

// ProtocolName is the official short name of the `eth` protocol used during
// devp2p capability negotiation.
const ProtocolName = "eth"

// protocolLength is the number of implemented messages of eth/68.
const protocolLength = 17

// maxMessageSize is the maximum cap on the size of a protocol message.
const maxMessageSize = 10 * 1024 * 1024

const (
	StatusMsg                     = 0x00
	NewBlockHashesMsg             = 0x01
	TransactionsMsg               = 0x02
	GetBlockHeadersMsg            = 0x03
	BlockHeadersMsg               = 0x04
	GetBlockBodiesMsg             = 0x05
	BlockBodiesMsg                = 0x06
	NewBlockMsg                   = 0x07
	NewPooledTransactionHashesMsg = 0x08
	GetPooledTransactionsMsg      = 0x09
	PooledTransactionsMsg         = 0x0a
	GetReceiptsMsg                = 0x0f
	ReceiptsMsg                   = 0x10
)

var (
	errNoStatusMsg             = errors.New("no status message")
	errMsgTooLarge             = errors.New("message too long")
	errDecode                  = errors.New("invalid message")
	errProtocolVersionMismatch = errors.New("protocol version mismatch")
	errNetworkIDMismatch       = errors.New("network ID mismatch")
	errGenesisMismatch         = errors.New("genesis mismatch")
	errForkIDRejected          = errors.New("fork ID rejected")
	errExtraStatusMsg          = errors.New("extra status message")
	errUnknownPeer             = errors.New("unknown peer")
)

// emptyResponses maps the data requests the monitor answers (without data) to
// the code of their reply.
var emptyResponses = map[uint64]uint64{
	GetBlockHeadersMsg:       BlockHeadersMsg,
	GetBlockBodiesMsg:        BlockBodiesMsg,
	GetPooledTransactionsMsg: PooledTransactionsMsg,
	GetReceiptsMsg:           ReceiptsMsg,
}

// StatusPacket is the network packet for the status message.
type StatusPacket struct {
	ProtocolVersion uint32
	NetworkID       uint64
	TD              *big.Int
	Head            common.Hash
	Genesis         common.Hash
	ForkID          forkid.ID
}

// requestHeader is the common prefix of all eth/66+ request packets. The query
// itself is kept opaque.
type requestHeader struct {
	RequestId uint64
	Query     rlp.RawValue
}

// emptyResponsePacket is a reply to a request carrying no items.
type emptyResponsePacket struct {
	RequestId uint64
	Items     []rlp.RawValue
}

// GetPooledTransactionsPacket represents a transaction query.
type GetPooledTransactionsPacket struct {
	RequestId uint64
	Hashes    []common.Hash
}

// NodeInfo represents a short summary of the `eth` sub-protocol metadata
// known about the host peer.
type NodeInfo struct {
	Network uint64      `json:"network"` // Ethereum network ID (1=Mainnet)
	Genesis common.Hash `json:"genesis"` // SHA3 hash of the host's genesis block
	Head    common.Hash `json:"head"`    // Hash advertised as the local head
	ForkID  string      `json:"forkid"`  // Fork identifier advertised in the handshake
}

func forkIDString(id forkid.ID) string {
	return fmt.Sprintf("%#x/%d", id.Hash, id.Next)
}
