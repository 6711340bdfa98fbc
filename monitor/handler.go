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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/mempoolmon/classify"
	"github.com/ethereum/mempoolmon/dispatch"
	"github.com/ethereum/mempoolmon/session"
	"github.com/ethereum/mempoolmon/txfilter"
	lru "github.com/hashicorp/golang-lru"
)

const (
	// maxTxRequest is the maximum number of hashes requested in a single
	// GetPooledTransactions message.
	maxTxRequest = 256

	// txFetchTimeout is how long a requested hash is left to the peer it was
	// requested from. After that another announcement may fetch it again.
	txFetchTimeout = 5 * time.Second
)

// newPooledTransactionHashesPacket68 is the eth/68 transaction announcement.
type newPooledTransactionHashesPacket68 struct {
	Types  []byte
	Sizes  []uint32
	Hashes []common.Hash
}

// handler is the message pipeline of one monitor run. It receives peer events
// and messages from the session layer, classifies and filters them, and feeds
// matches into the dispatch queue.
type handler struct {
	registry   *session.Registry
	classifier *classify.Classifier
	filter     *txfilter.Filter
	queue      *dispatch.Queue
	proc       Processor
	known      *lru.Cache // Hashes of transactions already decoded
	stats      *counters
	log        log.Logger

	fetchLock    sync.Mutex
	fetching     *lru.Cache // Requested hashes and the time of the request
	fetchTimeout time.Duration

	reqLock   sync.RWMutex
	requester Requester
}

func (h *handler) setRequester(r Requester) {
	h.reqLock.Lock()
	defer h.reqLock.Unlock()
	h.requester = r
}

func (h *handler) PeerAdded(s *session.Session) {
	h.registry.PeerAdded(s)
}

func (h *handler) PeerRemoved(id enode.ID) {
	h.registry.PeerRemoved(id)
}

// HandleMessage runs the pipeline for a single inbound message. It is called on
// the receiving peer's goroutine and never blocks on processing.
func (h *handler) HandleMessage(msg *classify.Message) {
	h.stats.messages.Add(1)
	messageMeter.Mark(1)

	switch class := h.classifier.Classify(msg).(type) {
	case classify.FullTxAnnouncement:
		h.stats.fullAnnounces.Add(1)
		h.handleTransactions(msg, class.Payload)
	case classify.TxHashesAnnouncement:
		h.stats.hashAnnounces.Add(1)
		h.handleHashes(msg, class.Payload)
	default:
		h.stats.ignored.Add(1)
		ignoredMeter.Mark(1)
		h.log.Trace("Ignoring message", "peer", peerString(msg), "proto", msg.Protocol, "code", msg.Code, "size", len(msg.Payload))
	}
}

// handleTransactions decodes a full transaction announcement and submits every
// transaction passing the filter.
func (h *handler) handleTransactions(msg *classify.Message, payload []byte) {
	raws, err := txfilter.SplitTransactions(payload)
	if err != nil {
		// Not a list; the payload may be a single typed transaction.
		if c, derr := txfilter.TryDecode(payload); derr == nil {
			h.handleCandidate(msg, c)
			return
		}
		h.decodeFailure(msg, err)
		return
	}
	for _, raw := range raws {
		c, err := txfilter.TryDecode(raw)
		if err != nil {
			h.decodeFailure(msg, err)
			continue
		}
		h.handleCandidate(msg, c)
	}
}

func (h *handler) decodeFailure(msg *classify.Message, err error) {
	h.stats.decodeFailures.Add(1)
	decodeFailMeter.Mark(1)
	h.log.Debug("Dropping undecodable transaction", "peer", peerString(msg), "code", msg.Code, "size", len(msg.Payload), "err", err)
}

func (h *handler) handleCandidate(msg *classify.Message, c *txfilter.Candidate) {
	h.stats.transactions.Add(1)
	txMeter.Mark(1)
	h.known.Add(c.Hash, nil)
	h.fetching.Remove(c.Hash)

	if !h.filter.Matches(c) {
		return
	}
	h.stats.matches.Add(1)
	matchMeter.Mark(1)

	match := &Match{Candidate: c, Received: time.Now()}
	if msg.Peer != nil {
		match.Peer = msg.Peer.ID
		match.PeerName = msg.Peer.Name
	}
	err := h.queue.Submit(func(ctx context.Context) error {
		return h.proc.Process(ctx, match)
	})
	if err != nil {
		h.stats.submitFailures.Add(1)
		submitFailMeter.Mark(1)
		h.log.Debug("Match not dispatched", "hash", c.Hash, "err", err)
		return
	}
	h.stats.submitted.Add(1)
	h.log.Debug("Dispatched matching transaction", "hash", c.Hash, "selector", c.Selector, "peer", peerString(msg))
}

// handleHashes requests the bodies of announced transactions that were neither
// seen nor requested recently. A hash is only reserved once its request went
// out; a failed request releases its hashes for other announcers.
func (h *handler) handleHashes(msg *classify.Message, payload []byte) {
	hashes, err := decodeAnnouncement(payload)
	if err != nil {
		h.decodeFailure(msg, err)
		return
	}
	hashAnnounceMeter.Mark(int64(len(hashes)))

	h.reqLock.RLock()
	requester := h.requester
	h.reqLock.RUnlock()
	if requester == nil || msg.Peer == nil {
		return
	}
	now := time.Now()
	unknown := make([]common.Hash, 0, len(hashes))
	for _, hash := range hashes {
		if !h.reserve(hash, now) {
			h.stats.hashesKnown.Add(1)
			hashKnownMeter.Mark(1)
			continue
		}
		unknown = append(unknown, hash)
	}
	for len(unknown) > 0 {
		batch := unknown
		if len(batch) > maxTxRequest {
			batch = batch[:maxTxRequest]
		}
		if err := requester.RequestTransactions(msg.Peer.ID, batch); err != nil {
			h.release(unknown)
			h.stats.requestFails.Add(1)
			requestFailMeter.Mark(1)
			h.log.Debug("Failed to request announced transactions", "peer", peerString(msg), "count", len(unknown), "err", err)
			return
		}
		unknown = unknown[len(batch):]
		h.stats.hashesFetched.Add(uint64(len(batch)))
		hashRequestMeter.Mark(int64(len(batch)))
	}
}

// reserve marks hash as being fetched. It reports false if the transaction was
// already decoded or an earlier request for it has not timed out yet.
func (h *handler) reserve(hash common.Hash, now time.Time) bool {
	if h.known.Contains(hash) {
		return false
	}
	h.fetchLock.Lock()
	defer h.fetchLock.Unlock()

	if at, ok := h.fetching.Get(hash); ok && now.Sub(at.(time.Time)) < h.fetchTimeout {
		return false
	}
	h.fetching.Add(hash, now)
	return true
}

// release forgets the reservations of hashes whose request failed.
func (h *handler) release(hashes []common.Hash) {
	for _, hash := range hashes {
		h.fetching.Remove(hash)
	}
}

// decodeAnnouncement extracts the announced hashes, accepting the eth/68 form
// and a plain hash list. Blob transactions are skipped, their bodies are never
// needed.
func decodeAnnouncement(payload []byte) ([]common.Hash, error) {
	var ann newPooledTransactionHashesPacket68
	if err := rlp.DecodeBytes(payload, &ann); err == nil {
		if len(ann.Types) != len(ann.Hashes) || len(ann.Sizes) != len(ann.Hashes) {
			return nil, fmt.Errorf("%w: announcement with %d types, %d sizes, %d hashes",
				txfilter.ErrDecode, len(ann.Types), len(ann.Sizes), len(ann.Hashes))
		}
		hashes := make([]common.Hash, 0, len(ann.Hashes))
		for i, hash := range ann.Hashes {
			if ann.Types[i] == types.BlobTxType {
				continue
			}
			hashes = append(hashes, hash)
		}
		return hashes, nil
	}
	var hashes []common.Hash
	if err := rlp.DecodeBytes(payload, &hashes); err != nil {
		return nil, fmt.Errorf("%w: %v", txfilter.ErrDecode, err)
	}
	return hashes, nil
}

func peerString(msg *classify.Message) string {
	if msg.Peer == nil {
		return "unknown"
	}
	return msg.Peer.TerminalString()
}
