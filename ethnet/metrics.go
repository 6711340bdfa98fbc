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

	"github.com/ethereum/go-ethereum/metrics"
)

// meters stores ingress and egress handshake meters.
var meters bidirectionalMeters

// bidirectionalMeters stores ingress and egress handshake meters.
type bidirectionalMeters struct {
	ingress *hsMeters
	egress  *hsMeters
}

// get returns the corresponding meter depending if ingress or egress is
// desired.
func (h *bidirectionalMeters) get(ingress bool) *hsMeters {
	if ingress {
		return h.ingress
	}
	return h.egress
}

// meter is the subset of the metrics meter API used here.
type meter interface {
	Mark(n int64)
}

// hsMeters is a collection of meters which track the outcome of eth
// handshakes.
type hsMeters struct {
	peerError               meter
	timeoutError            meter
	networkIDMismatch       meter
	protocolVersionMismatch meter
	genesisMismatch         meter
	forkidRejected          meter
}

func newHandshakeMeters(base string) *hsMeters {
	return &hsMeters{
		peerError:               metrics.NewRegisteredMeter(base+"error/peer", nil),
		timeoutError:            metrics.NewRegisteredMeter(base+"error/timeout", nil),
		networkIDMismatch:       metrics.NewRegisteredMeter(base+"error/network", nil),
		protocolVersionMismatch: metrics.NewRegisteredMeter(base+"error/version", nil),
		genesisMismatch:         metrics.NewRegisteredMeter(base+"error/genesis", nil),
		forkidRejected:          metrics.NewRegisteredMeter(base+"error/forkid", nil),
	}
}

// markError registers the handshake failure in the matching meter.
func (m *hsMeters) markError(err error) {
	switch {
	case errors.Is(err, errNetworkIDMismatch):
		m.networkIDMismatch.Mark(1)
	case errors.Is(err, errProtocolVersionMismatch):
		m.protocolVersionMismatch.Mark(1)
	case errors.Is(err, errGenesisMismatch):
		m.genesisMismatch.Mark(1)
	case errors.Is(err, errForkIDRejected):
		m.forkidRejected.Mark(1)
	default:
		m.peerError.Mark(1)
	}
}

var (
	ingressTrafficMeter = metrics.NewRegisteredMeter("mempoolmon/eth/ingress/traffic", nil)
	requestMeter        = metrics.NewRegisteredMeter("mempoolmon/eth/egress/pooledtx/requests", nil)
	emptyReplyMeter     = metrics.NewRegisteredMeter("mempoolmon/eth/egress/empty", nil)
)

func init() {
	meters = bidirectionalMeters{
		ingress: newHandshakeMeters("mempoolmon/eth/ingress/handshake/"),
		egress:  newHandshakeMeters("mempoolmon/eth/egress/handshake/"),
	}
}
