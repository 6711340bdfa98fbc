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
	"sync/atomic"

	"github.com/ethereum/go-ethereum/metrics"
)

var (
	messageMeter      = metrics.NewRegisteredMeter("mempoolmon/msgs/in", nil)
	ignoredMeter      = metrics.NewRegisteredMeter("mempoolmon/msgs/ignored", nil)
	txMeter           = metrics.NewRegisteredMeter("mempoolmon/txs/in", nil)
	decodeFailMeter   = metrics.NewRegisteredMeter("mempoolmon/txs/decodefail", nil)
	matchMeter        = metrics.NewRegisteredMeter("mempoolmon/txs/match", nil)
	submitFailMeter   = metrics.NewRegisteredMeter("mempoolmon/txs/submitfail", nil)
	hashAnnounceMeter = metrics.NewRegisteredMeter("mempoolmon/hashes/in", nil)
	hashKnownMeter    = metrics.NewRegisteredMeter("mempoolmon/hashes/known", nil)
	hashRequestMeter  = metrics.NewRegisteredMeter("mempoolmon/hashes/requested", nil)
	requestFailMeter  = metrics.NewRegisteredMeter("mempoolmon/hashes/requestfail", nil)
)

// counters are the diagnostic counters of the message pipeline. They outlive
// individual start/stop cycles of the monitor.
type counters struct {
	messages       atomic.Uint64
	hashAnnounces  atomic.Uint64
	fullAnnounces  atomic.Uint64
	ignored        atomic.Uint64
	transactions   atomic.Uint64
	decodeFailures atomic.Uint64
	matches        atomic.Uint64
	submitted      atomic.Uint64
	submitFailures atomic.Uint64
	hashesKnown    atomic.Uint64
	hashesFetched  atomic.Uint64
	requestFails   atomic.Uint64
}
