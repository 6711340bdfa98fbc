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

// Package dispatch implements a bounded worker pool which runs processing tasks
// in arrival order with a fixed concurrency ceiling.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/gammazero/deque"
	"golang.org/x/time/rate"
)

var (
	ErrQueueClosed  = errors.New("dispatch queue closed")
	ErrQueueFull    = errors.New("dispatch backlog full")
	ErrDrainTimeout = errors.New("dispatch drain timed out")

	// ErrRetry may be returned (or wrapped) by a task to ask for one more
	// attempt. The task is re-queued at the back of the backlog.
	ErrRetry = errors.New("retry requested")

	errTaskPanic = errors.New("task panicked")
)

var (
	submitMeter   = metrics.NewRegisteredMeter("mempoolmon/dispatch/submit", nil)
	dropMeter     = metrics.NewRegisteredMeter("mempoolmon/dispatch/drop", nil)
	rejectMeter   = metrics.NewRegisteredMeter("mempoolmon/dispatch/reject", nil)
	failMeter     = metrics.NewRegisteredMeter("mempoolmon/dispatch/fail", nil)
	pendingGauge  = metrics.NewRegisteredGauge("mempoolmon/dispatch/pending", nil)
	activeGauge   = metrics.NewRegisteredGauge("mempoolmon/dispatch/active", nil)
	waitTimer     = metrics.NewRegisteredTimer("mempoolmon/dispatch/wait", nil)
	durationTimer = metrics.NewRegisteredTimer("mempoolmon/dispatch/duration", nil)
)

// Task is a unit of work run by the queue. The context is cancelled when the
// queue gives up waiting for accepted work during Drain.
type Task func(ctx context.Context) error

// Policy decides what happens to a submission when the backlog is full.
type Policy int

const (
	// DropOldest evicts the oldest pending task to make room.
	DropOldest Policy = iota
	// DropNewest rejects the new submission with ErrQueueFull.
	DropNewest
)

func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "oldest"
	case DropNewest:
		return "newest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses "oldest" or "newest".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oldest", "drop-oldest":
		return DropOldest, nil
	case "newest", "drop-newest", "reject":
		return DropNewest, nil
	default:
		return DropOldest, fmt.Errorf("unknown drop policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	policy, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// Config are the settings of a Queue.
type Config struct {
	Workers int           // Maximum number of concurrently running tasks
	Backlog int           // Maximum number of pending tasks
	Policy  Policy        // Behaviour on a full backlog
	Grace   time.Duration // Time Drain waits for accepted tasks to finish

	Log log.Logger `toml:"-"`
}

// DefaultConfig contains the default queue settings.
var DefaultConfig = Config{
	Workers: 8,
	Backlog: 4096,
	Policy:  DropOldest,
	Grace:   5 * time.Second,
}

func (cfg Config) withDefaults() Config {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig.Workers
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultConfig.Backlog
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultConfig.Grace
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return cfg
}

type job struct {
	task    Task
	queued  time.Time
	retried bool
}

// Queue runs submitted tasks on a fixed set of workers. Tasks start in
// submission order; completion order is unspecified.
type Queue struct {
	cfg Config
	log log.Logger

	lock      sync.Mutex
	cond      *sync.Cond
	backlog   *deque.Deque[*job]
	closed    bool // no new submissions
	abandoned bool // grace period over, backlog discarded

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	dropLog *rate.Limiter
	stats   counters
}

type counters struct {
	submitted, started, completed atomic.Uint64
	failed, panicked, retried     atomic.Uint64
	dropped, rejected             atomic.Uint64
	active, peak                  atomic.Int64
}

// New creates a queue and starts its workers.
func New(cfg Config) *Queue {
	cfg = cfg.withDefaults()
	q := &Queue{
		cfg:     cfg,
		log:     cfg.Log,
		backlog: deque.New[*job](),
		done:    make(chan struct{}),
		dropLog: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	q.cond = sync.NewCond(&q.lock)
	q.ctx, q.cancel = context.WithCancel(context.Background())

	q.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go q.worker()
	}
	go func() {
		q.wg.Wait()
		close(q.done)
	}()
	return q
}

// Submit queues a task. It never blocks. If the backlog is full the configured
// policy either evicts the oldest pending task or rejects this one.
func (q *Queue) Submit(task Task) error {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		q.stats.rejected.Add(1)
		rejectMeter.Mark(1)
		return ErrQueueClosed
	}
	var evicted *job
	if q.backlog.Len() >= q.cfg.Backlog {
		if q.cfg.Policy == DropNewest {
			q.lock.Unlock()
			q.stats.rejected.Add(1)
			rejectMeter.Mark(1)
			if q.dropLog.Allow() {
				q.log.Warn("Dispatch backlog full, rejecting task", "backlog", q.cfg.Backlog, "rejected", q.stats.rejected.Load())
			}
			return ErrQueueFull
		}
		evicted = q.backlog.PopFront()
	}
	q.backlog.PushBack(&job{task: task, queued: time.Now()})
	pending := q.backlog.Len()
	q.lock.Unlock()
	q.cond.Signal()

	q.stats.submitted.Add(1)
	submitMeter.Mark(1)
	pendingGauge.Update(int64(pending))

	if evicted != nil {
		q.stats.dropped.Add(1)
		dropMeter.Mark(1)
		if q.dropLog.Allow() {
			q.log.Warn("Dispatch backlog full, dropped oldest task", "age", time.Since(evicted.queued), "backlog", q.cfg.Backlog, "dropped", q.stats.dropped.Load())
		}
	}
	return nil
}

// worker pulls tasks off the backlog. After Drain it keeps going until the
// backlog is empty, or until the queue is abandoned.
func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		q.lock.Lock()
		for q.backlog.Len() == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.backlog.Len() == 0 || q.abandoned {
			q.lock.Unlock()
			return
		}
		j := q.backlog.PopFront()
		pendingGauge.Update(int64(q.backlog.Len()))
		q.lock.Unlock()

		q.run(j)
	}
}

func (q *Queue) run(j *job) {
	waitTimer.UpdateSince(j.queued)

	active := q.stats.active.Add(1)
	activeGauge.Update(active)
	for {
		peak := q.stats.peak.Load()
		if active <= peak || q.stats.peak.CompareAndSwap(peak, active) {
			break
		}
	}
	q.stats.started.Add(1)

	start := time.Now()
	err := q.execute(j.task)
	durationTimer.UpdateSince(start)

	activeGauge.Update(q.stats.active.Add(-1))

	switch {
	case err == nil:
		q.stats.completed.Add(1)
	case errors.Is(err, ErrRetry) && !j.retried:
		j.retried = true
		q.stats.retried.Add(1)
		if !q.requeue(j) {
			q.fail(err)
		}
	default:
		q.fail(err)
	}
}

// execute runs a task, converting a panic into an error.
func (q *Queue) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.stats.panicked.Add(1)
			q.log.Error("Dispatch task panicked", "err", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", errTaskPanic, r)
		}
	}()
	return task(q.ctx)
}

func (q *Queue) fail(err error) {
	q.stats.failed.Add(1)
	failMeter.Mark(1)
	if !errors.Is(err, errTaskPanic) && q.ctx.Err() == nil {
		q.log.Warn("Dispatch task failed", "err", err)
	}
}

// requeue puts a retried job at the back of the backlog. It reports false if
// the queue was abandoned or is full.
func (q *Queue) requeue(j *job) bool {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.abandoned || q.backlog.Len() >= q.cfg.Backlog {
		return false
	}
	j.queued = time.Now()
	q.backlog.PushBack(j)
	q.cond.Signal()
	return true
}

// Drain stops the queue. New submissions are rejected, while tasks already
// accepted keep running until the backlog is empty. The whole backlog is given
// the configured grace period (bounded by ctx) to finish. After that the task
// context is cancelled, tasks still pending are discarded and Drain returns
// ErrDrainTimeout without waiting for the in-flight ones. Drain may be called
// multiple times.
func (q *Queue) Drain(ctx context.Context) error {
	q.lock.Lock()
	if !q.closed {
		q.closed = true
		q.log.Debug("Draining dispatch queue", "pending", q.backlog.Len(), "active", q.stats.active.Load())
	}
	q.lock.Unlock()
	q.cond.Broadcast()

	timer := time.NewTimer(q.cfg.Grace)
	defer timer.Stop()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}
	q.abandon()
	return ErrDrainTimeout
}

// abandon cancels the running tasks and discards the ones not yet started.
func (q *Queue) abandon() {
	q.lock.Lock()
	q.abandoned = true
	n := q.backlog.Len()
	q.backlog.Clear()
	q.lock.Unlock()
	q.cond.Broadcast()
	q.cancel()

	if n > 0 {
		q.stats.dropped.Add(uint64(n))
		dropMeter.Mark(int64(n))
	}
	pendingGauge.Update(0)
	q.log.Warn("Abandoning dispatch tasks", "active", q.stats.active.Load(), "discarded", n, "grace", q.cfg.Grace)
}

// Done returns a channel which is closed once every worker has exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Stats is a snapshot of the queue counters.
type Stats struct {
	Submitted  uint64
	Started    uint64
	Completed  uint64
	Failed     uint64
	Panicked   uint64
	Retried    uint64
	Dropped    uint64
	Rejected   uint64
	Pending    int
	Active     int64
	PeakActive int64
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	q.lock.Lock()
	pending := q.backlog.Len()
	q.lock.Unlock()

	return Stats{
		Submitted:  q.stats.submitted.Load(),
		Started:    q.stats.started.Load(),
		Completed:  q.stats.completed.Load(),
		Failed:     q.stats.failed.Load(),
		Panicked:   q.stats.panicked.Load(),
		Retried:    q.stats.retried.Load(),
		Dropped:    q.stats.dropped.Load(),
		Rejected:   q.stats.rejected.Load(),
		Pending:    pending,
		Active:     q.stats.active.Load(),
		PeakActive: q.stats.peak.Load(),
	}
}
