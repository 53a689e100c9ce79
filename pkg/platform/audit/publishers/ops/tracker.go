// Package ops provides a best-effort tracker for operational audit events.
//
// Track never blocks and never fails: events are sampled, buffered in a
// bounded ring and flushed to the store in the background. A circuit breaker
// drops events while the store is failing.
//
// Use for: filing_started, filing_step_completed, filing_submit_failed
package ops

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	audit "taxfile/pkg/platform/audit"
)

const defaultBatchSize = 100

// Tracker buffers ops events and flushes them to the audit store.
type Tracker struct {
	store         audit.Store
	buffer        *RingBuffer
	sampler       *Sampler
	breaker       *CircuitBreaker
	metrics       *Metrics
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures the Tracker.
type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func WithSampler(s *Sampler) Option {
	return func(t *Tracker) {
		t.sampler = s
	}
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(t *Tracker) {
		t.breaker = cb
	}
}

func WithBufferSize(n int) Option {
	return func(t *Tracker) {
		t.buffer = NewRingBuffer(n)
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.flushInterval = d
		}
	}
}

// New creates a tracker. Call Start to flush in the background; without it
// events are only written by Flush and Close.
func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		buffer:        NewRingBuffer(0),
		sampler:       NewSampler(1),
		breaker:       NewCircuitBreaker(5, time.Minute),
		flushInterval: 500 * time.Millisecond,
		batchSize:     defaultBatchSize,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track queues an event. It never blocks on the store.
func (t *Tracker) Track(_ context.Context, event audit.OpsEvent) {
	if !t.sampler.ShouldSample(event) {
		t.metrics.observe(event.Action, outcomeSampledOut)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if old, evicted := t.buffer.Push(event); evicted {
		t.metrics.observe(old.Action, outcomeEvicted)
	}
}

// Start launches the background flush loop.
func (t *Tracker) Start() {
	if t.started.CompareAndSwap(false, true) {
		go t.loop()
	}
}

func (t *Tracker) loop() {
	defer close(t.done)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.Flush(context.Background())
		}
	}
}

// Flush writes buffered events until the buffer is empty and reports how
// many were persisted.
func (t *Tracker) Flush(ctx context.Context) int {
	written := 0
	for {
		batch := t.buffer.Drain(t.batchSize)
		if len(batch) == 0 {
			return written
		}
		for _, event := range batch {
			if t.write(ctx, event) {
				written++
			}
		}
	}
}

func (t *Tracker) write(ctx context.Context, event audit.OpsEvent) bool {
	if !t.breaker.Allow() {
		t.metrics.observe(event.Action, outcomeBreakerOpen)
		return false
	}
	if err := t.store.Append(ctx, event.ToEvent()); err != nil {
		t.breaker.RecordFailure()
		t.metrics.observe(event.Action, outcomePersistFailed)
		t.metrics.setBreakerOpen(t.breaker.IsOpen())
		if t.logger != nil {
			t.logger.WarnContext(ctx, "failed to persist ops audit event",
				"action", event.Action,
				"error", err,
			)
		}
		return false
	}
	t.breaker.RecordSuccess()
	t.metrics.observe(event.Action, outcomeStored)
	t.metrics.setBreakerOpen(false)
	return true
}

// Pending reports how many events are waiting to be flushed.
func (t *Tracker) Pending() int {
	return t.buffer.Len()
}

// Close stops the background loop and flushes what is left.
func (t *Tracker) Close() error {
	t.stopOnce.Do(func() {
		close(t.stop)
		if t.started.Load() {
			<-t.done
		}
		t.Flush(context.Background())
	})
	return nil
}
