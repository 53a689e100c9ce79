// Package worker relays committed outbox entries to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/outbox"
)

// Publisher sends one record to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Router picks the topic for an entry. ok is false for entries with no
// destination; those are marked processed without publishing.
type Router func(entry outbox.Entry) (topic string, ok bool)

// CategoryRouter sends audit events to the compliance or ops topic by the
// category of their action. Event types listed in extra go to their own topic.
func CategoryRouter(complianceTopic, opsTopic string, extra map[string]string) Router {
	return func(entry outbox.Entry) (string, bool) {
		if topic, ok := extra[entry.EventType]; ok {
			return topic, topic != ""
		}
		if entry.EventType == "" {
			return "", false
		}
		if audit.AuditEvent(entry.EventType).Category() == audit.CategoryCompliance {
			return complianceTopic, true
		}
		return opsTopic, true
	}
}

// Worker polls the outbox and publishes pending entries in creation order.
type Worker struct {
	outbox    outbox.Reader
	publisher Publisher
	route     Router
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the Worker.
type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func NewWorker(reader outbox.Reader, publisher Publisher, route Router, opts ...Option) *Worker {
	w := &Worker{
		outbox:    reader,
		publisher: publisher,
		route:     route,
		interval:  time.Second,
		batchSize: 100,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.WarnContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and reports how many entries were published.
// It stops at the first publish failure so later entries are not sent ahead
// of it.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	entries, err := w.outbox.Pending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	done := make([]uuid.UUID, 0, len(entries))
	published := 0
	var publishErr error
	for _, entry := range entries {
		topic, ok := w.route(entry)
		if !ok {
			w.logger.WarnContext(ctx, "outbox entry has no topic, skipping",
				"id", entry.ID,
				"event_type", entry.EventType,
			)
			done = append(done, entry.ID)
			continue
		}
		if err := w.publisher.Publish(ctx, topic, []byte(entry.AggregateID), entry.Payload); err != nil {
			publishErr = err
			break
		}
		done = append(done, entry.ID)
		published++
	}

	if len(done) > 0 {
		if err := w.outbox.MarkProcessed(ctx, done, w.now()); err != nil {
			return published, err
		}
	}
	return published, publishErr
}
