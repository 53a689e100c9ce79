// Package compliance records filing lifecycle events that must not be lost.
//
// Emit blocks until the audit store accepts the event. A failed write is
// returned to the caller, which must not report the filing action as done.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/sentinel"
)

var (
	errMissingUser    = errors.New("compliance event has no user")
	errMissingFiling  = errors.New("compliance event has no filing")
	errMissingAction  = errors.New("compliance event has no action")
	defaultEmitBudget = 2 * time.Second
)

// Publisher writes compliance events synchronously.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithTimeout bounds each store write. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New returns a publisher over store, which should be outbox-backed so the
// event reaches the broker once the write commits.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		logger:  slog.New(slog.DiscardHandler),
		timeout: defaultEmitBudget,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists event or returns why it could not. Store failures wrap
// sentinel.ErrUnavailable.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	if err := check(event); err != nil {
		p.metrics.observe(event.Action, outcomeRejected)
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	err := p.store.Append(writeCtx, event.ToEvent())
	p.metrics.observeLatency(p.now().Sub(start))
	if err != nil {
		p.metrics.observe(event.Action, outcomeFailed)
		p.logger.ErrorContext(ctx, "compliance event not persisted",
			"action", event.Action,
			"filing_id", event.Subject,
			"user_id", event.UserID.String(),
			"error", err,
		)
		return fmt.Errorf("persist %s for filing %s: %w: %w", event.Action, event.Subject, sentinel.ErrUnavailable, err)
	}
	p.metrics.observe(event.Action, outcomePersisted)
	return nil
}

func check(event audit.ComplianceEvent) error {
	switch {
	case event.UserID.IsNil():
		return errMissingUser
	case event.Subject == "":
		return errMissingFiling
	case event.Action == "":
		return errMissingAction
	}
	return nil
}

// Close has nothing to flush.
func (p *Publisher) Close() error {
	return nil
}
