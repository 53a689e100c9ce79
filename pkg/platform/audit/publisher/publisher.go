// Package publisher routes audit events by category: compliance events are
// persisted synchronously and fail closed, operational events are tracked
// best effort.
package publisher

import (
	"context"
	"errors"
	"time"

	id "taxfile/pkg/domain"
	audit "taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/audit/publishers/compliance"
	"taxfile/pkg/platform/audit/publishers/ops"
)

// Publisher is the single audit sink handed to services.
type Publisher struct {
	store      audit.Store
	compliance *compliance.Publisher
	ops        *ops.Tracker
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithCompliance replaces the default compliance publisher.
func WithCompliance(p *compliance.Publisher) Option {
	return func(pub *Publisher) {
		pub.compliance = p
	}
}

// WithOpsTracker replaces the default ops tracker. The caller starts it.
func WithOpsTracker(t *ops.Tracker) Option {
	return func(pub *Publisher) {
		pub.ops = t
	}
}

// NewPublisher builds a publisher over store. Without options the ops tracker
// only writes on Close.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.compliance == nil {
		p.compliance = compliance.New(store)
	}
	if p.ops == nil {
		p.ops = ops.New(store)
	}
	return p
}

// Emit routes event by the category of its action. Only compliance events can
// return an error.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	switch audit.AuditEvent(event.Action).Category() {
	case audit.CategoryCompliance:
		return p.compliance.Emit(ctx, audit.ComplianceEvent{
			Timestamp: event.Timestamp,
			UserID:    event.UserID,
			Subject:   event.Subject,
			Action:    event.Action,
			Decision:  event.Decision,
			RequestID: event.RequestID,
			Device:    event.Device,
			ClientIP:  event.ClientIP,
		})
	default:
		p.ops.Track(ctx, audit.OpsEvent{
			Timestamp: event.Timestamp,
			UserID:    event.UserID,
			Subject:   event.Subject,
			Action:    event.Action,
			Reason:    event.Reason,
			RequestID: event.RequestID,
			Device:    event.Device,
		})
		return nil
	}
}

// List returns the stored events of a user.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close flushes pending operational events.
func (p *Publisher) Close() error {
	return errors.Join(p.ops.Close(), p.compliance.Close())
}
