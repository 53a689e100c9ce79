package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taxfile/internal/platform/kafka/consumer"
	audit "taxfile/pkg/platform/audit"
)

// ComplianceStore persists materialised compliance events. Delivery is at
// least once, so implementations must ignore a repeated eventID.
type ComplianceStore interface {
	AppendCompliance(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

type OpsStore interface {
	AppendOps(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Materializer decodes audit payloads from one topic and writes them to the
// table of their category.
type Materializer struct {
	category audit.EventCategory
	write    func(ctx context.Context, eventID uuid.UUID, event audit.Event) error
	// strict materialisers return store errors for redelivery and drop
	// events that cannot be attributed to a filer and a filing.
	strict bool
	logger *slog.Logger
	now    func() time.Time
}

// NewComplianceHandler materialises filing_submitted and filing_discarded.
func NewComplianceHandler(store ComplianceStore, logger *slog.Logger) *Materializer {
	return &Materializer{
		category: audit.CategoryCompliance,
		write:    store.AppendCompliance,
		strict:   true,
		logger:   logger,
		now:      time.Now,
	}
}

// NewOpsHandler materialises operational events. Nothing it does can cause a
// redelivery.
func NewOpsHandler(store OpsStore, logger *slog.Logger) *Materializer {
	return &Materializer{
		category: audit.CategoryOperations,
		write:    store.AppendOps,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *Materializer) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, event, err := audit.DecodePayload(msg.Value)
	if err != nil {
		m.logger.WarnContext(ctx, "undecodable audit payload committed",
			"category", m.category,
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if m.strict && (event.UserID.IsNil() || event.Subject == "") {
		m.logger.ErrorContext(ctx, "compliance event without filer or filing dropped",
			"event_id", eventID,
			"action", event.Action,
		)
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}
	event.Category = m.category

	if err := m.write(ctx, eventID, event); err != nil {
		if !m.strict {
			m.logger.DebugContext(ctx, "ops event not materialised", "event_id", eventID, "error", err)
			return nil
		}
		return fmt.Errorf("materialise %s event %s: %w", m.category, eventID, err)
	}
	m.logger.DebugContext(ctx, "audit event materialised",
		"category", m.category,
		"action", event.Action,
		"filing_id", event.Subject,
	)
	return nil
}
