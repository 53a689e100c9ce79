// Package outbox implements the transactional outbox: domain writes and the
// events describing them commit in one transaction, and a relay publishes
// pending entries to Kafka afterwards.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one event waiting to be published.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// Writer appends entries, joining the caller's transaction when the context
// carries one.
type Writer interface {
	Append(ctx context.Context, entry Entry) error
}

// Reader is used by the relay to drain pending entries.
type Reader interface {
	Pending(ctx context.Context, limit int) ([]Entry, error)
	MarkProcessed(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Store is both sides of the outbox.
type Store interface {
	Writer
	Reader
}

// NewEntry fills in the id and creation time.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, at time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}
