package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "taxfile/pkg/domain"
	audit "taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/outbox"
)

// Store implements audit.Store using the transactional outbox pattern.
// Append writes to the outbox; the relay publishes to Kafka and the audit
// consumer materialises events into audit_compliance and audit_ops.
type Store struct {
	db     *sql.DB
	outbox outbox.Writer
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db, outbox: outbox.NewPostgres(db)}
}

// Append writes an audit event to the outbox, joining the caller's
// transaction when there is one. Entries are keyed by filing so the relay
// keeps a filing's events in order on one partition.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		return fmt.Errorf("audit event %s has no timestamp", event.Action)
	}
	eventID := uuid.New()
	payload, err := audit.EncodePayload(eventID, event)
	if err != nil {
		return err
	}
	aggregateType, aggregateID := aggregateOf(eventID, event)
	return s.outbox.Append(ctx, outbox.NewEntry(aggregateType, aggregateID, event.Action, payload, event.Timestamp))
}

func aggregateOf(eventID uuid.UUID, event audit.Event) (string, string) {
	switch {
	case event.Subject != "":
		return "filing", event.Subject
	case !event.UserID.IsNil():
		return "user", event.UserID.String()
	default:
		return "audit", eventID.String()
	}
}

// AppendCompliance materialises a compliance event. Idempotent on the event id.
func (s *Store) AppendCompliance(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_compliance (
			id, timestamp, user_id, subject, action,
			decision, request_id, device, client_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		uuid.UUID(event.UserID),
		event.Subject,
		event.Action,
		event.Decision,
		event.RequestID,
		event.Device,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert compliance event: %w", err)
	}
	return nil
}

// AppendOps materialises an operational event. Idempotent on the event id.
func (s *Store) AppendOps(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_ops (id, timestamp, user_id, subject, action, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id, timestamp) DO NOTHING
	`
	var userID *uuid.UUID
	if !event.UserID.IsNil() {
		uid := uuid.UUID(event.UserID)
		userID = &uid
	}
	_, err := s.db.ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		userID,
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert ops event: %w", err)
	}
	return nil
}

// ListByUser returns the materialised compliance events of a user, newest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, user_id, subject, action, decision, request_id, device, client_ip
		FROM audit_compliance
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event audit.Event
			uid   uuid.UUID
		)
		if err := rows.Scan(
			&event.Timestamp,
			&uid,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.RequestID,
			&event.Device,
			&event.ClientIP,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.CategoryCompliance
		event.UserID = id.UserID(uid)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
