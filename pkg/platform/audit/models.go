package audit

import (
	"context"
	"time"

	id "taxfile/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal or regulatory significance,
	// such as a filing being submitted. These require durable storage and long
	// retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	// Subject is the entity acted on, usually a filing id.
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// Device is the browser and OS parsed from the User-Agent, e.g. "Chrome on macOS".
	Device   string
	ClientIP string
}

type AuditEvent string

const (
	EventFilingStarted       AuditEvent = "filing_started"
	EventFilingStepCompleted AuditEvent = "filing_step_completed"
	EventFilingSubmitted     AuditEvent = "filing_submitted"
	EventFilingSubmitFailed  AuditEvent = "filing_submit_failed"
	EventFilingDiscarded     AuditEvent = "filing_discarded"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventFilingSubmitted: CategoryCompliance,
	EventFilingDiscarded: CategoryCompliance,

	EventFilingStarted:       CategoryOperations,
	EventFilingStepCompleted: CategoryOperations,
	EventFilingSubmitFailed:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// ComplianceEvent captures regulatory-significant actions requiring guaranteed persistence.
// Use with the compliance publisher for fail-closed semantics.
type ComplianceEvent struct {
	Timestamp time.Time // set automatically if zero
	UserID    id.UserID // required
	Subject   string
	Action    string
	Decision  string
	RequestID string
	Device    string
	ClientIP  string
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the stored Event shape.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.Subject,
		Action:    e.Action,
		Decision:  e.Decision,
		RequestID: e.RequestID,
		Device:    e.Device,
		ClientIP:  e.ClientIP,
	}
}

// OpsEvent captures operational events with minimal overhead.
// Events are fire-and-forget with optional sampling.
type OpsEvent struct {
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Reason    string
	RequestID string
	Device    string
}

// Category returns CategoryOperations (always).
func (e OpsEvent) Category() EventCategory { return CategoryOperations }

// ToEvent converts to the stored Event shape.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.Subject,
		Action:    e.Action,
		Reason:    e.Reason,
		RequestID: e.RequestID,
		Device:    e.Device,
	}
}
