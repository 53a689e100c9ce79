package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "taxfile/pkg/domain"
)

// payload is the JSON shape of an event on the outbox and on Kafka.
type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
}

// EncodePayload renders event for publication. The category is always derived
// from the action.
func EncodePayload(eventID uuid.UUID, event Event) ([]byte, error) {
	p := payload{
		ID:        eventID.String(),
		Category:  string(AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		Device:    event.Device,
		ClientIP:  event.ClientIP,
	}
	if !event.UserID.IsNil() {
		p.UserID = event.UserID.String()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses a published event. A missing or malformed timestamp
// decodes as the zero time.
func DecodePayload(b []byte) (uuid.UUID, Event, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return uuid.Nil, Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	eventID, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, Event{}, fmt.Errorf("parse audit event id: %w", err)
	}
	event := Event{
		Category:  EventCategory(p.Category),
		Subject:   p.Subject,
		Action:    p.Action,
		Decision:  p.Decision,
		Reason:    p.Reason,
		RequestID: p.RequestID,
		Device:    p.Device,
		ClientIP:  p.ClientIP,
	}
	if ts, err := time.Parse(time.RFC3339Nano, p.Timestamp); err == nil {
		event.Timestamp = ts
	}
	if p.UserID != "" {
		userID, err := id.ParseUserID(p.UserID)
		if err != nil {
			return uuid.Nil, Event{}, fmt.Errorf("parse audit user id: %w", err)
		}
		event.UserID = userID
	}
	return eventID, event, nil
}
