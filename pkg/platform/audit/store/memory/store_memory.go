package memory

import (
	"context"
	"slices"
	"sync"

	id "taxfile/pkg/domain"
	audit "taxfile/pkg/platform/audit"
)

// InMemoryStore keeps audit events per filer. Used when no database is
// configured and in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.UserID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.UserID][]audit.Event)}
}

// Append stamps the category from the action, so callers cannot file an
// operational event as compliance.
func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	event.Category = audit.AuditEvent(event.Action).Category()
	s.mu.Lock()
	s.events[event.UserID] = append(s.events[event.UserID], event)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events[userID]), nil
}
