package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

type entry struct {
	record    wizard.Record
	expiresAt time.Time
}

// InMemoryStore keeps draft sessions in process memory. Each Save extends the
// session's lifetime by the configured TTL.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]entry
	ttl      time.Duration
	clock    Clock
}

// MemoryOption configures an InMemoryStore.
type MemoryOption func(*InMemoryStore)

// WithClock sets the clock used for expiry.
func WithClock(clock Clock) MemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewInMemory constructs an in-memory session store.
func NewInMemory(ttl time.Duration, opts ...MemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[id.SessionID]entry),
		ttl:      ttl,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Save(_ context.Context, record wizard.Record) error {
	if err := validateTTL(s.ttl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = entry{
		record:    cloneRecord(record),
		expiresAt: s.clock().Add(s.ttl),
	}
	return nil
}

// FindByID returns sentinel.ErrExpired for a session whose TTL has passed and
// drops it from the store.
func (s *InMemoryStore) FindByID(_ context.Context, sessionID id.SessionID) (wizard.Record, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return wizard.Record{}, sentinel.ErrNotFound
	}
	if !s.clock().Before(e.expiresAt) {
		s.mu.Lock()
		if current, ok := s.sessions[sessionID]; ok && current.expiresAt.Equal(e.expiresAt) {
			delete(s.sessions, sessionID)
		}
		s.mu.Unlock()
		return wizard.Record{}, sentinel.ErrExpired
	}
	return cloneRecord(e.record), nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// PurgeExpired drops every expired session and reports how many were removed.
func (s *InMemoryStore) PurgeExpired(_ context.Context) int {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for sessionID, e := range s.sessions {
		if !now.Before(e.expiresAt) {
			delete(s.sessions, sessionID)
			removed++
		}
	}
	return removed
}

func cloneRecord(r wizard.Record) wizard.Record {
	r.Validated = slices.Clone(r.Validated)
	r.State = slices.Clone(r.State)
	return r
}
