package stepdata

import (
	"context"
	"fmt"
	"sync"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

type filing struct {
	owner id.UserID
	steps map[models.StepID][]byte
}

// InMemoryStore keeps step data per filing in memory. Values are stored in
// their JSON form so reads behave exactly like the Postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	filings map[id.FilingID]*filing
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{filings: make(map[id.FilingID]*filing)}
}

func (s *InMemoryStore) GetStep(_ context.Context, filingID id.FilingID, step models.StepID) (ports.StepData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[filingID]
	if !ok {
		return ports.StepData{}, nil
	}
	return decode(f.steps[step])
}

// SaveStep replaces the step's data. A filing belongs to whoever saved it
// first; saves by anyone else fail with sentinel.ErrConflict.
func (s *InMemoryStore) SaveStep(_ context.Context, filingID id.FilingID, owner id.UserID, step models.StepID, data ports.StepData) error {
	if !step.Valid() {
		return fmt.Errorf("save step %d: invalid step", step)
	}
	payload, err := encode(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.filings[filingID]
	if !ok {
		f = &filing{owner: owner, steps: make(map[models.StepID][]byte)}
		s.filings[filingID] = f
	}
	if f.owner != owner {
		return sentinel.ErrConflict
	}
	f.steps[step] = payload
	return nil
}

func (s *InMemoryStore) Owner(_ context.Context, filingID id.FilingID) (id.UserID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[filingID]
	if !ok {
		return id.UserID{}, false, nil
	}
	return f.owner, true, nil
}
