package submission

import (
	"context"
	"sync"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

// InMemoryStore keeps accepted submissions in memory. Submissions are
// immutable, so the stored pointer is shared with readers.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.SubmissionID]*models.Submission
	byFiling map[id.FilingID]id.SubmissionID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.SubmissionID]*models.Submission),
		byFiling: make(map[id.FilingID]id.SubmissionID),
	}
}

// Save stores sub. A filing is accepted at most once; a second submission
// for the same filing fails with sentinel.ErrConflict.
func (s *InMemoryStore) Save(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sub.ID()]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byFiling[sub.FilingID()]; ok {
		return sentinel.ErrConflict
	}
	s.byID[sub.ID()] = sub
	s.byFiling[sub.FilingID()] = sub.ID()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.byID[submissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sub, nil
}
