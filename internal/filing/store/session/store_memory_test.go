package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	now   time.Time
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	s.store = NewInMemory(time.Hour, WithClock(func() time.Time { return s.now }))
}

func (s *MemoryStoreSuite) record() wizard.Record {
	sess := wizard.NewSession(wizard.NewRegistry(), id.NewSessionID(), id.NewFilingID(), id.NewUserID(), s.now)
	s.Require().NoError(sess.Set(models.FieldFullName, "Ayesha Khan"))
	rec, err := sess.Record()
	s.Require().NoError(err)
	return rec
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	ctx := context.Background()

	s.Run("returns the saved record", func() {
		rec := s.record()
		s.Require().NoError(s.store.Save(ctx, rec))

		found, err := s.store.FindByID(ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec, found)
	})

	s.Run("returns ErrNotFound for unknown sessions", func() {
		_, err := s.store.FindByID(ctx, id.NewSessionID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned records do not alias stored state", func() {
		rec := s.record()
		rec.Validated = []models.StepID{models.StepTaxYear}
		s.Require().NoError(s.store.Save(ctx, rec))

		found, err := s.store.FindByID(ctx, rec.ID)
		s.Require().NoError(err)
		found.Validated[0] = models.StepReview
		found.State[0] = 'x'

		again, err := s.store.FindByID(ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(rec, again)
	})
}

func (s *MemoryStoreSuite) TestExpiry() {
	ctx := context.Background()

	s.Run("expired sessions are reported and dropped", func() {
		rec := s.record()
		s.Require().NoError(s.store.Save(ctx, rec))

		s.now = s.now.Add(time.Hour)
		_, err := s.store.FindByID(ctx, rec.ID)
		s.Require().ErrorIs(err, sentinel.ErrExpired)

		_, err = s.store.FindByID(ctx, rec.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("saving again extends the lifetime", func() {
		rec := s.record()
		s.Require().NoError(s.store.Save(ctx, rec))
		s.now = s.now.Add(50 * time.Minute)
		s.Require().NoError(s.store.Save(ctx, rec))
		s.now = s.now.Add(50 * time.Minute)

		_, err := s.store.FindByID(ctx, rec.ID)
		s.Require().NoError(err)
	})

	s.Run("purge removes only expired sessions", func() {
		store := NewInMemory(time.Hour, WithClock(func() time.Time { return s.now }))
		old := s.record()
		s.Require().NoError(store.Save(ctx, old))
		s.now = s.now.Add(30 * time.Minute)
		fresh := s.record()
		s.Require().NoError(store.Save(ctx, fresh))
		s.now = s.now.Add(30 * time.Minute)

		s.Equal(1, store.PurgeExpired(ctx))
		_, err := store.FindByID(ctx, fresh.ID)
		s.Require().NoError(err)
	})

	s.Run("non-positive ttl is rejected", func() {
		store := NewInMemory(0)
		s.Require().Error(store.Save(ctx, s.record()))
	})
}

func (s *MemoryStoreSuite) TestDelete() {
	ctx := context.Background()
	rec := s.record()
	s.Require().NoError(s.store.Save(ctx, rec))

	s.Require().NoError(s.store.Delete(ctx, rec.ID))
	_, err := s.store.FindByID(ctx, rec.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(ctx, rec.ID), "deleting twice is a no-op")
}
