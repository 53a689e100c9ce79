//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/store/session"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
	"taxfile/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = session.NewRedis(s.redis.Client.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) record() wizard.Record {
	sess := wizard.NewSession(wizard.NewRegistry(), id.NewSessionID(), id.NewFilingID(), id.NewUserID(), time.Now().UTC().Truncate(time.Millisecond))
	s.Require().NoError(sess.Set(models.FieldIncomeSources, []string{models.SourceSalary}))
	s.Require().NoError(sess.Set(models.FieldSalaryIncome, 1200000))
	rec, err := sess.Record()
	s.Require().NoError(err)
	return rec
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := s.record()
	s.Require().NoError(s.store.Save(ctx, rec))

	found, err := s.store.FindByID(ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)
	s.Equal(rec.Owner, found.Owner)
	s.JSONEq(string(rec.State), string(found.State))
	s.True(rec.CreatedAt.Equal(found.CreatedAt))

	restored, err := wizard.RestoreSession(wizard.NewRegistry(), found)
	s.Require().NoError(err)
	s.Equal(1200000.0, restored.State().Amount(models.FieldSalaryIncome).Value())
}

func (s *RedisStoreSuite) TestMissingAndDeleted() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.NewSessionID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	rec := s.record()
	s.Require().NoError(s.store.Save(ctx, rec))
	s.Require().NoError(s.store.Delete(ctx, rec.ID))
	_, err = s.store.FindByID(ctx, rec.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTLApplied() {
	ctx := context.Background()
	rec := s.record()
	s.Require().NoError(s.store.Save(ctx, rec))

	ttl, err := s.store.TTL(ctx, rec.ID)
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
