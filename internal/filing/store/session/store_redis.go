package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

var redisOpDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "taxfile_session_store_redis_duration_ms",
	Help:    "Latency of draft session store operations in milliseconds",
	Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
}, []string{"op"})

const sessionKeyPrefix = "filing:session:"

// RedisStore keeps draft sessions in Redis as JSON with a sliding TTL, so
// every instance behind the load balancer sees the same drafts.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, record wizard.Record) error {
	defer observe("save", time.Now())
	if err := validateTTL(s.ttl); err != nil {
		return err
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, key(record.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (wizard.Record, error) {
	defer observe("find", time.Now())
	payload, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return wizard.Record{}, fmt.Errorf("find session: %w: %w", sentinel.ErrUnavailable, err)
	}
	var record wizard.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return wizard.Record{}, fmt.Errorf("decode session: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	defer observe("delete", time.Now())
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// TTL reports the remaining lifetime of a stored session.
func (s *RedisStore) TTL(ctx context.Context, sessionID id.SessionID) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("session ttl: %w: %w", sentinel.ErrUnavailable, err)
	}
	if ttl < 0 {
		return 0, sentinel.ErrNotFound
	}
	return ttl, nil
}

func key(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

func observe(op string, start time.Time) {
	redisOpDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
