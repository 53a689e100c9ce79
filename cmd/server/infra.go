package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"taxfile/internal/filing/adapters"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/service"
	sessionstore "taxfile/internal/filing/store/session"
	stepdatastore "taxfile/internal/filing/store/stepdata"
	submissionstore "taxfile/internal/filing/store/submission"
	"taxfile/internal/platform/config"
	"taxfile/internal/platform/kafka/admin"
	"taxfile/internal/platform/kafka/producer"
	"taxfile/internal/platform/postgres"
	redisclient "taxfile/internal/platform/redis"
	httptransport "taxfile/internal/transport/http"
	"taxfile/migrations"
	audit "taxfile/pkg/platform/audit"
	auditmemory "taxfile/pkg/platform/audit/store/memory"
	auditpostgres "taxfile/pkg/platform/audit/store/postgres"
	"taxfile/pkg/platform/outbox"
	"taxfile/pkg/platform/tx"
)

// infra holds the external connections. Any of them may be nil when the
// matching URL is not configured.
type infra struct {
	db       *sql.DB
	redis    *redisclient.Client
	producer *producer.Producer
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	in.db = db
	if db != nil {
		log.Info("postgres connected")
		if cfg.Postgres.AutoMigrate {
			if err := migrations.Apply(ctx, db); err != nil {
				in.close(log)
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
	}

	rc, err := redisclient.New(cfg.Redis)
	if err != nil {
		in.close(log)
		return nil, err
	}
	in.redis = rc
	if rc != nil {
		log.Info("redis connected")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		p, err := producer.New(producer.Config{Brokers: cfg.Kafka.Brokers, ClientID: cfg.Kafka.ClientID})
		if err != nil {
			in.close(log)
			return nil, err
		}
		in.producer = p
		if err := admin.EnsureTopics(ctx, p.Client(), 3, 1,
			cfg.Kafka.ComplianceTopic, cfg.Kafka.OpsTopic, cfg.Kafka.SubmissionsTopic,
		); err != nil {
			in.close(log)
			return nil, err
		}
		log.Info("kafka connected", "brokers", cfg.Kafka.Brokers)
	}
	return in, nil
}

func (in *infra) close(log *slog.Logger) {
	if in.producer != nil {
		in.producer.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			log.Warn("failed to close postgres", "error", err)
		}
	}
}

func (in *infra) healthChecks() map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if in.db != nil {
		checks["postgres"] = in.db.PingContext
	}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.producer != nil {
		checks["kafka"] = in.producer.Ping
	}
	return checks
}

type submissionStore interface {
	adapters.SubmissionSaver
	ports.SubmissionReader
}

// stores picks Postgres/Redis implementations when connected and in-memory
// ones otherwise.
type stores struct {
	sessions    service.SessionStore
	stepData    service.StepDataStore
	submissions submissionStore
	outbox      outbox.Store
	audit       audit.Store
	runner      tx.Runner
}

func newStores(in *infra, cfg config.Server) *stores {
	s := &stores{}

	if in.redis != nil {
		s.sessions = sessionstore.NewRedis(in.redis.Client, cfg.SessionTTL)
	} else {
		s.sessions = sessionstore.NewInMemory(cfg.SessionTTL)
	}

	if in.db != nil {
		s.stepData = stepdatastore.NewPostgres(in.db)
		s.submissions = submissionstore.NewPostgres(in.db)
		s.outbox = outbox.NewPostgres(in.db)
		s.audit = auditpostgres.New(in.db)
		s.runner = tx.NewSQLRunner(in.db)
		return s
	}
	s.stepData = stepdatastore.NewInMemory()
	s.submissions = submissionstore.NewInMemory()
	s.outbox = outbox.NewInMemory()
	s.audit = auditmemory.NewInMemoryStore()
	s.runner = tx.NoopRunner{}
	return s
}
