package main

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"taxfile/internal/filing/adapters"
	"taxfile/internal/platform/config"
	"taxfile/internal/platform/kafka/consumer"
	auditconsumer "taxfile/pkg/platform/audit/consumer"
	auditpostgres "taxfile/pkg/platform/audit/store/postgres"
	"taxfile/pkg/platform/audit/worker"
)

// startBackground launches the outbox relay and, with Kafka and Postgres
// both configured, the audit materialiser.
func startBackground(ctx context.Context, g *errgroup.Group, cfg config.Server, in *infra, st *stores, log *slog.Logger) error {
	auditRouter := newAuditRouter(cfg, in, log)

	var pub worker.Publisher = loopback{handler: auditRouter}
	if in.producer != nil {
		pub = in.producer
	}
	relay := worker.NewWorker(st.outbox, pub,
		worker.CategoryRouter(cfg.Kafka.ComplianceTopic, cfg.Kafka.OpsTopic, map[string]string{
			adapters.EventFilingAccepted: cfg.Kafka.SubmissionsTopic,
		}),
		worker.WithLogger(log),
		worker.WithInterval(cfg.Kafka.OutboxPollInterval),
		worker.WithBatchSize(cfg.Kafka.OutboxBatchSize),
	)
	g.Go(func() error { return relay.Run(ctx) })

	if mem, ok := st.sessions.(purger); ok {
		g.Go(func() error {
			sweepSessions(ctx, mem, sessionSweepInterval, log)
			return nil
		})
	}

	if in.producer == nil || in.db == nil || !cfg.Audit.MaterializeConsumer {
		return nil
	}
	c, err := consumer.New(consumer.Config{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID + "-audit",
		Group:    cfg.Kafka.ConsumerGroup,
		Topics:   []string{cfg.Kafka.ComplianceTopic, cfg.Kafka.OpsTopic},
	}, auditRouter, log)
	if err != nil {
		return err
	}
	g.Go(func() error {
		defer c.Close()
		return c.Run(ctx)
	})
	return nil
}

const sessionSweepInterval = time.Minute

// purger is the in-memory session store; Redis expires drafts on its own.
type purger interface {
	PurgeExpired(ctx context.Context) int
}

// sweepSessions drops expired drafts until ctx is done.
func sweepSessions(ctx context.Context, p purger, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.PurgeExpired(ctx); n > 0 {
				log.DebugContext(ctx, "expired draft sessions purged", "count", n)
			}
		}
	}
}

// newAuditRouter materialises audit topics into Postgres. Without a database
// the events were already stored in memory, so only submissions are logged.
func newAuditRouter(cfg config.Server, in *infra, log *slog.Logger) *auditconsumer.Router {
	router := auditconsumer.NewRouter(log, nil)
	router.Register(cfg.Kafka.SubmissionsTopic, consumer.HandlerFunc(func(ctx context.Context, msg *consumer.Message) error {
		log.InfoContext(ctx, "filing accepted", "filing_id", string(msg.Key))
		return nil
	}))
	if in.db != nil {
		store := auditpostgres.New(in.db)
		router.Register(cfg.Kafka.ComplianceTopic, auditconsumer.NewComplianceHandler(store, log))
		router.Register(cfg.Kafka.OpsTopic, auditconsumer.NewOpsHandler(store, log))
	}
	return router
}

// loopback hands relayed records straight to in-process handlers when no
// brokers are configured.
type loopback struct {
	handler consumer.Handler
}

func (l loopback) Publish(ctx context.Context, topic string, key, value []byte) error {
	return l.handler.Handle(ctx, &consumer.Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Timestamp: time.Now(),
	})
}
