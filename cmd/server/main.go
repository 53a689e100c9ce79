package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"taxfile/internal/filing/adapters"
	filinghandler "taxfile/internal/filing/handler"
	filingmetrics "taxfile/internal/filing/metrics"
	"taxfile/internal/filing/service"
	"taxfile/internal/filing/wizard"
	jwttoken "taxfile/internal/jwt_token"
	"taxfile/internal/platform/config"
	"taxfile/internal/platform/httpserver"
	"taxfile/internal/platform/logger"
	"taxfile/internal/platform/metrics"
	httptransport "taxfile/internal/transport/http"
	audit "taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/audit/publisher"
	"taxfile/pkg/platform/audit/publishers/compliance"
	"taxfile/pkg/platform/audit/publishers/ops"
)

const (
	jwtAudience     = "taxfile-api"
	shutdownTimeout = 10 * time.Second
)

// main wires infrastructure, the filing module and the background relay, and
// keeps the server lifecycle small. Business logic lives in internal packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("failed to shut down tracer provider", "error", err)
		}
	}()

	in, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close(log)
	st := newStores(in, cfg)

	opsTracker := ops.New(st.audit,
		ops.WithLogger(log),
		ops.WithMetrics(ops.NewMetrics()),
		ops.WithSampler(ops.NewSampler(cfg.Audit.OpsSampleRate, audit.EventFilingSubmitFailed)),
		ops.WithCircuitBreaker(ops.NewCircuitBreaker(cfg.Audit.BreakerThreshold, cfg.Audit.BreakerCooldown)),
		ops.WithBufferSize(cfg.Audit.OpsBufferSize),
		ops.WithFlushInterval(cfg.Audit.OpsFlushInterval),
	)
	opsTracker.Start()
	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithCompliance(compliance.New(st.audit,
			compliance.WithLogger(log),
			compliance.WithMetrics(compliance.NewMetrics()),
			compliance.WithTimeout(cfg.Audit.ComplianceTimeout),
		)),
		publisher.WithOpsTracker(opsTracker),
	)
	defer func() {
		if err := auditPublisher.Close(); err != nil {
			log.Warn("failed to flush audit events", "error", err)
		}
	}()

	registry := wizard.NewRegistry(wizard.WithTaxYears(wizard.DefaultTaxYears(cfg.LatestTaxYear, cfg.TaxYearCount)...))
	filings := service.New(
		registry,
		st.sessions,
		adapters.NewRequestIdentity(),
		adapters.NewSubmissionGateway(st.runner, st.submissions, st.outbox),
		service.WithLogger(log),
		service.WithMetrics(filingmetrics.New()),
		service.WithAuditPublisher(auditPublisher),
		service.WithStepData(st.stepData),
		service.WithSubmissionReader(st.submissions),
		service.WithTracer(otel.Tracer("taxfile/internal/filing/service")),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, jwtAudience)
	routerCfg := httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(),
		RequestTimeout: cfg.RequestTimeout,
		HealthChecks:   in.healthChecks(),
		Modules: []httptransport.Registrar{
			filinghandler.New(filings, log, jwtService.Validator()),
		},
	}
	if cfg.DevTokens {
		log.Warn("dev token endpoint enabled")
		routerCfg.DevTokens = jwtService
	}
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(routerCfg), cfg.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	if err := startBackground(gctx, g, cfg, in, st, log); err != nil {
		return err
	}
	g.Go(func() error {
		log.Info("starting taxfile", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
