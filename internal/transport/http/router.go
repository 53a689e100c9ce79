package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxfile/internal/platform/metrics"
	"taxfile/internal/platform/middleware"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/platform/httputil"
	"taxfile/pkg/platform/middleware/metadata"
	"taxfile/pkg/platform/middleware/requesttime"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// TokenIssuer mints bearer tokens for local development.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, role string, expiresIn time.Duration) (string, error)
}

// Config carries everything the router needs.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
	Modules        []Registrar
	DevTokens      TokenIssuer
}

const devTokenTTL = 12 * time.Hour

// NewRouter wires the global middleware, operational endpoints and every
// module's routes.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())
	if cfg.DevTokens != nil {
		r.Post("/dev/token", devTokenHandler(cfg.DevTokens, logger))
	}

	for _, m := range cfg.Modules {
		m.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

type devTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
}

// devTokenHandler issues a token for ?user_id=, or for a fresh user when the
// parameter is absent.
func devTokenHandler(issuer TokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := id.NewUserID()
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			parsed, err := id.ParseUserID(raw)
			if err != nil || parsed.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id must be a UUID"))
				return
			}
			userID = parsed
		}
		token, err := issuer.GenerateAccessToken(userID, "filer", devTokenTTL)
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to issue dev token", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, devTokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(devTokenTTL.Seconds()),
			UserID:      userID.String(),
		})
	}
}
