// Package handler exposes the filing wizard over HTTP.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/service"
	"taxfile/internal/filing/wizard"
	"taxfile/internal/platform/middleware"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/platform/httputil"
	"taxfile/pkg/platform/middleware/auth"
	"taxfile/pkg/requestcontext"
)

// Service is the filing service as seen by the transport.
type Service interface {
	Steps(ctx context.Context) ([]wizard.StepDefinition, error)
	Start(ctx context.Context, filingID *id.FilingID) (*service.Snapshot, error)
	Get(ctx context.Context, sessionID id.SessionID) (*service.Snapshot, error)
	SetField(ctx context.Context, sessionID id.SessionID, field string, value any) (*service.Snapshot, error)
	Toggle(ctx context.Context, sessionID id.SessionID, field, optionID string, included bool) (*service.Snapshot, error)
	Next(ctx context.Context, sessionID id.SessionID) (*service.Snapshot, error)
	Back(ctx context.Context, sessionID id.SessionID) (*service.Snapshot, error)
	GoTo(ctx context.Context, sessionID id.SessionID, index int) (*service.Snapshot, error)
	Discard(ctx context.Context, sessionID id.SessionID) error
	Submit(ctx context.Context, sessionID id.SessionID) (models.Receipt, error)
	GetSubmission(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
}

// Handler serves /filings.
type Handler struct {
	filings      Service
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
	sanitizer    *sanitizer
}

// New creates a filing Handler.
func New(filings Service, logger *slog.Logger, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		filings:      filings,
		logger:       logger,
		jwtValidator: jwtValidator,
		sanitizer:    newSanitizer(),
	}
}

// Register mounts the filing routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/filings", func(fr chi.Router) {
		fr.Use(middleware.ContentTypeJSON)
		fr.Use(auth.RequireAuth(h.jwtValidator, h.logger))

		fr.Get("/steps", h.handleSteps)
		fr.Post("/sessions", h.handleStart)
		fr.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Get("/", h.handleGet)
			sr.Delete("/", h.handleDiscard)
			sr.Put("/fields/{field}", h.handleSetField)
			sr.Post("/fields/{field}/toggle", h.handleToggle)
			sr.Post("/next", h.handleNext)
			sr.Post("/back", h.handleBack)
			sr.Post("/goto", h.handleGoTo)
			sr.Post("/submit", h.handleSubmit)
		})
		fr.Get("/submissions/{id}", h.handleGetSubmission)
	})
}

func (h *Handler) handleSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := h.filings.Steps(r.Context())
	if err != nil {
		h.writeError(w, r, "list steps", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStepsResponse(steps))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[startRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.filings.Start(ctx, req.filingID)
	if err != nil {
		h.writeError(w, r, "start filing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSnapshotResponse(snap))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.filings.Get(r.Context(), sessionID)
	h.respondSnapshot(w, r, "get session", snap, err)
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	if err := h.filings.Discard(r.Context(), sessionID); err != nil {
		h.writeError(w, r, "discard session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[setFieldRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	value := h.sanitizer.value(req.Value)
	snap, err := h.filings.SetField(ctx, sessionID, chi.URLParam(r, "field"), value)
	h.respondSnapshot(w, r, "set field", snap, err)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[toggleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.filings.Toggle(ctx, sessionID, chi.URLParam(r, "field"), h.sanitizer.text(req.ID), *req.Included)
	h.respondSnapshot(w, r, "toggle option", snap, err)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.filings.Next(r.Context(), sessionID)
	h.respondSnapshot(w, r, "next step", snap, err)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.filings.Back(r.Context(), sessionID)
	h.respondSnapshot(w, r, "previous step", snap, err)
}

func (h *Handler) handleGoTo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[gotoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	snap, err := h.filings.GoTo(ctx, sessionID, *req.Index)
	h.respondSnapshot(w, r, "go to step", snap, err)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	receipt, err := h.filings.Submit(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, r, "submit filing", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission id"))
		return
	}
	sub, err := h.filings.GetSubmission(r.Context(), submissionID)
	if err != nil {
		h.writeError(w, r, "get submission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil || sessionID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session id"))
		return id.SessionID{}, false
	}
	return sessionID, true
}

func (h *Handler) respondSnapshot(w http.ResponseWriter, r *http.Request, op string, snap *service.Snapshot, err error) {
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// writeError logs server-side failures loudly and client mistakes quietly.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	default:
		h.logger.DebugContext(ctx, op+" rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
