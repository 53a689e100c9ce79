package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/platform/sentinel"
	"taxfile/pkg/requestcontext"
)

// settleTimeout bounds the session write that follows the collaborator call.
// It runs detached from the request so a timed-out submit still clears its flag.
const settleTimeout = 5 * time.Second

// Submit finalises the caller's filing. The session is marked as submitting
// for the duration of the collaborator call, so a second submit or any edit
// is rejected with a conflict. On success the draft is discarded; on failure
// the flag is cleared and the form state is left exactly as it was.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID) (models.Receipt, error) {
	start := time.Now()
	defer s.metrics.ObserveSubmit(start)

	user, err := s.requireUser(ctx)
	if err != nil {
		return models.Receipt{}, err
	}

	ctx, span := s.tracer.Start(ctx, "filing.submit",
		trace.WithAttributes(attribute.String("session.id", sessionID.String())))
	defer span.End()

	sub, sess, err := s.beginSubmit(ctx, sessionID, user)
	if err != nil {
		span.SetStatus(codes.Error, "submit rejected")
		return models.Receipt{}, err
	}
	span.SetAttributes(
		attribute.String("filing.id", sub.FilingID().String()),
		attribute.String("submission.id", sub.ID().String()),
	)

	receipt, err := s.submitter.Submit(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission collaborator failed")
		settleCtx, cancel := settleContext(ctx)
		defer cancel()
		s.endSubmit(settleCtx, sessionID)
		s.audit.emitSubmitFailed(settleCtx, sess, err)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncSubmission("duplicate")
			return models.Receipt{}, dErrors.Wrap(err, dErrors.CodeConflict, "filing has already been submitted")
		}
		s.metrics.IncSubmission("failed")
		return models.Receipt{}, translate(&models.CollaboratorError{Op: "submit filing", Err: err})
	}

	settleCtx, cancel := settleContext(ctx)
	defer cancel()
	s.finishSubmit(settleCtx, sessionID)
	s.metrics.IncSubmission("accepted")
	if err := s.audit.emitSubmitted(settleCtx, sess, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit submitted filing",
			"submission_id", sub.ID(),
			"error", err,
		)
	}
	return receipt, nil
}

// beginSubmit assembles the submission and persists the submitting flag under
// the session lock. Assembly failures leave the session untouched.
func (s *Service) beginSubmit(ctx context.Context, sessionID id.SessionID, user *ports.User) (*models.Submission, *wizard.Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID, user)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.BeginSubmit(); err != nil {
		if errors.Is(err, wizard.ErrSubmitting) {
			s.metrics.IncSubmission("conflict")
		}
		return nil, nil, translate(err)
	}

	sub, err := sess.Assemble(id.NewSubmissionID(), models.Filer{ID: user.ID, Role: user.Role}, requestcontext.Now(ctx))
	if err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, nil, translate(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, nil, err
	}
	return sub, sess, nil
}

func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

// endSubmit clears the submitting flag after a failed collaborator call.
func (s *Service) endSubmit(ctx context.Context, sessionID id.SessionID) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	record, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to reload session after submit failure",
			"session_id", sessionID,
			"error", err,
		)
		return
	}
	sess, err := wizard.RestoreSession(s.registry, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to restore session after submit failure",
			"session_id", sessionID,
			"error", err,
		)
		return
	}
	sess.EndSubmit()
	if err := s.save(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to re-enable session after submit failure",
			"session_id", sessionID,
			"error", err,
		)
	}
}

// finishSubmit discards the draft of an accepted filing.
func (s *Service) finishSubmit(ctx context.Context, sessionID id.SessionID) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to discard submitted session",
			"session_id", sessionID,
			"error", err,
		)
	}
}
