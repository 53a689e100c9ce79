package service

import (
	"context"
	"log/slog"
	"strconv"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/wizard"
	"taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/device"
	"taxfile/pkg/requestcontext"
)

// auditEmitter builds filing audit events from the request context. Without a
// publisher events are only logged.
type auditEmitter struct {
	publisher ports.AuditPort
	logger    *slog.Logger
}

func (e *auditEmitter) base(ctx context.Context, action audit.AuditEvent, sess *wizard.Session) audit.Event {
	return audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    sess.Owner(),
		Subject:   sess.FilingID().String(),
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
		Device:    device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		ClientIP:  requestcontext.ClientIP(ctx),
	}
}

func (e *auditEmitter) emit(ctx context.Context, event audit.Event) error {
	if e.logger != nil {
		e.logger.InfoContext(ctx, event.Action,
			"user_id", event.UserID,
			"filing_id", event.Subject,
			"decision", event.Decision,
			"request_id", event.RequestID,
			"device", event.Device,
		)
	}
	if e.publisher == nil {
		return nil
	}
	return e.publisher.Emit(ctx, event)
}

// emitBestEffort is for operational events; a failed emit never fails the
// filing operation.
func (e *auditEmitter) emitBestEffort(ctx context.Context, event audit.Event) {
	if err := e.emit(ctx, event); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (e *auditEmitter) emitStarted(ctx context.Context, sess *wizard.Session, resumed bool) {
	event := e.base(ctx, audit.EventFilingStarted, sess)
	event.Decision = "new"
	if resumed {
		event.Decision = "resumed"
	}
	e.emitBestEffort(ctx, event)
}

func (e *auditEmitter) emitStepCompleted(ctx context.Context, sess *wizard.Session, step models.StepID) {
	event := e.base(ctx, audit.EventFilingStepCompleted, sess)
	event.Reason = strconv.Itoa(int(step)) + ":" + step.Label()
	e.emitBestEffort(ctx, event)
}

func (e *auditEmitter) emitSubmitFailed(ctx context.Context, sess *wizard.Session, cause error) {
	event := e.base(ctx, audit.EventFilingSubmitFailed, sess)
	event.Decision = "failed"
	event.Reason = cause.Error()
	e.emitBestEffort(ctx, event)
}

func (e *auditEmitter) emitSubmitted(ctx context.Context, sess *wizard.Session, sub *models.Submission) error {
	event := e.base(ctx, audit.EventFilingSubmitted, sess)
	event.Decision = "accepted"
	event.Reason = sub.ID().String()
	return e.emit(ctx, event)
}

func (e *auditEmitter) emitDiscarded(ctx context.Context, sess *wizard.Session) error {
	event := e.base(ctx, audit.EventFilingDiscarded, sess)
	event.Decision = "discarded"
	return e.emit(ctx, event)
}
