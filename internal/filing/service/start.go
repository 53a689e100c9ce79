package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/requestcontext"
)

// Start opens a new session for the caller. With a filing id the session is
// rehydrated from the step data saved for that filing and resumes at the
// first step that is not yet valid; without one a new filing is started.
func (s *Service) Start(ctx context.Context, filingID *id.FilingID) (*Snapshot, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}

	fid := id.NewFilingID()
	if filingID != nil && !filingID.IsNil() {
		fid = *filingID
	}
	sess := wizard.NewSession(s.registry, id.NewSessionID(), fid, user.ID, requestcontext.Now(ctx))

	if filingID != nil && !filingID.IsNil() && s.stepData != nil {
		if err := s.checkFilingOwner(ctx, fid, user); err != nil {
			return nil, err
		}
		saved := s.rehydrate(ctx, fid)
		for _, step := range s.registry.Steps() {
			for _, importErr := range sess.Import(saved[step.ID]) {
				s.logger.WarnContext(ctx, "skipping saved field",
					"filing_id", fid,
					"step", step.ID,
					"error", importErr,
				)
			}
		}
		sess.Resume()
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.metrics.IncSessionStarted()
	s.audit.emitStarted(ctx, sess, filingID != nil)
	return snapshotOf(sess), nil
}

func (s *Service) checkFilingOwner(ctx context.Context, filingID id.FilingID, user *ports.User) error {
	owner, found, err := s.stepData.Owner(ctx, filingID)
	if err != nil {
		return dErrors.Wrap(&models.CollaboratorError{Op: "step data owner lookup", Err: err},
			dErrors.CodeUnavailable, "saved filing is temporarily unavailable")
	}
	if found && owner != user.ID {
		return dErrors.New(dErrors.CodeNotFound, "filing not found")
	}
	return nil
}

// rehydrate fetches every step of a filing in parallel. A failed fetch is
// logged and treated as "no prior data" for that step.
func (s *Service) rehydrate(ctx context.Context, filingID id.FilingID) map[models.StepID]ports.StepData {
	ctx, span := s.tracer.Start(ctx, "filing.rehydrate",
		trace.WithAttributes(attribute.String("filing.id", filingID.String())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.rehydrateTimeout)
	defer cancel()

	steps := s.registry.Steps()
	results := make([]ports.StepData, len(steps))

	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			data, err := s.stepData.GetStep(ctx, filingID, step.ID)
			if err != nil {
				s.metrics.IncRehydrateFailure()
				span.RecordError(err, trace.WithAttributes(attribute.Int("filing.step", int(step.ID))))
				s.logger.WarnContext(ctx, "step data unavailable, starting step empty",
					"filing_id", filingID,
					"step", step.ID,
					"error", err,
				)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	// Fetch errors are swallowed above; Wait only joins the goroutines.
	_ = g.Wait()

	out := make(map[models.StepID]ports.StepData, len(steps))
	failed := 0
	for i, step := range steps {
		if results[i] == nil {
			failed++
			continue
		}
		out[step.ID] = results[i]
	}
	span.SetAttributes(attribute.Int("filing.steps_restored", len(out)))
	if failed == len(steps) {
		span.SetStatus(codes.Error, "no step data could be restored")
	}
	return out
}
