package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	filingmetrics "taxfile/internal/filing/metrics"
	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/requestcontext"
)

// SessionStore keeps draft wizard sessions between requests. Implementations
// expire records after a TTL and return sentinel.ErrNotFound for missing or
// expired sessions.
type SessionStore interface {
	Save(ctx context.Context, record wizard.Record) error
	FindByID(ctx context.Context, sessionID id.SessionID) (wizard.Record, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
}

// StepDataStore is the step-data collaborator plus the owner lookup used to
// keep one filer from resuming another's filing.
type StepDataStore interface {
	ports.StepDataPort
	ports.OwnerLookup
}

const (
	defaultRehydrateTimeout = 5 * time.Second
	defaultStepSaveTimeout  = 2 * time.Second
	tracerName              = "taxfile/internal/filing/service"
)

// Service orchestrates wizard sessions: it resolves the caller, serialises
// access to each session, loads and saves drafts, and talks to the step-data
// and submission collaborators. The wizard engine itself stays free of I/O.
type Service struct {
	registry    *wizard.Registry
	sessions    SessionStore
	identity    ports.IdentityPort
	submitter   ports.SubmissionPort
	stepData    StepDataStore
	submissions ports.SubmissionReader
	audit       *auditEmitter
	locks       *sessionLocks
	logger      *slog.Logger
	metrics     *filingmetrics.Metrics
	tracer      trace.Tracer

	rehydrateTimeout time.Duration
	stepSaveTimeout  time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *filingmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher routes filing audit events to publisher.
func WithAuditPublisher(publisher ports.AuditPort) Option {
	return func(s *Service) {
		s.audit.publisher = publisher
	}
}

// WithStepData enables saving validated steps and resuming filings.
func WithStepData(store StepDataStore) Option {
	return func(s *Service) {
		s.stepData = store
	}
}

// WithSubmissionReader enables GetSubmission.
func WithSubmissionReader(reader ports.SubmissionReader) Option {
	return func(s *Service) {
		s.submissions = reader
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithRehydrateTimeout bounds the parallel step-data fetch on Start.
func WithRehydrateTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rehydrateTimeout = d
		}
	}
}

// New constructs a Service.
func New(registry *wizard.Registry, sessions SessionStore, identity ports.IdentityPort, submitter ports.SubmissionPort, opts ...Option) *Service {
	s := &Service{
		registry:         registry,
		sessions:         sessions,
		identity:         identity,
		submitter:        submitter,
		audit:            &auditEmitter{},
		locks:            &sessionLocks{},
		logger:           slog.Default(),
		tracer:           otel.Tracer(tracerName),
		rehydrateTimeout: defaultRehydrateTimeout,
		stepSaveTimeout:  defaultStepSaveTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.audit.logger = s.logger
	return s
}

// Snapshot is a read-only view of a session handed to transports.
type Snapshot struct {
	SessionID  id.SessionID
	FilingID   id.FilingID
	Current    models.StepID
	Label      string
	IsLast     bool
	Submitting bool
	Validated  []models.StepID
	Values     map[models.Field]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func snapshotOf(sess *wizard.Session) *Snapshot {
	step := sess.CurrentStep()
	return &Snapshot{
		SessionID:  sess.ID(),
		FilingID:   sess.FilingID(),
		Current:    step,
		Label:      step.Label(),
		IsLast:     sess.IsLast(),
		Submitting: sess.Submitting(),
		Validated:  sess.Validated(),
		Values:     sess.State().Export(models.AllFields()),
		CreatedAt:  sess.CreatedAt(),
		UpdatedAt:  sess.UpdatedAt(),
	}
}

// Steps lists the registry in order.
func (s *Service) Steps(ctx context.Context) ([]wizard.StepDefinition, error) {
	if _, err := s.requireUser(ctx); err != nil {
		return nil, err
	}
	return s.registry.Steps(), nil
}

// Get returns the caller's session.
func (s *Service) Get(ctx context.Context, sessionID id.SessionID) (*Snapshot, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.load(ctx, sessionID, user)
	if err != nil {
		return nil, err
	}
	return snapshotOf(sess), nil
}

// SetField writes one field of the caller's session.
func (s *Service) SetField(ctx context.Context, sessionID id.SessionID, field string, value any) (*Snapshot, error) {
	f, err := models.ParseField(field)
	if err != nil {
		return nil, translate(err)
	}
	return s.mutate(ctx, sessionID, func(_ context.Context, sess *wizard.Session) error {
		return sess.Set(f, value)
	})
}

// Toggle includes or excludes optionID in a multi-select field.
func (s *Service) Toggle(ctx context.Context, sessionID id.SessionID, field, optionID string, included bool) (*Snapshot, error) {
	f, err := models.ParseField(field)
	if err != nil {
		return nil, translate(err)
	}
	return s.mutate(ctx, sessionID, func(_ context.Context, sess *wizard.Session) error {
		return sess.Toggle(f, optionID, included)
	})
}

// Next validates the current step and advances. The validated step's fields
// are saved through the step-data collaborator; a failed save is logged only.
func (s *Service) Next(ctx context.Context, sessionID id.SessionID) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(ctx context.Context, sess *wizard.Session) error {
		from := sess.CurrentStep()
		if err := sess.Next(); err != nil {
			s.recordValidationFailure(err)
			return err
		}
		s.metrics.IncStepTransition("next", sess.CurrentStep().Label())
		s.saveSteps(ctx, sess, from, from+1)
		s.audit.emitStepCompleted(ctx, sess, from)
		return nil
	})
}

// Back moves to the previous step without validation.
func (s *Service) Back(ctx context.Context, sessionID id.SessionID) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(_ context.Context, sess *wizard.Session) error {
		if sess.Submitting() {
			return wizard.ErrSubmitting
		}
		sess.Back()
		s.metrics.IncStepTransition("back", sess.CurrentStep().Label())
		return nil
	})
}

// GoTo jumps to index. Forward jumps validate every step they skip over.
func (s *Service) GoTo(ctx context.Context, sessionID id.SessionID, index int) (*Snapshot, error) {
	return s.mutate(ctx, sessionID, func(ctx context.Context, sess *wizard.Session) error {
		from := sess.CurrentStep()
		if err := sess.GoTo(index); err != nil {
			s.recordValidationFailure(err)
			return err
		}
		s.metrics.IncStepTransition("goto", sess.CurrentStep().Label())
		if to := sess.CurrentStep(); to > from {
			s.saveSteps(ctx, sess, from, to)
		}
		return nil
	})
}

// Discard removes the caller's draft. Nothing else is cleaned up.
func (s *Service) Discard(ctx context.Context, sessionID id.SessionID) error {
	user, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID, user)
	if err != nil {
		return err
	}
	if sess.Submitting() {
		return translate(wizard.ErrSubmitting)
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return translateStoreErr(err, "session")
	}
	if err := s.audit.emitDiscarded(ctx, sess); err != nil {
		s.logger.ErrorContext(ctx, "failed to audit discarded filing",
			"session_id", sessionID,
			"error", err,
		)
	}
	return nil
}

// GetSubmission returns one of the caller's accepted submissions.
func (s *Service) GetSubmission(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if s.submissions == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, translateStoreErr(err, "submission")
	}
	if sub.Filer().ID != user.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return sub, nil
}

// mutate runs fn on the caller's session under the session lock and saves the
// result. When fn fails nothing is saved.
func (s *Service) mutate(ctx context.Context, sessionID id.SessionID, fn func(context.Context, *wizard.Session) error) (*Snapshot, error) {
	user, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID, user)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, sess); err != nil {
		return nil, translate(err)
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return snapshotOf(sess), nil
}

func (s *Service) requireUser(ctx context.Context) (*ports.User, error) {
	user := s.identity.CurrentUser(ctx)
	if user == nil || user.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return user, nil
}

// load restores a session owned by user. Sessions of other users are reported
// as missing.
func (s *Service) load(ctx context.Context, sessionID id.SessionID, user *ports.User) (*wizard.Session, error) {
	record, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, translateStoreErr(err, "session")
	}
	if record.Owner != user.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	sess, err := wizard.RestoreSession(s.registry, record)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore session")
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *wizard.Session) error {
	sess.Touch(requestcontext.Now(ctx))
	record, err := sess.Record()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode session")
	}
	if err := s.sessions.Save(ctx, record); err != nil {
		return translateStoreErr(err, "session")
	}
	return nil
}

// saveSteps writes the fields of steps [from, to) through the step-data
// collaborator. Failures are logged and counted, never returned.
func (s *Service) saveSteps(ctx context.Context, sess *wizard.Session, from, to models.StepID) {
	if s.stepData == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.stepSaveTimeout)
	defer cancel()

	state := sess.State()
	for step := from; step < to; step++ {
		def, ok := s.registry.Step(step)
		if !ok {
			continue
		}
		data := ports.StepData(state.Export(def.Writes))
		if err := s.stepData.SaveStep(ctx, sess.FilingID(), sess.Owner(), step, data); err != nil {
			s.metrics.IncStepSaveFailure()
			s.logger.WarnContext(ctx, "failed to save step data",
				"session_id", sess.ID(),
				"filing_id", sess.FilingID(),
				"step", step,
				"error", err,
			)
		}
	}
}

func (s *Service) recordValidationFailure(err error) {
	if sve, ok := asStepValidation(err); ok {
		s.metrics.IncValidationFailure(sve.Label)
	}
}
