package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/ports/mocks"
	"taxfile/internal/filing/store/session"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/platform/audit"
	"taxfile/pkg/platform/sentinel"
	"taxfile/pkg/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stepDataMock struct {
	*mocks.MockStepDataPort
	*mocks.MockOwnerLookup
}

// ctxBoundSessions fails once the caller's context is done, the way a
// network-backed store does.
type ctxBoundSessions struct {
	*session.InMemoryStore
}

func (c ctxBoundSessions) Save(ctx context.Context, record wizard.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.InMemoryStore.Save(ctx, record)
}

func (c ctxBoundSessions) FindByID(ctx context.Context, sessionID id.SessionID) (wizard.Record, error) {
	if err := ctx.Err(); err != nil {
		return wizard.Record{}, err
	}
	return c.InMemoryStore.FindByID(ctx, sessionID)
}

func (c ctxBoundSessions) Delete(ctx context.Context, sessionID id.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.InMemoryStore.Delete(ctx, sessionID)
}

type ServiceSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	identity      *mocks.MockIdentityPort
	submitter     *mocks.MockSubmissionPort
	reader        *mocks.MockSubmissionReader
	steps         *mocks.MockStepDataPort
	owners        *mocks.MockOwnerLookup
	auditor       *mocks.MockAuditPort
	sessions      *session.InMemoryStore
	registry      *wizard.Registry
	service       *Service
	user          *ports.User
	currentCaller *ports.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.identity = mocks.NewMockIdentityPort(s.ctrl)
	s.submitter = mocks.NewMockSubmissionPort(s.ctrl)
	s.reader = mocks.NewMockSubmissionReader(s.ctrl)
	s.steps = mocks.NewMockStepDataPort(s.ctrl)
	s.owners = mocks.NewMockOwnerLookup(s.ctrl)
	s.auditor = mocks.NewMockAuditPort(s.ctrl)
	s.sessions = session.NewInMemory(time.Hour)
	s.registry = wizard.NewRegistry(wizard.WithTaxYears(wizard.DefaultTaxYears(2025, 6)...))

	s.user = &ports.User{ID: id.NewUserID(), Role: "filer"}
	s.currentCaller = s.user
	s.identity.EXPECT().CurrentUser(gomock.Any()).DoAndReturn(func(context.Context) *ports.User {
		return s.currentCaller
	}).AnyTimes()

	s.service = New(s.registry, ctxBoundSessions{s.sessions}, s.identity, s.submitter,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
		WithStepData(stepDataMock{s.steps, s.owners}),
		WithSubmissionReader(s.reader),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) allowAudit() {
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ServiceSuite) allowStepSaves() {
	s.steps.EXPECT().SaveStep(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

// completeFiling lists values in an order where no later field clears an
// earlier one.
var completeFiling = []struct {
	field string
	value any
}{
	{"taxYear", "2025"},
	{"fullName", "Ayesha Khan"},
	{"email", "ayesha@example.com"},
	{"cnic", "1234512345671"},
	{"nationality", models.NationalityPakistani},
	{"residentialStatus", models.StatusResident},
	{"incomeSources", []string{models.SourceSalary}},
	{"salaryIncome", 1200000.0},
	{"taxDeductedBySalaryEmployer", 50000.0},
	{"deductions", []string{models.DeductionZakat}},
	{"zakatAmount", 2500.0},
	{"assetTypes", []string{models.AssetProperty}},
	{"openingWealth", 1000000.0},
	{"closingWealth", 1500000.0},
	{"bankName", "Habib Bank"},
	{"accountTitle", "Ayesha Khan"},
	{"taxCredits", models.Credits{
		models.CreditDonations: {Enabled: true, Amount: models.AmountOf(500)},
	}},
	{"iban", "pk36 scbl 0000 0011 2345 6702"},
	{"consentGiven", true},
}

// startAtReview opens a session, fills every step and jumps to review.
func (s *ServiceSuite) startAtReview(ctx context.Context) *Snapshot {
	snap, err := s.service.Start(ctx, nil)
	s.Require().NoError(err)
	for _, fv := range completeFiling {
		_, err := s.service.SetField(ctx, snap.SessionID, fv.field, fv.value)
		s.Require().NoError(err, fv.field)
	}
	snap, err = s.service.GoTo(ctx, snap.SessionID, s.registry.Last())
	s.Require().NoError(err)
	s.Require().True(snap.IsLast)
	return snap
}

func (s *ServiceSuite) TestRequiresAuthenticatedCaller() {
	ctx := context.Background()
	s.currentCaller = nil

	_, err := s.service.Start(ctx, nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Steps(ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Submit(ctx, id.NewSessionID())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestStartAndNavigate() {
	ctx := context.Background()
	s.allowAudit()

	s.Run("new session starts at the first step", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		s.Equal(models.StepTaxYear, snap.Current)
		s.False(snap.FilingID.IsNil())
		s.Empty(snap.Validated)
	})

	s.Run("next with an invalid step reports field errors and stays", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)

		_, err = s.service.Next(ctx, snap.SessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Contains(de.Fields, string(models.FieldTaxYear))

		got, err := s.service.Get(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.Equal(models.StepTaxYear, got.Current)
	})

	s.Run("next saves the validated step", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		_, err = s.service.SetField(ctx, snap.SessionID, "taxYear", "2024")
		s.Require().NoError(err)

		s.steps.EXPECT().SaveStep(gomock.Any(), snap.FilingID, s.user.ID, models.StepTaxYear,
			ports.StepData{models.FieldTaxYear: "2024"}).Return(nil)

		next, err := s.service.Next(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.Equal(models.StepPersonalInfo, next.Current)
		s.Equal([]models.StepID{models.StepTaxYear}, next.Validated)
	})

	s.Run("a failed step save does not fail next", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		_, err = s.service.SetField(ctx, snap.SessionID, "taxYear", "2024")
		s.Require().NoError(err)

		s.steps.EXPECT().SaveStep(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("db down"))

		next, err := s.service.Next(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.Equal(models.StepPersonalInfo, next.Current)
	})

	s.Run("back at the first step is a no-op", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		back, err := s.service.Back(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.Equal(models.StepTaxYear, back.Current)
	})

	s.Run("goto out of range is a bad request", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		_, err = s.service.GoTo(ctx, snap.SessionID, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown field is a validation error", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		_, err = s.service.SetField(ctx, snap.SessionID, "favouriteColour", "blue")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("toggle adds an option", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		got, err := s.service.Toggle(ctx, snap.SessionID, "incomeSources", models.SourceRental, true)
		s.Require().NoError(err)
		s.Equal([]string{models.SourceRental}, got.Values[models.FieldIncomeSources])
	})
}

func (s *ServiceSuite) TestSessionsAreScopedToOwner() {
	ctx := context.Background()
	s.allowAudit()

	snap, err := s.service.Start(ctx, nil)
	s.Require().NoError(err)

	s.currentCaller = &ports.User{ID: id.NewUserID()}

	_, err = s.service.Get(ctx, snap.SessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.SetField(ctx, snap.SessionID, "taxYear", "2025")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Discard(ctx, snap.SessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSubmit() {
	ctx := context.Background()
	s.allowAudit()
	s.allowStepSaves()

	s.Run("accepted submission discards the draft", func() {
		snap := s.startAtReview(ctx)
		submittedAt := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

		var captured *models.Submission
		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sub *models.Submission) (models.Receipt, error) {
				captured = sub
				return models.Receipt{ID: sub.ID(), SubmittedAt: submittedAt}, nil
			})

		receipt, err := s.service.Submit(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.Require().NotNil(captured)
		s.Equal(captured.ID(), receipt.ID)
		s.Equal(snap.FilingID, captured.FilingID())
		s.Equal(s.user.ID, captured.Filer().ID)
		s.Equal("2025", captured.TaxYear())
		s.InDelta(1200000.0, captured.TotalIncome(), 0.001)

		_, err = s.service.Get(ctx, snap.SessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("submit before review is a conflict", func() {
		snap, err := s.service.Start(ctx, nil)
		s.Require().NoError(err)
		_, err = s.service.Submit(ctx, snap.SessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing consent is rejected before the collaborator", func() {
		snap := s.startAtReview(ctx)
		_, err := s.service.SetField(ctx, snap.SessionID, "consentGiven", false)
		s.Require().NoError(err)

		_, err = s.service.Submit(ctx, snap.SessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		got, err := s.service.Get(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.False(got.Submitting)
	})

	s.Run("second submit while one is in flight is a conflict", func() {
		snap := s.startAtReview(ctx)

		var inFlightSubmitErr, inFlightEditErr error
		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, sub *models.Submission) (models.Receipt, error) {
				_, inFlightSubmitErr = s.service.Submit(ctx, snap.SessionID)
				_, inFlightEditErr = s.service.SetField(ctx, snap.SessionID, "fullName", "Someone Else")
				return models.Receipt{ID: sub.ID(), SubmittedAt: time.Now()}, nil
			}).Times(1)

		_, err := s.service.Submit(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.True(dErrors.HasCode(inFlightSubmitErr, dErrors.CodeConflict))
		s.True(dErrors.HasCode(inFlightEditErr, dErrors.CodeConflict))
	})

	s.Run("collaborator failure is unavailable and re-enables the session", func() {
		snap := s.startAtReview(ctx)
		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(models.Receipt{}, errors.New("back office timeout"))

		_, err := s.service.Submit(ctx, snap.SessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		got, err := s.service.Get(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.False(got.Submitting)
		s.True(got.IsLast)
		s.Equal("Ayesha Khan", got.Values[models.FieldFullName])

		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sub *models.Submission) (models.Receipt, error) {
				return models.Receipt{ID: sub.ID(), SubmittedAt: time.Now()}, nil
			})
		_, err = s.service.Submit(ctx, snap.SessionID)
		s.NoError(err)
	})

	s.Run("timed out submit still re-enables the session", func() {
		snap := s.startAtReview(ctx)
		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ *models.Submission) (models.Receipt, error) {
				<-ctx.Done()
				return models.Receipt{}, ctx.Err()
			})

		reqCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := s.service.Submit(reqCtx, snap.SessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

		got, err := s.service.Get(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.False(got.Submitting)
		_, err = s.service.SetField(ctx, snap.SessionID, "fullName", "Ayesha K. Khan")
		s.NoError(err)
	})

	s.Run("duplicate filing is a conflict", func() {
		snap := s.startAtReview(ctx)
		s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(models.Receipt{}, fmt.Errorf("save submission: %w", sentinel.ErrConflict))

		_, err := s.service.Submit(ctx, snap.SessionID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.False(dErrors.HasCode(err, dErrors.CodeUnavailable))

		got, err := s.service.Get(ctx, snap.SessionID)
		s.Require().NoError(err)
		s.False(got.Submitting)
	})
}

func (s *ServiceSuite) TestSubmitAuditsCompliance() {
	ctx := testutil.WithRequestMetadata(context.Background(), "req-42", "203.0.113.9",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	s.allowStepSaves()

	var actions []string
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event audit.Event) error {
			actions = append(actions, event.Action)
			s.Equal("req-42", event.RequestID)
			s.Equal("203.0.113.9", event.ClientIP)
			s.Contains(event.Device, "Firefox")
			s.Equal(s.user.ID, event.UserID)
			return nil
		}).AnyTimes()

	snap := s.startAtReview(ctx)
	s.submitter.EXPECT().Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sub *models.Submission) (models.Receipt, error) {
			return models.Receipt{ID: sub.ID(), SubmittedAt: time.Now()}, nil
		})

	_, err := s.service.Submit(ctx, snap.SessionID)
	s.Require().NoError(err)
	s.Contains(actions, string(audit.EventFilingStarted))
	s.Contains(actions, string(audit.EventFilingSubmitted))
}

func (s *ServiceSuite) TestDiscard() {
	ctx := context.Background()
	s.allowAudit()

	snap, err := s.service.Start(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Discard(ctx, snap.SessionID))

	_, err = s.service.Get(ctx, snap.SessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.Discard(ctx, snap.SessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestResumeFiling() {
	ctx := context.Background()
	s.allowAudit()

	s.Run("rehydrates saved steps and resumes at the first invalid one", func() {
		filingID := id.NewFilingID()
		s.owners.EXPECT().Owner(gomock.Any(), filingID).Return(s.user.ID, true, nil)
		s.steps.EXPECT().GetStep(gomock.Any(), filingID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.FilingID, step models.StepID) (ports.StepData, error) {
				switch step {
				case models.StepTaxYear:
					return ports.StepData{models.FieldTaxYear: "2024"}, nil
				case models.StepPersonalInfo:
					return nil, errors.New("timeout")
				default:
					return ports.StepData{}, nil
				}
			}).Times(s.registry.Len())

		snap, err := s.service.Start(ctx, &filingID)
		s.Require().NoError(err)
		s.Equal(filingID, snap.FilingID)
		s.Equal(models.StepPersonalInfo, snap.Current)
		s.Equal("2024", snap.Values[models.FieldTaxYear])
	})

	s.Run("filing owned by someone else is not found", func() {
		filingID := id.NewFilingID()
		s.owners.EXPECT().Owner(gomock.Any(), filingID).Return(id.NewUserID(), true, nil)

		_, err := s.service.Start(ctx, &filingID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("owner lookup failure is unavailable", func() {
		filingID := id.NewFilingID()
		s.owners.EXPECT().Owner(gomock.Any(), filingID).Return(id.UserID{}, false, errors.New("db down"))

		_, err := s.service.Start(ctx, &filingID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestGetSubmission() {
	ctx := context.Background()
	submissionID := id.NewSubmissionID()

	s.Run("store miss is not found", func() {
		s.reader.EXPECT().FindByID(gomock.Any(), submissionID).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.GetSubmission(ctx, submissionID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
