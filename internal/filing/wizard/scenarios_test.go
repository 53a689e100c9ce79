package wizard_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/testutil"
)

// TestFilerScenarios walks the wizard the way a filer would.
func TestFilerScenarios(t *testing.T) {
	registry := wizard.NewRegistry()
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	newSession := func() *wizard.Session {
		return wizard.NewSession(registry, id.NewSessionID(), id.NewFilingID(), id.NewUserID(), now)
	}

	testutil.Given(t, "a new filing", func(t *testing.T) {
		testutil.When(t, "the filer presses next without choosing a tax year", func(t *testing.T) {
			sess := newSession()
			err := sess.Next()

			testutil.Then(t, "the step is blocked and names the field", func(t *testing.T) {
				var stepErr *models.StepValidationError
				require.ErrorAs(t, err, &stepErr)
				assert.Contains(t, stepErr.Fields, string(models.FieldTaxYear))
			})
			testutil.And(t, "the filer stays on the tax year step", func(t *testing.T) {
				assert.Equal(t, 0, sess.Current())
			})
		})

		testutil.When(t, "the filer presses back on the first step", func(t *testing.T) {
			sess := newSession()
			sess.Back()

			testutil.Then(t, "they stay on the first step", func(t *testing.T) {
				assert.Equal(t, 0, sess.Current())
			})
		})
	})

	testutil.Given(t, "a filer who declared salary income", func(t *testing.T) {
		sess := newSession()
		require.NoError(t, sess.Toggle(models.FieldIncomeSources, models.SourceSalary, true))
		require.NoError(t, sess.Set(models.FieldSalaryIncome, 1200000.0))
		require.NoError(t, sess.Set(models.FieldTaxDeductedBySalaryEmployer, 50000.0))

		testutil.When(t, "salary is unticked", func(t *testing.T) {
			require.NoError(t, sess.Toggle(models.FieldIncomeSources, models.SourceSalary, false))

			testutil.Then(t, "the salary amounts are cleared", func(t *testing.T) {
				state := sess.State()
				assert.False(t, state.Amount(models.FieldSalaryIncome).Present())
				assert.False(t, state.Amount(models.FieldTaxDeductedBySalaryEmployer).Present())
			})
		})
	})

	testutil.Given(t, "a complete filing without consent", func(t *testing.T) {
		state := wizard.NewFormState()
		values := completeValues()
		values[models.FieldConsentGiven] = false
		require.Empty(t, state.Import(values))

		testutil.When(t, "it is assembled", func(t *testing.T) {
			_, err := wizard.Assemble(registry, state, wizard.SubmissionMeta{
				ID:       id.NewSubmissionID(),
				FilingID: id.NewFilingID(),
				Filer:    models.Filer{ID: id.NewUserID()},
				At:       now,
			})

			testutil.Then(t, "submission is refused at the review step", func(t *testing.T) {
				var subErr *models.SubmissionError
				require.True(t, errors.As(err, &subErr))
				assert.Equal(t, models.StepReview, subErr.Step)
			})
		})
	})
}
