package wizard

import (
	"encoding/json"
	"fmt"
	"time"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
)

// SubmissionMeta is the identity and timing of a submission, supplied by the
// caller because the wizard engine owns neither clocks nor ids.
type SubmissionMeta struct {
	ID       id.SubmissionID
	FilingID id.FilingID
	Filer    models.Filer
	At       time.Time
}

// Assemble turns a confirmed form state into an immutable Submission. Every
// step is re-validated at this moment, including steps marked valid earlier,
// and the first failing step is named in a *models.SubmissionError. Derived
// values are computed here and nowhere else.
func Assemble(registry *Registry, state *FormState, meta SubmissionMeta) (*models.Submission, error) {
	if !state.Flag(models.FieldConsentGiven).True() {
		return nil, &models.SubmissionError{
			Step:   models.StepReview,
			Label:  models.StepReview.Label(),
			Reason: "consent has not been given",
		}
	}
	for _, step := range registry.steps {
		if res := registry.Validate(step.ID, state); !res.Valid {
			return nil, &models.SubmissionError{
				Step:   step.ID,
				Label:  step.Label,
				Reason: fmt.Sprintf("%d field(s) need attention", len(res.Errors)),
			}
		}
	}

	snapshot, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("snapshot form state: %w", err)
	}

	return models.NewSubmission(models.SubmissionParams{
		ID:             meta.ID,
		FilingID:       meta.FilingID,
		Filer:          meta.Filer,
		TaxYear:        state.Text(models.FieldTaxYear),
		Fields:         snapshot,
		Income:         IncomeLines(state),
		TaxCreditTotal: state.Credits().Total(),
		CreatedAt:      meta.At,
	})
}

// IncomeLines lists the selected income sources in selection order with their
// amounts normalised: empty reads as 0 and values are rounded to two decimals.
func IncomeLines(state *FormState) []models.IncomeLine {
	sources := state.List(models.FieldIncomeSources)
	lines := make([]models.IncomeLine, 0, len(sources))
	for _, source := range sources {
		f, ok := models.IncomeAmountField(source)
		if !ok {
			continue
		}
		line := models.IncomeLine{Source: source, Amount: state.Amount(f).Normalized()}
		if source == models.SourceSalary {
			line.TaxWithheld = state.Amount(models.FieldTaxDeductedBySalaryEmployer).Normalized()
		}
		lines = append(lines, line)
	}
	return lines
}

// Assemble builds the submission from the session's state.
func (s *Session) Assemble(submissionID id.SubmissionID, filer models.Filer, at time.Time) (*models.Submission, error) {
	return Assemble(s.registry, s.state, SubmissionMeta{
		ID:       submissionID,
		FilingID: s.filingID,
		Filer:    filer,
		At:       at,
	})
}
