package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	id "taxfile/pkg/domain"
	dErrors "taxfile/pkg/domain-errors"
)

// IncomeLine is one selected income source with its normalised amount.
type IncomeLine struct {
	Source      string  `json:"source"`
	Amount      float64 `json:"amount"`
	TaxWithheld float64 `json:"tax_withheld,omitempty"`
}

// Filer identifies who a submission belongs to, as supplied by the identity
// collaborator.
type Filer struct {
	ID   id.UserID
	Role string
}

// SubmissionParams carries everything needed to build a Submission.
type SubmissionParams struct {
	ID             id.SubmissionID
	FilingID       id.FilingID
	Filer          Filer
	TaxYear        string
	Fields         json.RawMessage
	Income         []IncomeLine
	TaxCreditTotal float64
	CreatedAt      time.Time
}

// Submission is the finalised, immutable payload of one filing. All accessors
// return copies; nothing can change a Submission once built.
type Submission struct {
	id             id.SubmissionID
	filingID       id.FilingID
	filer          Filer
	taxYear        string
	fields         []byte
	income         []IncomeLine
	totalIncome    float64
	taxCreditTotal float64
	createdAt      time.Time
}

// NewSubmission validates params and returns a Submission that owns private
// copies of the field snapshot and income lines.
func NewSubmission(p SubmissionParams) (*Submission, error) {
	if p.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "submission id is required")
	}
	if p.Filer.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "filer identity is required")
	}
	if p.TaxYear == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tax year is required")
	}
	if !json.Valid(p.Fields) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "field snapshot must be valid JSON")
	}
	if p.CreatedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "created at is required")
	}

	var compacted bytes.Buffer
	if err := json.Compact(&compacted, p.Fields); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "compact field snapshot")
	}

	income := make([]IncomeLine, len(p.Income))
	copy(income, p.Income)
	var total float64
	for _, line := range income {
		total += line.Amount
	}
	total = math.Round(total*100) / 100

	return &Submission{
		id:             p.ID,
		filingID:       p.FilingID,
		filer:          p.Filer,
		taxYear:        p.TaxYear,
		fields:         compacted.Bytes(),
		income:         income,
		totalIncome:    total,
		taxCreditTotal: p.TaxCreditTotal,
		createdAt:      p.CreatedAt.UTC(),
	}, nil
}

func (s *Submission) ID() id.SubmissionID     { return s.id }
func (s *Submission) FilingID() id.FilingID   { return s.filingID }
func (s *Submission) Filer() Filer            { return s.filer }
func (s *Submission) TaxYear() string         { return s.taxYear }
func (s *Submission) TotalIncome() float64    { return s.totalIncome }
func (s *Submission) TaxCreditTotal() float64 { return s.taxCreditTotal }
func (s *Submission) CreatedAt() time.Time    { return s.createdAt }

// Fields returns a copy of the canonical JSON snapshot of every form field.
func (s *Submission) Fields() json.RawMessage {
	return append(json.RawMessage(nil), s.fields...)
}

// Income returns a copy of the normalised income lines.
func (s *Submission) Income() []IncomeLine {
	out := make([]IncomeLine, len(s.income))
	copy(out, s.income)
	return out
}

type submissionJSON struct {
	ID             id.SubmissionID `json:"id"`
	FilingID       id.FilingID     `json:"filing_id"`
	FilerID        id.UserID       `json:"filer_id"`
	FilerRole      string          `json:"filer_role,omitempty"`
	TaxYear        string          `json:"tax_year"`
	Fields         json.RawMessage `json:"fields"`
	Income         []IncomeLine    `json:"income"`
	TotalIncome    float64         `json:"total_income"`
	TaxCreditTotal float64         `json:"tax_credit_total"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MarshalJSON renders the wire payload handed to persistence and messaging.
func (s *Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(submissionJSON{
		ID:             s.id,
		FilingID:       s.filingID,
		FilerID:        s.filer.ID,
		FilerRole:      s.filer.Role,
		TaxYear:        s.taxYear,
		Fields:         s.fields,
		Income:         s.Income(),
		TotalIncome:    s.totalIncome,
		TaxCreditTotal: s.taxCreditTotal,
		CreatedAt:      s.createdAt,
	})
}

// Receipt is what the submission collaborator returns on success.
type Receipt struct {
	ID          id.SubmissionID `json:"id"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
