package models

// StepID is the ordinal of a wizard step. The order is fixed.
type StepID int

const (
	StepTaxYear StepID = iota
	StepPersonalInfo
	StepIncomeSources
	StepIncomeDetails
	StepDeductions
	StepAssets
	StepWealthStatement
	StepTaxCredits
	StepBankDetails
	StepDocumentUpload
	StepReview
)

// StepCount is the number of wizard steps.
const StepCount = int(StepReview) + 1

var stepLabels = [StepCount]string{
	StepTaxYear:         "Tax Year",
	StepPersonalInfo:    "Personal Information",
	StepIncomeSources:   "Income Sources",
	StepIncomeDetails:   "Income Details",
	StepDeductions:      "Deductions",
	StepAssets:          "Assets",
	StepWealthStatement: "Wealth Statement",
	StepTaxCredits:      "Tax Credits",
	StepBankDetails:     "Bank Details",
	StepDocumentUpload:  "Document Upload",
	StepReview:          "Review & Submit",
}

// Label returns the display label of the step.
func (s StepID) Label() string {
	if !s.Valid() {
		return "Unknown"
	}
	return stepLabels[s]
}

// Valid reports whether s names a wizard step.
func (s StepID) Valid() bool {
	return s >= 0 && int(s) < StepCount
}
