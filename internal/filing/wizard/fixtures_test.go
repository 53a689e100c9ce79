package wizard_test

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
)

// completeValues is a filing that passes every step.
func completeValues() map[models.Field]any {
	return map[models.Field]any{
		models.FieldTaxYear:                     "2025",
		models.FieldFullName:                    "Ayesha Khan",
		models.FieldEmail:                       "ayesha@example.com",
		models.FieldCNIC:                        "1234512345671",
		models.FieldNationality:                 models.NationalityPakistani,
		models.FieldResidentialStatus:           models.StatusResident,
		models.FieldIncomeSources:               []string{models.SourceSalary, models.SourceRental},
		models.FieldSalaryIncome:                1200000.0,
		models.FieldTaxDeductedBySalaryEmployer: 50000.0,
		models.FieldRentalIncome:                "240,000.125",
		models.FieldDeductions:                  []string{models.DeductionZakat},
		models.FieldZakatAmount:                 2500.0,
		models.FieldAssetTypes:                  []string{models.AssetProperty},
		models.FieldOpeningWealth:               1000000.0,
		models.FieldClosingWealth:               1500000.0,
		models.FieldTaxCredits: models.Credits{
			models.CreditDonations: {Enabled: true, Amount: models.AmountOf(500)},
		},
		models.FieldBankName:     "Habib Bank",
		models.FieldAccountTitle: "Ayesha Khan",
		models.FieldIBAN:         "pk36 scbl 0000 0011 2345 6702",
		models.FieldConsentGiven: true,
	}
}

func completeState(t *testing.T) *wizard.FormState {
	t.Helper()
	state := wizard.NewFormState()
	require.Empty(t, state.Import(completeValues()))
	return state
}

func keys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
