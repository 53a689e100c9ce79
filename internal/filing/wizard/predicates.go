package wizard

import (
	"fmt"
	"slices"
	"strings"

	"taxfile/internal/filing/models"
)

const creditKeyPrefix = "taxCredits."

// CreditErrorKey is the error key used for a tax-credit entry.
func CreditErrorKey(ct models.CreditType) string {
	return creditKeyPrefix + string(ct)
}

var (
	personalInfoFields = []models.Field{
		models.FieldFullName, models.FieldEmail, models.FieldCNIC, models.FieldNationality,
		models.FieldResidentialStatus, models.FieldStayedOver183Days, models.FieldHasPakistanSourceIncome,
	}
	incomeDetailFields = []models.Field{
		models.FieldSalaryIncome, models.FieldTaxDeductedBySalaryEmployer, models.FieldBusinessIncome,
		models.FieldRentalIncome, models.FieldCapitalGainsIncome, models.FieldForeignIncomeAmount,
		models.FieldOtherIncomeAmount,
	}
	deductionFields = []models.Field{
		models.FieldDeductions, models.FieldZakatAmount, models.FieldWorkersWelfareFundAmount,
		models.FieldHealthInsuranceAmount,
	}
	wealthFields = []models.Field{models.FieldOpeningWealth, models.FieldClosingWealth}
	bankFields   = []models.Field{models.FieldBankName, models.FieldAccountTitle, models.FieldIBAN}
)

func buildSteps(taxYears []string) []StepDefinition {
	steps := []StepDefinition{
		{
			ID:        models.StepTaxYear,
			Reads:     []models.Field{models.FieldTaxYear},
			Writes:    []models.Field{models.FieldTaxYear},
			predicate: taxYearPredicate(taxYears),
		},
		{
			ID:        models.StepPersonalInfo,
			Reads:     personalInfoFields,
			Writes:    personalInfoFields,
			predicate: personalInfoPredicate,
		},
		{
			ID:        models.StepIncomeSources,
			Reads:     []models.Field{models.FieldIncomeSources},
			Writes:    []models.Field{models.FieldIncomeSources},
			predicate: permissive,
		},
		{
			ID:        models.StepIncomeDetails,
			Reads:     append([]models.Field{models.FieldIncomeSources}, incomeDetailFields...),
			Writes:    incomeDetailFields,
			predicate: incomeDetailsPredicate,
		},
		{
			ID:        models.StepDeductions,
			Reads:     deductionFields,
			Writes:    deductionFields,
			predicate: deductionsPredicate,
		},
		{
			ID:        models.StepAssets,
			Reads:     []models.Field{models.FieldAssetTypes},
			Writes:    []models.Field{models.FieldAssetTypes},
			predicate: permissive,
		},
		{
			ID:        models.StepWealthStatement,
			Reads:     append([]models.Field{models.FieldAssetTypes}, wealthFields...),
			Writes:    wealthFields,
			predicate: wealthStatementPredicate,
		},
		{
			ID:        models.StepTaxCredits,
			Reads:     []models.Field{models.FieldTaxCredits},
			Writes:    []models.Field{models.FieldTaxCredits},
			predicate: taxCreditsPredicate,
		},
		{
			ID:        models.StepBankDetails,
			Reads:     bankFields,
			Writes:    bankFields,
			predicate: bankDetailsPredicate,
		},
		{
			ID:        models.StepDocumentUpload,
			Reads:     []models.Field{models.FieldDocuments},
			Writes:    []models.Field{models.FieldDocuments},
			predicate: permissive,
		},
		{
			ID:        models.StepReview,
			Reads:     []models.Field{models.FieldConsentGiven},
			Writes:    []models.Field{models.FieldConsentGiven},
			predicate: reviewPredicate,
		},
	}
	for i := range steps {
		steps[i].Label = steps[i].ID.Label()
	}
	return steps
}

// permissive accepts any state. Used for the selection steps where choosing
// nothing is a legitimate answer.
func permissive(*View, *Checks) {}

func taxYearPredicate(taxYears []string) Predicate {
	return func(v *View, c *Checks) {
		year := v.Text(models.FieldTaxYear)
		switch {
		case year == "":
			c.FailField(models.FieldTaxYear, "Select a tax year")
		case !slices.Contains(taxYears, year):
			c.FailField(models.FieldTaxYear, fmt.Sprintf("Tax year %s is not open for filing", year))
		}
	}
}

func personalInfoPredicate(v *View, c *Checks) {
	if strings.TrimSpace(v.Text(models.FieldFullName)) == "" {
		c.FailField(models.FieldFullName, "Full name is required")
	}

	switch email := v.Text(models.FieldEmail); {
	case email == "":
		c.FailField(models.FieldEmail, "Email is required")
	case !ValidEmail(email):
		c.FailField(models.FieldEmail, "Enter a valid email address")
	}

	switch cnic := v.Text(models.FieldCNIC); {
	case cnic == "":
		c.FailField(models.FieldCNIC, "CNIC is required")
	case !ValidCNIC(cnic):
		c.FailField(models.FieldCNIC, "CNIC must have 13 digits in the form 12345-1234567-1")
	}

	nationality := v.Text(models.FieldNationality)
	if nationality != models.NationalityPakistani && nationality != models.NationalityOther {
		c.FailField(models.FieldNationality, "Select a nationality")
	}

	status := v.Text(models.FieldResidentialStatus)
	if status != models.StatusResident && status != models.StatusNonResident {
		c.FailField(models.FieldResidentialStatus, "Select a residential status")
	}

	if nationality == models.NationalityOther {
		if !v.Flag(models.FieldStayedOver183Days).Answered() {
			c.FailField(models.FieldStayedOver183Days, "Tell us whether you stayed in Pakistan for 183 days or more")
		}
		if !v.Flag(models.FieldHasPakistanSourceIncome).Answered() {
			c.FailField(models.FieldHasPakistanSourceIncome, "Tell us whether you earned income from Pakistani sources")
		}
	}
}

func incomeDetailsPredicate(v *View, c *Checks) {
	sources := v.List(models.FieldIncomeSources)
	for _, source := range sources {
		f, ok := models.IncomeAmountField(source)
		if !ok {
			continue
		}
		switch amount := v.Amount(f); {
		case !amount.Present():
			c.FailField(f, "Enter the amount for this income source")
		case amount.Value() < 0:
			c.FailField(f, "Amount cannot be negative")
		}
	}

	if !slices.Contains(sources, models.SourceSalary) {
		return
	}
	withheld := v.Amount(models.FieldTaxDeductedBySalaryEmployer)
	if !withheld.Present() {
		return
	}
	salary := v.Amount(models.FieldSalaryIncome)
	switch {
	case withheld.Value() < 0:
		c.FailField(models.FieldTaxDeductedBySalaryEmployer, "Amount cannot be negative")
	case salary.Present() && withheld.Value() > salary.Value():
		c.FailField(models.FieldTaxDeductedBySalaryEmployer, "Tax deducted cannot exceed salary income")
	}
}

func deductionsPredicate(v *View, c *Checks) {
	for _, deduction := range v.List(models.FieldDeductions) {
		f, ok := models.DeductionAmountField(deduction)
		if !ok {
			continue
		}
		if amount := v.Amount(f); !amount.Present() || amount.Value() <= 0 {
			c.FailField(f, "Enter an amount greater than zero")
		}
	}
}

func wealthStatementPredicate(v *View, c *Checks) {
	for _, f := range wealthFields {
		switch amount := v.Amount(f); {
		case !amount.Present():
			c.FailField(f, "Amount is required")
		case amount.Value() < 0:
			c.FailField(f, "Amount cannot be negative")
		}
	}

	closing := v.Amount(models.FieldClosingWealth)
	if len(v.List(models.FieldAssetTypes)) > 0 && closing.Present() && closing.Value() == 0 {
		c.FailField(models.FieldClosingWealth, "Closing wealth must be greater than zero when assets are declared")
	}
}

func taxCreditsPredicate(v *View, c *Checks) {
	credits := v.Credits()
	for _, ct := range models.CreditTypes {
		entry := credits.Entry(ct)
		if !entry.Enabled {
			continue
		}
		if !entry.Amount.Present() || entry.Amount.Value() <= 0 {
			c.Fail(CreditErrorKey(ct), "Enter an amount greater than zero")
		}
	}
}

func bankDetailsPredicate(v *View, c *Checks) {
	if strings.TrimSpace(v.Text(models.FieldBankName)) == "" {
		c.FailField(models.FieldBankName, "Bank name is required")
	}
	if strings.TrimSpace(v.Text(models.FieldAccountTitle)) == "" {
		c.FailField(models.FieldAccountTitle, "Account title is required")
	}
	switch iban := v.Text(models.FieldIBAN); {
	case iban == "":
		c.FailField(models.FieldIBAN, "IBAN is required")
	case !ValidIBAN(iban):
		c.FailField(models.FieldIBAN, "IBAN must look like PK36SCBL0000001123456702")
	}
}

func reviewPredicate(v *View, c *Checks) {
	if !v.Flag(models.FieldConsentGiven).True() {
		c.FailField(models.FieldConsentGiven, "Confirm that the information is correct before submitting")
	}
}
