package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
)

type RegistrySuite struct {
	suite.Suite
	registry *wizard.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = wizard.NewRegistry()
}

func (s *RegistrySuite) TestOrder() {
	steps := s.registry.Steps()
	s.Require().Len(steps, models.StepCount)
	for i, step := range steps {
		s.Equal(models.StepID(i), step.ID)
		s.NotEmpty(step.Label)
	}
	s.Equal("Tax Year", steps[0].Label)
	s.Equal("Review & Submit", steps[s.registry.Last()].Label)
}

func (s *RegistrySuite) TestDeclarationsMatchPredicates() {
	s.Empty(s.registry.CheckDeclarations())
}

func (s *RegistrySuite) TestCompleteStatePassesEveryStep() {
	state := completeState(s.T())
	for _, step := range s.registry.Steps() {
		res := s.registry.Validate(step.ID, state)
		s.True(res.Valid, "step %s: %v", step.Label, res.Errors)
		s.Empty(res.Errors)
	}
}

func (s *RegistrySuite) TestValidateIsPure() {
	state := completeState(s.T())
	before := state.Export(models.AllFields())
	s.registry.Validate(models.StepPersonalInfo, state)
	s.Equal(before, state.Export(models.AllFields()))
}

func (s *RegistrySuite) TestUnknownStep() {
	res := s.registry.Validate(models.StepID(99), wizard.NewFormState())
	s.False(res.Valid)
	s.Contains(res.Errors, "step")
}

func (s *RegistrySuite) TestTaxYear() {
	s.Run("required", func() {
		res := s.registry.Validate(models.StepTaxYear, wizard.NewFormState())
		s.Contains(res.Errors, string(models.FieldTaxYear))
	})

	s.Run("must be a supported year", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldTaxYear, "1999"))
		res := s.registry.Validate(models.StepTaxYear, state)
		s.False(res.Valid)
	})

	s.Run("configurable years", func() {
		reg := wizard.NewRegistry(wizard.WithTaxYears("1999"))
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldTaxYear, "1999"))
		s.True(reg.Validate(models.StepTaxYear, state).Valid)
	})
}

func (s *RegistrySuite) TestPersonalInfo() {
	s.Run("empty state reports every required field", func() {
		res := s.registry.Validate(models.StepPersonalInfo, wizard.NewFormState())
		s.False(res.Valid)
		for _, f := range []models.Field{
			models.FieldFullName, models.FieldEmail, models.FieldCNIC,
			models.FieldNationality, models.FieldResidentialStatus,
		} {
			s.Contains(res.Errors, string(f))
		}
		s.NotContains(res.Errors, string(models.FieldStayedOver183Days))
	})

	s.Run("CNIC with fewer than 13 digits is invalid", func() {
		state := completeState(s.T())
		s.Require().NoError(state.Set(models.FieldCNIC, "123451234567"))
		res := s.registry.Validate(models.StepPersonalInfo, state)
		s.False(res.Valid)
		s.Contains(res.Errors, string(models.FieldCNIC))
	})

	s.Run("malformed email is invalid", func() {
		state := completeState(s.T())
		s.Require().NoError(state.Set(models.FieldEmail, "ayesha@example"))
		res := s.registry.Validate(models.StepPersonalInfo, state)
		s.Contains(res.Errors, string(models.FieldEmail))
	})

	s.Run("foreign nationals must answer residency questions", func() {
		state := completeState(s.T())
		s.Require().NoError(state.Set(models.FieldNationality, models.NationalityOther))
		res := s.registry.Validate(models.StepPersonalInfo, state)
		s.Contains(res.Errors, string(models.FieldStayedOver183Days))
		s.Contains(res.Errors, string(models.FieldHasPakistanSourceIncome))

		s.Require().NoError(state.Set(models.FieldStayedOver183Days, false))
		s.Require().NoError(state.Set(models.FieldHasPakistanSourceIncome, false))
		s.True(s.registry.Validate(models.StepPersonalInfo, state).Valid)
	})
}

func (s *RegistrySuite) TestIncomeSourcesArePermissive() {
	s.True(s.registry.Validate(models.StepIncomeSources, wizard.NewFormState()).Valid)
}

func (s *RegistrySuite) TestIncomeDetails() {
	s.Run("selected source needs an amount", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"business"}))
		res := s.registry.Validate(models.StepIncomeDetails, state)
		s.Contains(res.Errors, string(models.FieldBusinessIncome))
	})

	s.Run("zero is an accepted amount", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"business"}))
		s.Require().NoError(state.Set(models.FieldBusinessIncome, 0.0))
		s.True(s.registry.Validate(models.StepIncomeDetails, state).Valid)
	})

	s.Run("negative amount is invalid", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"rental"}))
		s.Require().NoError(state.Set(models.FieldRentalIncome, -1.0))
		res := s.registry.Validate(models.StepIncomeDetails, state)
		s.Contains(res.Errors, string(models.FieldRentalIncome))
	})

	s.Run("withholding cannot exceed salary", func() {
		state := completeState(s.T())
		s.Require().NoError(state.Set(models.FieldTaxDeductedBySalaryEmployer, 2000000.0))
		res := s.registry.Validate(models.StepIncomeDetails, state)
		s.Contains(res.Errors, string(models.FieldTaxDeductedBySalaryEmployer))
	})
}

func (s *RegistrySuite) TestDeductions() {
	state := wizard.NewFormState()
	s.Require().NoError(state.Set(models.FieldDeductions, []string{"zakat", "healthInsurance"}))
	s.Require().NoError(state.Set(models.FieldZakatAmount, 0.0))
	res := s.registry.Validate(models.StepDeductions, state)
	s.Contains(res.Errors, string(models.FieldZakatAmount))
	s.Contains(res.Errors, string(models.FieldHealthInsuranceAmount))
	s.NotContains(res.Errors, string(models.FieldWorkersWelfareFundAmount))
}

func (s *RegistrySuite) TestWealthStatement() {
	s.Run("both amounts required", func() {
		res := s.registry.Validate(models.StepWealthStatement, wizard.NewFormState())
		s.Contains(res.Errors, string(models.FieldOpeningWealth))
		s.Contains(res.Errors, string(models.FieldClosingWealth))
	})

	s.Run("declared assets need closing wealth above zero", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldAssetTypes, []string{"cash"}))
		s.Require().NoError(state.Set(models.FieldOpeningWealth, 0.0))
		s.Require().NoError(state.Set(models.FieldClosingWealth, 0.0))
		res := s.registry.Validate(models.StepWealthStatement, state)
		s.Equal([]string{string(models.FieldClosingWealth)}, keys(res.Errors))
	})
}

func (s *RegistrySuite) TestTaxCredits() {
	s.Run("disabled credits need no amount", func() {
		s.True(s.registry.Validate(models.StepTaxCredits, wizard.NewFormState()).Valid)
	})

	s.Run("enabled credit needs a positive amount, reported per type", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldTaxCredits, models.Credits{
			models.CreditDonations:   {Enabled: true},
			models.CreditPensionFund: {Enabled: true, Amount: models.AmountOf(100)},
			models.CreditTuitionFees: {Enabled: true, Amount: models.AmountOf(0)},
		}))
		res := s.registry.Validate(models.StepTaxCredits, state)
		s.Equal([]string{"taxCredits.donations", "taxCredits.tuitionFees"}, keys(res.Errors))
	})
}

func (s *RegistrySuite) TestBankDetails() {
	state := completeState(s.T())
	s.Require().NoError(state.Set(models.FieldIBAN, "GB82WEST12345698765432"))
	res := s.registry.Validate(models.StepBankDetails, state)
	s.Equal([]string{string(models.FieldIBAN)}, keys(res.Errors))
}

func (s *RegistrySuite) TestReviewRequiresConsent() {
	state := completeState(s.T())
	s.Require().NoError(state.Set(models.FieldConsentGiven, false))
	res := s.registry.Validate(models.StepReview, state)
	s.Contains(res.Errors, string(models.FieldConsentGiven))
}
