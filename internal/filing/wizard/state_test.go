package wizard_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
)

type FormStateSuite struct {
	suite.Suite
	state *wizard.FormState
}

func TestFormStateSuite(t *testing.T) {
	suite.Run(t, new(FormStateSuite))
}

func (s *FormStateSuite) SetupTest() {
	s.state = wizard.NewFormState()
}

func (s *FormStateSuite) TestSet() {
	s.Run("rejects unknown field", func() {
		err := s.state.Set("favouriteColour", "blue")
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrUnknown, fe.Code)
	})

	s.Run("rejects value of wrong kind and stores nothing", func() {
		err := s.state.Set(models.FieldFullName, 42.0)
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrType, fe.Code)
		s.False(s.state.Has(models.FieldFullName))
	})

	s.Run("formats CNIC on write", func() {
		s.Require().NoError(s.state.Set(models.FieldCNIC, "12345 1234567 1"))
		s.Equal("12345-1234567-1", s.state.Text(models.FieldCNIC))
	})

	s.Run("normalises IBAN and email", func() {
		s.Require().NoError(s.state.Set(models.FieldIBAN, " pk36 scbl 0000 0011 2345 6702 "))
		s.Equal("PK36SCBL0000001123456702", s.state.Text(models.FieldIBAN))
		s.Require().NoError(s.state.Set(models.FieldEmail, "Ayesha@Example.COM"))
		s.Equal("ayesha@example.com", s.state.Text(models.FieldEmail))
	})

	s.Run("parses amounts from numbers and strings", func() {
		s.Require().NoError(s.state.Set(models.FieldSalaryIncome, "1,250,000.50"))
		s.Equal(1250000.50, s.state.Amount(models.FieldSalaryIncome).Value())
		s.Require().NoError(s.state.Set(models.FieldSalaryIncome, json.Number("12")))
		s.Equal(12.0, s.state.Amount(models.FieldSalaryIncome).Value())
		s.Require().NoError(s.state.Set(models.FieldSalaryIncome, ""))
		s.False(s.state.Amount(models.FieldSalaryIncome).Present())
	})

	s.Run("rejects non numeric amount", func() {
		err := s.state.Set(models.FieldSalaryIncome, "lots")
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrType, fe.Code)
	})

	s.Run("rejects unknown list option", func() {
		err := s.state.Set(models.FieldIncomeSources, []string{"lottery"})
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrOption, fe.Code)
	})

	s.Run("list values are deduplicated", func() {
		s.Require().NoError(s.state.Set(models.FieldAssetTypes, []any{"cash", "vehicle", "cash"}))
		s.Equal([]string{"cash", "vehicle"}, s.state.List(models.FieldAssetTypes))
	})
}

func (s *FormStateSuite) TestGetReturnsCopies() {
	s.Require().NoError(s.state.Set(models.FieldAssetTypes, []string{"cash"}))
	v, ok := s.state.Get(models.FieldAssetTypes)
	s.Require().True(ok)
	v.([]string)[0] = "vehicle"
	s.Equal([]string{"cash"}, s.state.List(models.FieldAssetTypes))

	_, ok = s.state.Get(models.FieldDocuments)
	s.False(ok)
}

func (s *FormStateSuite) TestToggleInArray() {
	s.Run("duplicate toggles keep each id once in first insertion order", func() {
		for _, id := range []string{"rental", "salary", "rental", "business", "salary"} {
			s.Require().NoError(s.state.ToggleInArray(models.FieldIncomeSources, id, true))
		}
		s.Equal([]string{"rental", "salary", "business"}, s.state.List(models.FieldIncomeSources))
	})

	s.Run("excluding removes only that id", func() {
		s.Require().NoError(s.state.ToggleInArray(models.FieldIncomeSources, "salary", false))
		s.Equal([]string{"rental", "business"}, s.state.List(models.FieldIncomeSources))
		s.Require().NoError(s.state.ToggleInArray(models.FieldIncomeSources, "salary", false))
		s.Equal([]string{"rental", "business"}, s.state.List(models.FieldIncomeSources))
	})

	s.Run("rejects non list field", func() {
		err := s.state.ToggleInArray(models.FieldFullName, "x", true)
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrType, fe.Code)
	})

	s.Run("documents accept any identifier", func() {
		s.Require().NoError(s.state.ToggleInArray(models.FieldDocuments, "doc-42", true))
		s.Equal([]string{"doc-42"}, s.state.List(models.FieldDocuments))
	})
}

func (s *FormStateSuite) TestTaxCreditsMerge() {
	s.Require().NoError(s.state.Set(models.FieldTaxCredits, models.Credits{
		models.CreditDonations: {Enabled: true, Amount: models.AmountOf(500)},
	}))
	s.Require().NoError(s.state.Set(models.FieldTaxCredits, map[string]any{
		"pensionFund": map[string]any{"enabled": false, "amount": 300.0},
	}))

	credits := s.state.Credits()
	s.Equal(models.CreditEntry{Enabled: true, Amount: models.AmountOf(500)}, credits.Entry(models.CreditDonations))
	s.Equal(models.CreditEntry{Enabled: false, Amount: models.AmountOf(300)}, credits.Entry(models.CreditPensionFund))
	s.Equal(models.CreditEntry{}, credits.Entry(models.CreditTuitionFees))

	s.Run("rejects unknown credit type", func() {
		err := s.state.Set(models.FieldTaxCredits, map[string]any{"charity": map[string]any{"enabled": true}})
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
		s.Equal(models.FieldErrOption, fe.Code)
	})
}

func (s *FormStateSuite) TestCreditTotal() {
	s.Require().NoError(s.state.Set(models.FieldTaxCredits, models.Credits{
		models.CreditDonations:   {Enabled: true, Amount: models.AmountOf(500)},
		models.CreditPensionFund: {Enabled: false, Amount: models.AmountOf(300)},
		models.CreditTuitionFees: {Enabled: true, Amount: models.AmountOf(200)},
	}))
	s.Equal(700.0, s.state.Credits().Total())
}

func (s *FormStateSuite) TestDependencyRules() {
	s.Run("unchecking salary clears salary income and employer withholding", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"salary", "rental"}))
		s.Require().NoError(state.Set(models.FieldSalaryIncome, 100000.0))
		s.Require().NoError(state.Set(models.FieldTaxDeductedBySalaryEmployer, 5000.0))
		s.Require().NoError(state.Set(models.FieldRentalIncome, 20000.0))

		s.Require().NoError(state.ToggleInArray(models.FieldIncomeSources, "salary", false))

		s.False(state.Amount(models.FieldSalaryIncome).Present())
		s.False(state.Amount(models.FieldTaxDeductedBySalaryEmployer).Present())
		s.Equal(20000.0, state.Amount(models.FieldRentalIncome).Value())
	})

	s.Run("replacing the source list clears deselected amounts", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"business"}))
		s.Require().NoError(state.Set(models.FieldBusinessIncome, 1.0))
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{"rental"}))
		s.False(state.Amount(models.FieldBusinessIncome).Present())
	})

	s.Run("unchecking a deduction clears its amount", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldDeductions, []string{"zakat"}))
		s.Require().NoError(state.Set(models.FieldZakatAmount, 2500.0))
		s.Require().NoError(state.ToggleInArray(models.FieldDeductions, "zakat", false))
		s.False(state.Amount(models.FieldZakatAmount).Present())
	})

	s.Run("nationality other than Other clears residency questions", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldNationality, models.NationalityOther))
		s.Require().NoError(state.Set(models.FieldStayedOver183Days, true))
		s.Require().NoError(state.Set(models.FieldHasPakistanSourceIncome, false))
		s.Require().NoError(state.Set(models.FieldNationality, models.NationalityPakistani))
		s.False(state.Flag(models.FieldStayedOver183Days).Answered())
		s.False(state.Flag(models.FieldHasPakistanSourceIncome).Answered())
	})

	s.Run("fields untouched by rules survive later edits", func() {
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldFullName, "Ayesha Khan"))
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{}))
		s.Require().NoError(state.Set(models.FieldDeductions, []string{}))
		s.Equal("Ayesha Khan", state.Text(models.FieldFullName))
	})
}

func (s *FormStateSuite) TestExportImport() {
	src := completeState(s.T())
	fields := []models.Field{models.FieldFullName, models.FieldIncomeSources, models.FieldDocuments}
	partial := src.Export(fields)
	s.Len(partial, 2)

	dst := wizard.NewFormState()
	s.Empty(dst.Import(partial))
	s.Equal("Ayesha Khan", dst.Text(models.FieldFullName))
	s.Equal([]string{"salary", "rental"}, dst.List(models.FieldIncomeSources))

	errs := dst.Import(map[models.Field]any{models.FieldEmail: 7.0, models.FieldBankName: "HBL"})
	s.Len(errs, 1)
	s.Equal("HBL", dst.Text(models.FieldBankName))
}

func (s *FormStateSuite) TestJSONRoundTrip() {
	src := completeState(s.T())
	raw, err := json.Marshal(src)
	s.Require().NoError(err)

	dst := wizard.NewFormState()
	s.Require().NoError(json.Unmarshal(raw, dst))

	all := models.AllFields()
	if diff := cmp.Diff(src.Export(all), dst.Export(all), cmp.AllowUnexported(models.Amount{}, models.Flag{})); diff != "" {
		s.Failf("state changed across JSON", "(-want +got):\n%s", diff)
	}

	s.Run("rejects unknown field", func() {
		err := json.Unmarshal([]byte(`{"nickname":"x"}`), wizard.NewFormState())
		var fe *models.FieldError
		s.Require().ErrorAs(err, &fe)
	})
}

func (s *FormStateSuite) TestClone() {
	src := completeState(s.T())
	clone := src.Clone()
	s.Require().NoError(clone.Set(models.FieldFullName, "Someone Else"))
	s.Equal("Ayesha Khan", src.Text(models.FieldFullName))
}
