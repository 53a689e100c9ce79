package stepdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/ports"
	"taxfile/internal/filing/wizard"
	id "taxfile/pkg/domain"
	"taxfile/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *MemoryStoreSuite) TestGetStep() {
	ctx := context.Background()

	s.Run("unknown filing yields empty data", func() {
		data, err := s.store.GetStep(ctx, id.NewFilingID(), models.StepPersonalInfo)
		s.Require().NoError(err)
		s.Empty(data)
	})

	s.Run("saved step round-trips through form state import", func() {
		filingID, owner := id.NewFilingID(), id.NewUserID()
		state := wizard.NewFormState()
		s.Require().NoError(state.Set(models.FieldIncomeSources, []string{models.SourceSalary, models.SourceRental}))
		s.Require().NoError(state.Set(models.FieldSalaryIncome, 1200000))
		s.Require().NoError(state.Set(models.FieldTaxCredits, models.Credits{
			models.CreditDonations: {Enabled: true, Amount: models.AmountOf(500)},
		}))
		fields := []models.Field{models.FieldIncomeSources, models.FieldSalaryIncome, models.FieldTaxCredits}
		s.Require().NoError(s.store.SaveStep(ctx, filingID, owner, models.StepIncomeDetails, ports.StepData(state.Export(fields))))

		data, err := s.store.GetStep(ctx, filingID, models.StepIncomeDetails)
		s.Require().NoError(err)

		restored := wizard.NewFormState()
		s.Empty(restored.Import(data))
		s.Equal([]string{models.SourceSalary, models.SourceRental}, restored.List(models.FieldIncomeSources))
		s.Equal(1200000.0, restored.Amount(models.FieldSalaryIncome).Value())
		s.Equal(500.0, restored.Credits().Total())
	})

	s.Run("other steps of a known filing are empty", func() {
		filingID, owner := id.NewFilingID(), id.NewUserID()
		s.Require().NoError(s.store.SaveStep(ctx, filingID, owner, models.StepTaxYear, ports.StepData{models.FieldTaxYear: "2025"}))

		data, err := s.store.GetStep(ctx, filingID, models.StepBankDetails)
		s.Require().NoError(err)
		s.Empty(data)
	})
}

func (s *MemoryStoreSuite) TestOwnership() {
	ctx := context.Background()
	filingID, owner := id.NewFilingID(), id.NewUserID()

	_, found, err := s.store.Owner(ctx, filingID)
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.store.SaveStep(ctx, filingID, owner, models.StepTaxYear, ports.StepData{models.FieldTaxYear: "2025"}))

	got, found, err := s.store.Owner(ctx, filingID)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(owner, got)

	err = s.store.SaveStep(ctx, filingID, id.NewUserID(), models.StepTaxYear, ports.StepData{models.FieldTaxYear: "2024"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	data, err := s.store.GetStep(ctx, filingID, models.StepTaxYear)
	s.Require().NoError(err)
	s.Equal("2025", data[models.FieldTaxYear])
}

func (s *MemoryStoreSuite) TestSaveRejectsInvalidStep() {
	err := s.store.SaveStep(context.Background(), id.NewFilingID(), id.NewUserID(), models.StepID(42), ports.StepData{})
	s.Require().Error(err)
}
