package ports

//go:generate mockgen -source=stepdata.go -destination=mocks/stepdata.go -package=mocks

import (
	"context"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
)

// StepData is the partial form state saved for one step of a filing.
type StepData map[models.Field]any

// StepDataPort loads and saves the partial state of each step of a filing so a
// filer can resume later. GetStep returns an empty StepData, not an error,
// when nothing was saved for the step.
type StepDataPort interface {
	GetStep(ctx context.Context, filingID id.FilingID, step models.StepID) (StepData, error)
	SaveStep(ctx context.Context, filingID id.FilingID, owner id.UserID, step models.StepID, data StepData) error
}

// OwnerLookup reports who owns the saved step data of a filing. found is
// false when nothing was saved yet.
type OwnerLookup interface {
	Owner(ctx context.Context, filingID id.FilingID) (owner id.UserID, found bool, err error)
}
