package ports

//go:generate mockgen -source=submission.go -destination=mocks/submission.go -package=mocks

import (
	"context"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
)

// SubmissionPort hands a finalised submission to the back office. The port
// only ever receives the immutable Submission.
type SubmissionPort interface {
	Submit(ctx context.Context, submission *models.Submission) (models.Receipt, error)
}

// SubmissionReader looks up accepted submissions.
type SubmissionReader interface {
	FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error)
}
