package service

import (
	"errors"
	"fmt"

	"taxfile/internal/filing/models"
	"taxfile/internal/filing/wizard"
	dErrors "taxfile/pkg/domain-errors"
	"taxfile/pkg/platform/sentinel"
)

// translate maps wizard and model errors to coded domain errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}

	var (
		fieldErr  *models.FieldError
		subErr    *models.SubmissionError
		collabErr *models.CollaboratorError
		rangeErr  *wizard.StepRangeError
	)
	if sve, ok := asStepValidation(err); ok {
		return dErrors.NewWithFields(dErrors.CodeValidation,
			fmt.Sprintf("%s has %d invalid field(s)", sve.Label, len(sve.Fields)), sve.Fields)
	}
	switch {
	case errors.As(err, &fieldErr):
		return dErrors.NewWithFields(dErrors.CodeValidation, fieldErr.Error(),
			map[string]string{string(fieldErr.Field): fieldErr.Message})
	case errors.As(err, &subErr):
		return dErrors.NewWithFields(dErrors.CodeValidation, subErr.Error(),
			map[string]string{"step": subErr.Label})
	case errors.As(err, &collabErr):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "submission service unavailable, please retry")
	case errors.As(err, &rangeErr):
		return dErrors.New(dErrors.CodeBadRequest, rangeErr.Error())
	case errors.Is(err, wizard.ErrSubmitting):
		return dErrors.New(dErrors.CodeConflict, "a submission for this session is already in progress")
	case errors.Is(err, wizard.ErrNotAtReview):
		return dErrors.New(dErrors.CodeConflict, err.Error())
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "unexpected filing error")
	}
}

// translateStoreErr maps sentinel store errors about what ("session",
// "submission") to coded errors.
func translateStoreErr(err error, what string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, what+" store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
	}
}

func asStepValidation(err error) (*models.StepValidationError, bool) {
	var sve *models.StepValidationError
	if errors.As(err, &sve) {
		return sve, true
	}
	return nil, false
}
