package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FieldErrorCode classifies a single field failure.
type FieldErrorCode string

const (
	FieldErrUnknown  FieldErrorCode = "unknown_field"
	FieldErrType     FieldErrorCode = "invalid_type"
	FieldErrOption   FieldErrorCode = "invalid_option"
	FieldErrRequired FieldErrorCode = "required"
	FieldErrFormat   FieldErrorCode = "invalid_format"
	FieldErrRange    FieldErrorCode = "out_of_range"
)

// FieldError reports one field failing its shape or range predicate. It is
// shown next to the field and never blocks unrelated steps.
type FieldError struct {
	Field   Field
	Code    FieldErrorCode
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StepValidationError aggregates the field errors of one step and blocks
// advancing past it.
type StepValidationError struct {
	Step  StepID
	Label string
	// Fields maps a field key (a Field, or "taxCredits.<type>") to its message.
	Fields map[string]string
}

func (e *StepValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	return fmt.Sprintf("step %d (%s) is invalid: %s", e.Step, e.Label, strings.Join(keys, ", "))
}

// SubmissionError blocks the final submit. Step names the first offending
// step; for missing consent it is the review step.
type SubmissionError struct {
	Step   StepID
	Label  string
	Reason string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("cannot submit: %s (%s)", e.Reason, e.Label)
}

// CollaboratorError wraps a failure of an external call. It is transient and
// retryable; the form state is left untouched.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
