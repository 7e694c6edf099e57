package domain

import (
	"errors"
	"strings"
)

// Sentinel errors shared by services and repositories. Callers match with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEnrollmentTransition = errors.New("enrollment transition not allowed")
	ErrStudyState           = errors.New("study state does not allow this operation")
	ErrDuplicatePath        = errors.New("study path already in use")
)

// FieldError describes a single rejected form field.
// swagger:model FieldError
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries every field-level failure of a form. It matches ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns a ValidationError for the given field errors.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) true for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
