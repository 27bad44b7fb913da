package domain

import "errors"

// Domain-level error kinds. Concrete errors wrap one of these so callers can
// classify them with errors.Is.
var (
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidPlan  = errors.New("invalid plan")
	ErrValidation   = errors.New("validation failed")
)

// StateError is a lifecycle guard violation with a stable, user-facing message.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

func (e *StateError) Unwrap() error { return ErrInvalidState }

// ValidationError carries the aggregated field problems of one payload.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Subject + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() []error { return []error{ErrValidation, e.Err} }
