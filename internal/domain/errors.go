package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers. Match with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("already exists")

	// ErrUpstream means the AI service failed: transport, auth, rate limit or a
	// terminal non-success run status.
	ErrUpstream = errors.New("upstream service error")
	// ErrParse means the AI service answered but the reply was not usable
	// recipe data.
	ErrParse = errors.New("unparseable recipe reply")
	// ErrTimeout means the run did not reach a terminal state within the
	// polling budget.
	ErrTimeout = errors.New("recipe generation timed out")
	// ErrCancelled means the caller abandoned the request.
	ErrCancelled = errors.New("recipe generation cancelled")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
