package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for task lifecycle operations. Handlers map these to
// HTTP statuses; the services never retry or swallow them.
var (
	ErrInvalidStateForAction = errors.New("invalid state for action")

	// ErrAlreadyFinalized narrows ErrInvalidStateForAction for actions on a
	// completed task; errors.Is matches it against both sentinels.
	ErrAlreadyFinalized = fmt.Errorf("task already finalized: %w", ErrInvalidStateForAction)
	ErrEmptyComment          = errors.New("rework comment is empty")
	ErrMissingDeadline       = errors.New("rework deadline is missing")
	ErrOpenCycleExists       = errors.New("open rework cycle exists")
	ErrNoOpenCycle           = errors.New("no open rework cycle")
)

// ValidationError reports a request rejected before any mutation was
// attempted. Always recoverable by the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
