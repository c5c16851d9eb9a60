package repositories

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Non-retryable; handlers surface it as 404.
var ErrNotFound = errors.New("not found")
