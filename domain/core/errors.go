package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrFrameNotFound = fmt.Errorf("%w: frame", ErrNotFound)
	ErrModelNotFound = fmt.Errorf("%w: model", ErrNotFound)
	ErrRunNotFound   = fmt.Errorf("%w: run", ErrNotFound)

	// Client-side usage errors. These fail fast before any network call.
	ErrMultiColumn    = errors.New("statistic requires exactly one column")
	ErrEmptySelection = errors.New("column selection is empty")
	ErrNotConnected   = errors.New("client is not connected to a cluster")

	// Data errors shared by the reference engine and frame helpers
	ErrNonNumeric = errors.New("column is not numeric")
	ErrEmptyData  = errors.New("no data after removing missing values")
)

// Error constructors with context
func NewNotFoundError(resource string, key string) error {
	return fmt.Errorf("%w: %s with key %s", ErrNotFound, resource, key)
}

func NewColumnError(column string, err error) error {
	return fmt.Errorf("column %q: %w", column, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUsageError reports whether the error is a client-side misuse the caller
// can fix without talking to the server.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrMultiColumn) ||
		errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrNotConnected)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrNonNumeric) ||
		errors.Is(err, ErrEmptyData)
}
