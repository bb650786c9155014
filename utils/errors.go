// utils/errors.go - Error taxonomy shared by the workflow engine and its callers
package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input, e.g. an empty approver list or a
	// blank rejection comment.
	ErrValidation = errors.New("validation failed")

	// ErrAuthorizationDenied marks a role/state mismatch. It is user visible and
	// not retryable without a different actor or document state.
	ErrAuthorizationDenied = errors.New("action not permitted")

	// ErrUnknownStatus marks a stored legacy status with no mapping. Treated as
	// data corruption.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrUnreachableTransition marks an action reaching the executor outside its
	// transition table. Always a programming error.
	ErrUnreachableTransition = errors.New("unreachable transition")

	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document was modified concurrently")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Deniedf wraps ErrAuthorizationDenied with a formatted message.
func Deniedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAuthorizationDenied, fmt.Sprintf(format, args...))
}

// Unreachablef wraps ErrUnreachableTransition with a formatted message.
func Unreachablef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnreachableTransition, fmt.Sprintf(format, args...))
}
