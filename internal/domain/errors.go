package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure: no infrastructure dependency. Callers wrap them
// with context and test with errors.Is.

var (
	// ErrValidation marks malformed input. No state was changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a persistence failure. The operation was rolled back.
	ErrStorage = errors.New("storage failure")
	// ErrConflict marks a uniqueness violation, e.g. a taken username.
	ErrConflict = errors.New("conflict")

	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("insufficient permissions")
)
