// Package domain holds the error taxonomy shared by every service layer.
// Errors are raised at the point of detection, wrapped with context via
// fmt.Errorf("%w: ..."), and translated to HTTP status codes exactly once
// in internal/httpapi.
package domain

import "errors"

var (
	// ErrUnauthenticated covers missing/invalid/expired tokens, unknown
	// users and bad credentials. Callers must not reveal which of those
	// actually happened.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden covers inactive users/accounts, absent memberships and
	// insufficient roles.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
