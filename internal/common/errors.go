// Package common defines shared constants and sentinel errors used across
// the note history service. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorForbidden     = errors.New("forbidden")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Validation errors.
	ErrorTitleTooLong   = errors.New("title exceeds maximum length")
	ErrorContentTooLong = errors.New("content exceeds maximum length")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
