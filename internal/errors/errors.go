package errors

import (
	"errors"
	"fmt"
)

// Common error types for the mdb backend
var (
	// Configuration errors (fatal at startup)
	ErrWeakSecret    = errors.New("signing secret is weak, missing or uses a default value")
	ErrMissingConfig = errors.New("required configuration value is missing")

	// Token errors — all of these collapse to a generic 401 at the HTTP
	// boundary so clients can't distinguish why a credential was rejected.
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrRevokedToken   = errors.New("token revoked")
	ErrWrongTokenType = errors.New("wrong token type")

	// Request errors
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrUnsafeInput  = errors.New("unsafe input detected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Domain errors
	ErrNotFound     = errors.New("not found")
	ErrThreadLocked = errors.New("thread is locked")
	ErrUserNotFound = errors.New("user not found")

	// Infrastructure errors — absorbed into fail-secure decisions at the
	// component boundary, never surfaced to clients.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
