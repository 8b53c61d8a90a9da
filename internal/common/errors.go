// Package common defines shared constants and sentinel errors used across
// the client and server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Input errors.
	ErrorValidation  = errors.New("validation error")
	ErrorInvalidRole = errors.New("invalid role")

	// Login errors. Unknown email and wrong password share this value.
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Auth errors: absent credential vs. a credential that cannot be accepted.
	ErrorMissingToken = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Payment errors.
	ErrPaymentDeclined = errors.New("payment declined")
)

// ValidationError carries a user-facing message for rejected input.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrorValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}
