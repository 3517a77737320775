package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrMissingField       = fmt.Errorf("required field missing: %w", ErrValidation)
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("password is incorrect: %w", ErrUnauthorized)
	ErrTokenExpired       = errors.New("token has expired")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or has expired")
	ErrMail               = errors.New("error sending the email")
	ErrInternal           = errors.New("internal error")
)

// ValidationError carries the human readable reason input was rejected.
type ValidationError struct {
	Reason string
	kind   error
}

func (e *ValidationError) Error() string { return e.Reason + ": " + e.kind.Error() }

func (e *ValidationError) Unwrap() error { return e.kind }

// Invalid returns an ErrValidation carrying reason.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason, kind: ErrValidation}
}

// Missing returns an ErrMissingField carrying reason. It is also an ErrValidation.
func Missing(reason string) error {
	return &ValidationError{Reason: reason, kind: ErrMissingField}
}
