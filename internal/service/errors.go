package service

import (
	"errors"
	"sort"
	"strings"
)

// Every error returned by AuthService matches exactly one of these with
// errors.Is.  Their messages are safe to show to the end user; backend
// detail is only ever logged.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("an account with this email already exists")
	ErrDuplicateBarID        = errors.New("a lawyer with this bar council id is already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrPendingVerification   = errors.New("your lawyer account is awaiting admin verification")
	ErrEmailNotVerified      = errors.New("please verify your email address before logging in")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidOTP            = errors.New("invalid verification code")
	ErrExpiredOTP            = errors.New("verification code has expired")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUnauthenticated       = errors.New("not authenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrDeliveryFailed        = errors.New("could not send verification code")
	ErrStoreUnavailable      = errors.New("service temporarily unavailable")
	ErrTimeout               = errors.New("request timed out")
)

// ValidationError lists the offending input fields.  It matches
// ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Message renders the fields in a stable order, e.g.
// "email: This field is required; password: ...".
func (e *ValidationError) Message() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func invalid(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
