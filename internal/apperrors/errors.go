package apperrors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")

	ErrTokenExpired    = errors.New("token is expired")
	ErrTokenMalformed  = errors.New("token is malformed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")

	ErrTaskNotFound = errors.New("task not found")

	// Client side
	ErrNetwork               = errors.New("network error")
	ErrNoSession             = errors.New("no active session")
	ErrSessionNotEstablished = errors.New("session was not established")
)

// ValidationError keeps per-field messages keyed by the JSON field name.
// errors.Is(err, ErrValidation) reports true for it.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
