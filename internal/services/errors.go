package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/validators"
)

var (
	// ErrNotFound is returned when the targeted record does not exist
	ErrNotFound = errors.New("not_found")
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid_credentials")
	// ErrConflict is returned when a unique field is already taken
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when the caller lacks the role for an operation
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError carries per-field messages for a rejected payload
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return validators.FieldErrors(e.Fields).Error()
}

// newValidationError converts validator output into a ValidationError
func newValidationError(err error) error {
	var fields validators.FieldErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

// invalidField builds a ValidationError for a single field
func invalidField(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// isDuplicateKey recognises unique constraint violations from every supported driver
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
