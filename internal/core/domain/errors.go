package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Dose label / date errors
var (
	ErrInvalidDoseLabel = errors.New("invalid dose label")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
)

// Page content errors
var (
	ErrInvalidSection = errors.New("invalid page section")
	ErrUnknownSection = errors.New("unknown page section type")
)

// ValidationError carries a message meant for the client. It matches ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds a ValidationError
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// MissingFields builds a ValidationError naming every missing required field.
// It returns nil when no field is missing.
func MissingFields(fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Message: "Missing required fields: " + strings.Join(fields, ", ")}
}

// Required collects the names whose values are blank, sorted
func Required(values map[string]string) []string {
	var missing []string
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
