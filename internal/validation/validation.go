// Package validation checks mutation input before it reaches storage.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidationError is a client-caused, field-identified input failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Extensions exposes the error classification to GraphQL responses.
func (e *ValidationError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":  "VALIDATION_ERROR",
		"field": e.Field,
	}
}

// AsValidationError unwraps err into a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

func fail(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required rejects empty or whitespace-only values.
func Required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fail(field, "%s is required", field)
	}
	return nil
}

// Length bounds value by character count, inclusive on both ends.
func Length(value, field string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return fail(field, "%s must be at least %d characters", field, min)
	}
	if length > max {
		return fail(field, "%s must be at most %d characters", field, max)
	}
	return nil
}

// Email applies a shape check: local@domain where neither part contains
// whitespace or '@' and the domain has an interior dot.
func Email(value string) error {
	const field = "email"
	local, domain, found := strings.Cut(value, "@")
	if !found || local == "" || domain == "" || strings.Contains(domain, "@") {
		return fail(field, "email has an invalid format")
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return fail(field, "email has an invalid format")
	}
	if len(domain) < 3 || !strings.Contains(domain[1:len(domain)-1], ".") {
		return fail(field, "email has an invalid format")
	}
	return nil
}

// PositiveInteger accepts 1..math.MaxInt32, the range of the INT key columns.
func PositiveInteger(value int64, field string) error {
	if value <= 0 || value > math.MaxInt32 {
		return fail(field, "%s must be a positive integer", field)
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
