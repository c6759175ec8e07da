package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestRequired(t *testing.T) {
	for _, value := range []string{"", "   ", "\t\n"} {
		err := Required(value, "name")
		assertFieldError(t, err, "name", "name is required")
	}
	if err := Required(" x ", "name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLength(t *testing.T) {
	testCases := []struct {
		name    string
		value   string
		wantErr string
	}{
		{name: "too-short", value: "J", wantErr: "name must be at least 2 characters"},
		{name: "lower-bound", value: "Jo"},
		{name: "upper-bound", value: strings.Repeat("a", 50)},
		{name: "too-long", value: strings.Repeat("a", 51), wantErr: "name must be at most 50 characters"},
		{name: "multibyte-counts-characters", value: "Zoë"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := Length(testCase.value, "name", 2, 50)
			if testCase.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertFieldError(t, err, "name", testCase.wantErr)
		})
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"john@example.com", "a.b+c@sub.example.org", "x@y.z"}
	invalid := []string{"not-an-email", "@example.com", "john@", "john@example", "jo hn@example.com", "john@@example.com", "john@.com", "john@example.", "john@ex ample.com"}
	for _, value := range valid {
		if err := Email(value); err != nil {
			t.Fatalf("expected %q to be valid, got %v", value, err)
		}
	}
	for _, value := range invalid {
		err := Email(value)
		if err == nil {
			t.Fatalf("expected %q to be rejected", value)
		}
		if !strings.Contains(err.Error(), "email") {
			t.Fatalf("expected message to mention email, got %q", err.Error())
		}
	}
}

func TestPositiveInteger(t *testing.T) {
	for _, value := range []int64{0, -1, math.MaxInt32 + 1} {
		assertFieldError(t, PositiveInteger(value, "authorId"), "authorId", "authorId must be a positive integer")
	}
	for _, value := range []int64{1, 42, math.MaxInt32} {
		if err := PositiveInteger(value, "authorId"); err != nil {
			t.Fatalf("unexpected error for %d: %v", value, err)
		}
	}
}

func TestAsValidationErrorUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("users: insert: %w", Required("", "email"))
	validationErr, ok := AsValidationError(wrapped)
	if !ok || validationErr.Field != "email" {
		t.Fatalf("expected wrapped validation error, got %v", wrapped)
	}
	if _, ok := AsValidationError(errors.New("storage down")); ok {
		t.Fatalf("plain errors are not validation errors")
	}
	if validationErr.Extensions()["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected extensions: %#v", validationErr.Extensions())
	}
}

func TestFirstReturnsEarliestFailure(t *testing.T) {
	err := First(nil, Required("", "title"), Length("", "title", 5, 200))
	assertFieldError(t, err, "title", "title is required")
	if First(nil, nil) != nil {
		t.Fatalf("expected nil when every check passes")
	}
}

func assertFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	validationErr, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != field || validationErr.Message != message {
		t.Fatalf("unexpected validation error: field=%q message=%q", validationErr.Field, validationErr.Message)
	}
}
