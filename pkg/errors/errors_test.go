package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidBoard, "layer %s has no shapes", "F.Cu")

	if err.Code != ErrCodeInvalidBoard {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidBoard)
	}
	if err.Message != "layer F.Cu has no shapes" {
		t.Errorf("Message = %v", err.Message)
	}

	want := "INVALID_BOARD: layer F.Cu has no shapes"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch board document")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidLayer, "bad layer id"),
			code:     ErrCodeInvalidLayer,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidLayer, "bad layer id"),
			code:     ErrCodeTessellation,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeTessellation, New(ErrCodeInvalidPrimitive, "inner"), "outer"),
			code:     ErrCodeTessellation,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidLayer,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidLayer,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeClearance, "checker failed"),
			expected: ErrCodeClearance,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidRules, "clearance must not be negative")); got != "clearance must not be negative" {
		t.Errorf("UserMessage() = %v", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %v", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 60}
	if err.Error() != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %v", err.Error())
	}

	bare := &RateLimitedError{}
	if bare.Error() != "rate limited" {
		t.Errorf("Error() = %v", bare.Error())
	}
	if bare.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %v, want %v", bare.Code(), ErrCodeRateLimited)
	}
}
