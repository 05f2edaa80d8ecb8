package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidInput marks a rejected search or assistant request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited marks a provider refusing a call for rate reasons,
	// locally or upstream (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrServiceUnavailable marks an upstream 5xx.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ValidationError names the request field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RateLimitError is returned when a source's limiter or upstream refuses a
// call. RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("rate limited by %s", e.Source)
	}
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// NewRateLimitError creates a RateLimitError.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Source: source, RetryAfter: retryAfter}
}

// ExternalAPIError is a non-success response from a paper provider. The
// arXiv proxy forwards StatusCode to its caller.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap exposes the cause and, for 5xx statuses, ErrServiceUnavailable.
func (e *ExternalAPIError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.StatusCode >= http.StatusInternalServerError {
		errs = append(errs, ErrServiceUnavailable)
	}
	return errs
}

// NewExternalAPIError creates an ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
