// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Model provider errors.
var (
	// ErrUpstreamCallFailed indicates a model provider call failed (network, auth, rate limit).
	ErrUpstreamCallFailed = errors.New("upstream call failed")

	// ErrMalformedSynthesisOutput indicates the synthesis response was not the expected JSON object.
	ErrMalformedSynthesisOutput = errors.New("malformed synthesis output")

	// ErrEmptyResponse indicates a provider returned no choices or content blocks.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoProvidersAvailable indicates no chat provider is registered or all are disabled.
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Storage errors.
var (
	// ErrStorageUnavailable indicates a transport or connectivity failure talking to the datastore.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrConstraintViolation indicates the datastore rejected the data (integrity or malformed payload).
	ErrConstraintViolation = errors.New("constraint violation")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join is a convenience wrapper around errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
