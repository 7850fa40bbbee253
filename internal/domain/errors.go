package domain

import "fmt"

// Error types for consistent error handling across the gateway.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an upstream API call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input, checked before
// the request ever reaches the upstream API).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrSessionInvalidated is emitted by the upstream client when the backend
// rejects the bearer token (401). It is consumed exclusively by the session
// controller, which is the sole writer of authentication state.
type ErrSessionInvalidated struct {
	SessionID string
}

func (e *ErrSessionInvalidated) Error() string {
	return "session invalidated by upstream"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrConflict indicates a duplicate resource or request.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrBusiness carries a business error reported by the upstream API
// (insufficient balance, duplicate withdrawal request, ...). The server's
// message string is preserved verbatim for display.
type ErrBusiness struct {
	Message string
}

func (e *ErrBusiness) Error() string {
	return e.Message
}

// ErrInvalidCode indicates an invalid or expired OTP verification code.
type ErrInvalidCode struct{}

func (e *ErrInvalidCode) Error() string {
	return "invalid or expired verification code"
}

// ErrDecode indicates malformed JSON in a cached payload or token segment.
// Storage reads recover from it locally (treated as absent); it is never
// surfaced to the UI.
type ErrDecode struct {
	What string
	Err  error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *ErrDecode) Unwrap() error {
	return e.Err
}
