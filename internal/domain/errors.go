package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in a backend call.
// Err carries the backend's own error text so it can be surfaced to the user.
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

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrForbidden indicates the viewer lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials, token or session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrPendingApproval is returned to signed-in users whose profile an admin has not approved yet.
type ErrPendingApproval struct {
	UserID string
}

func (e *ErrPendingApproval) Error() string {
	return "Cadastro aguardando aprovação da administração"
}

// ErrConflict indicates the request conflicts with the current state of a resource,
// e.g. a status transition that is not allowed.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrOperation wraps a failed mutation with the generic Portuguese message shown to users.
// The backend's own text is appended so the reason is not lost.
type ErrOperation struct {
	Message string
	Err     error
}

func (e *ErrOperation) Error() string {
	if e.Err == nil {
		return e.Message
	}
	cause := e.Err
	var ext *ErrExternalService
	if errors.As(cause, &ext) && ext.Err != nil {
		cause = ext.Err
	}
	return fmt.Sprintf("%s: %v", e.Message, cause)
}

func (e *ErrOperation) Unwrap() error {
	return e.Err
}
