package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation conflicts with the current state of the resource,
// e.g. an escrow status transition whose expected prior status no longer holds.
var ErrConflict = errors.New("conflict with current resource state")

// ErrUnauthorized indicates that the caller could not be identified.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller is known but lacks the required role or ownership.
var ErrForbidden = errors.New("forbidden")

// ErrGatewayDeclined indicates a definitive rejection from the payment gateway
// (declined charge, invalid payout destination). Safe to record as FAILED.
var ErrGatewayDeclined = errors.New("payment gateway declined the operation")

// ErrGatewayUnavailable indicates the gateway call produced no definitive outcome
// (timeout, 5xx, transport failure). The money movement may or may not have happened.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable or timed out")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower-level error with a status-like code and message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
