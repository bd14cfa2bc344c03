// Package service implements the application use cases over the stores,
// the state machine, the activity recorder and the event fan-out. Services
// own transaction boundaries: task and activity rows commit together, and
// events are dispatched only after the commit succeeds.
package service

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors. Handlers map these to HTTP statuses.
var (
	// ErrTaskNotFound is returned when the requested task does not exist
	// or was deleted.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCommentNotFound is returned when the requested comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNotificationNotFound is returned when the requested notification
	// does not exist or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrSubscriptionNotFound is returned when the user has no active
	// push subscription.
	ErrSubscriptionNotFound = errors.New("push subscription not found")

	// ErrInvalidInput is returned when the request payload fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReplyDepthExceeded is returned when a reply targets another reply;
	// the comment tree is two levels deep, never more.
	ErrReplyDepthExceeded = errors.New("replies to replies are not allowed")

	// ErrParentMismatch is returned when a reply's parent belongs to a
	// different task.
	ErrParentMismatch = errors.New("parent comment belongs to a different task")
)

// ServiceError wraps an underlying error with the operation that failed.
type ServiceError struct {
	Operation string // The operation that failed (e.g., "create task")
	Err       error  // Original error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError wrapping err.
func NewServiceError(operation string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Err: err}
}
