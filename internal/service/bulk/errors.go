package bulk

import (
	"errors"
	"fmt"
)

// ErrPersistence marks a bulk write that failed as a whole. No card was
// changed.
var ErrPersistence = errors.New("bulk write failed")

// ServiceError wraps errors from the bulk executor with additional context.
type ServiceError struct {
	// Operation is the action that failed (e.g., "reschedule", "delete")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError returns a ServiceError for a failed write of op.
func NewPersistenceError(op string, err error) *ServiceError {
	return &ServiceError{
		Operation: op,
		Message:   "batch write failed",
		Err:       fmt.Errorf("%w: %w", ErrPersistence, err),
	}
}
