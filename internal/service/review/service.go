// Package review applies graded reviews to cards through the memory model.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Service applies review outcomes to a user's cards.
type Service interface {
	// ApplyReview loads the card, computes its next state with the memory
	// model and persists it, all in one transaction.
	//
	// Returns:
	//   - (*domain.Card, nil): the updated card
	//   - (nil, store.ErrCardNotFound): the card does not exist for the user
	//   - (nil, domain.ErrInvalidRating): the rating is unknown
	ApplyReview(ctx context.Context, userID, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error)

	// Preview returns the card that each rating would produce, without
	// persisting anything.
	Preview(ctx context.Context, userID, cardID uuid.UUID) (map[domain.Rating]*domain.Card, error)
}

// Invalidator is notified after a card of the user changed.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// ErrReviewFailed wraps unexpected failures while applying a review.
var ErrReviewFailed = errors.New("review failed")

// ServiceError wraps errors from the review service with the failed operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "apply_review", "preview")
	Operation string
	Message   string
	Err       error
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

// Is matches ErrReviewFailed for every ServiceError.
func (e *ServiceError) Is(target error) bool {
	return target == ErrReviewFailed
}

// NewApplyReviewError returns a new ServiceError for the apply_review operation.
func NewApplyReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "apply_review", Message: message, Err: err}
}
