package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// CardFilter selects a subset of one user's cards. Empty fields do not
// restrict the selection; all set fields are combined with AND.
type CardFilter struct {
	CardIDs      []uuid.UUID
	ContentTypes []domain.ContentType
	States       []domain.State
	// ExcludeNew drops NEW cards, which are never part of the backlog.
	ExcludeNew bool
	// DueBefore keeps cards with due < DueBefore.
	DueBefore *time.Time
	// DueAtOrBefore keeps cards with due <= DueAtOrBefore.
	DueAtOrBefore *time.Time
	// DueFrom keeps cards with due >= DueFrom.
	DueFrom *time.Time
}

// CardStore defines the interface for card data persistence.
// Every method is scoped to userID; cards owned by other users behave as
// if they did not exist.
type CardStore interface {
	// Get retrieves one card.
	// Returns ErrCardNotFound if the card does not exist for the user.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)

	// ListByFilter returns the user's cards matching filter, ordered by due
	// then id. It is the base selection primitive for every bulk action.
	ListByFilter(ctx context.Context, userID uuid.UUID, filter CardFilter) ([]*domain.Card, error)

	// Create saves new cards. Run it inside RunInTransaction when creating
	// more than one card so that the insert is atomic.
	Create(ctx context.Context, cards []*domain.Card) error

	// Update persists the scheduling fields of a reviewed card.
	// Returns ErrCardNotFound if the card does not exist for the user.
	Update(ctx context.Context, card *domain.Card) error

	// ResetProgress returns the given cards to NEW with the supplied memory,
	// due at now. Lapses are left untouched. It returns the number of rows
	// changed.
	ResetProgress(
		ctx context.Context,
		userID uuid.UUID,
		cardIDs []uuid.UUID,
		memory domain.InitialMemory,
		now time.Time,
	) (int, error)

	// BulkSetDue assigns new due dates in a single batch and returns the
	// number of rows changed.
	BulkSetDue(ctx context.Context, userID uuid.UUID, assignments map[uuid.UUID]time.Time) (int, error)

	// Delete removes the given cards and returns the number of rows removed.
	Delete(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (int, error)

	// WithTx returns a CardStore that runs every statement on tx.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return cardStore.WithTx(tx).Update(ctx, card)
	//   })
	WithTx(tx *sql.Tx) CardStore
}
