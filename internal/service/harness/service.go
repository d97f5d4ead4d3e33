// Package harness fabricates cards and overdue ages for exercising the
// scheduler end to end. It is only wired when the harness is enabled.
package harness

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MaxCards bounds a single CreateCards call.
const MaxCards = 1000

// CreateCardsRequest describes cards to fabricate. State defaults to REVIEW
// so that the cards can become overdue.
type CreateCardsRequest struct {
	Count       int
	ContentType domain.ContentType
	State       domain.State
}

// ForceAgeRequest moves the selected cards DaysOverdue days into the past.
// With no selector every non-NEW card of the user is aged.
type ForceAgeRequest struct {
	CardIDs      []uuid.UUID
	ContentTypes []domain.ContentType
	DaysOverdue  int
}

// Invalidator is notified after a user's cards changed.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// MemoryDefaults provides the memory state for fabricated cards.
type MemoryDefaults interface {
	InitialMemory() domain.InitialMemory
}

// Service fabricates test data.
type Service struct {
	db          *sql.DB
	cards       store.CardStore
	memory      MemoryDefaults
	invalidator Invalidator
	timeFunc    func() time.Time
	logger      *slog.Logger
}

// NewService creates a harness Service. invalidator may be nil.
func NewService(
	db *sql.DB,
	cards store.CardStore,
	memory MemoryDefaults,
	invalidator Invalidator,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:          db,
		cards:       cards,
		memory:      memory,
		invalidator: invalidator,
		timeFunc:    time.Now,
		logger:      logger.With(slog.String("component", "test_harness")),
	}
}

// CreateCards fabricates req.Count cards for the user, due now.
func (s *Service) CreateCards(ctx context.Context, userID uuid.UUID, req CreateCardsRequest) ([]*domain.Card, error) {
	if req.Count < 1 || req.Count > MaxCards {
		return nil, domain.NewValidationError("count", fmt.Sprintf("must be between 1 and %d", MaxCards), nil)
	}
	if !req.ContentType.IsValid() {
		return nil, domain.NewValidationError("content_type", "is not a known content type", domain.ErrInvalidContentType)
	}
	if req.State == "" {
		req.State = domain.StateReview
	}
	if !req.State.IsValid() {
		return nil, domain.NewValidationError("state", "is not a known card state", domain.ErrInvalidState)
	}

	now := s.timeFunc().UTC()
	cards := make([]*domain.Card, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		card, err := domain.NewCard(userID, "harness-"+uuid.NewString(), req.ContentType, s.memory.InitialMemory(), now)
		if err != nil {
			return nil, err
		}
		if req.State != domain.StateNew {
			lr := now
			card.State = req.State
			card.LastReview = &lr
			card.Reps = 1
		}
		cards = append(cards, card)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.cards.WithTx(tx).Create(ctx, cards)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cards: %w", err)
	}

	s.invalidate(ctx, userID)
	logger.FromContextOrDefault(ctx, s.logger).Info("harness cards created",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)),
		slog.String("content_type", string(req.ContentType)))
	return cards, nil
}

// ForceAge sets the due date of the selected cards to DaysOverdue days ago
// and returns the number of cards changed.
func (s *Service) ForceAge(ctx context.Context, userID uuid.UUID, req ForceAgeRequest) (int, error) {
	if req.DaysOverdue < 0 {
		return 0, domain.NewValidationError("days_overdue", "cannot be negative", nil)
	}

	filter := store.CardFilter{CardIDs: req.CardIDs, ContentTypes: req.ContentTypes}
	if len(req.CardIDs) == 0 {
		filter.ExcludeNew = true
	}
	cards, err := s.cards.ListByFilter(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to load cards: %w", err)
	}
	if len(cards) == 0 {
		return 0, nil
	}

	due := s.timeFunc().UTC().Add(-time.Duration(req.DaysOverdue) * 24 * time.Hour)
	assignments := make(map[uuid.UUID]time.Time, len(cards))
	for _, c := range cards {
		assignments[c.ID] = due
	}

	var changed int
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		changed, err = s.cards.WithTx(tx).BulkSetDue(ctx, userID, assignments)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to age cards: %w", err)
	}

	s.invalidate(ctx, userID)
	return changed, nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
}
