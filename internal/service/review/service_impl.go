package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

var _ Service = (*reviewServiceImpl)(nil)

type reviewServiceImpl struct {
	db          *sql.DB
	cards       store.CardStore
	srsService  srs.Service
	invalidator Invalidator
	timeFunc    func() time.Time
	logger      *slog.Logger
}

// NewReviewService creates a review Service. invalidator may be nil.
func NewReviewService(
	db *sql.DB,
	cards store.CardStore,
	srsService srs.Service,
	invalidator Invalidator,
	logger *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		db:          db,
		cards:       cards,
		srsService:  srsService,
		invalidator: invalidator,
		timeFunc:    time.Now,
		logger:      logger.With(slog.String("component", "review_service")),
	}
}

// ApplyReview implements Service.ApplyReview.
func (s *reviewServiceImpl) ApplyReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	rating domain.Rating,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.IsValid() {
		log.Warn("invalid review rating",
			slog.String("card_id", cardID.String()),
			slog.String("rating", string(rating)))
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	now := s.timeFunc().UTC()

	var updated *domain.Card
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.Get(ctx, userID, cardID)
		if err != nil {
			return err
		}

		next, err := s.srsService.Schedule(card, rating, now)
		if err != nil {
			return fmt.Errorf("failed to schedule card: %w", err)
		}

		if err := cards.Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			log.Debug("card not found for review",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, err
		}
		log.Error("failed to apply review",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewApplyReviewError("could not persist review", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}

	log.Debug("review applied",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("rating", string(rating)),
		slog.String("state", string(updated.State)),
		slog.Float64("stability", updated.Stability),
		slog.Time("due", updated.Due))

	return updated, nil
}

// Preview implements Service.Preview.
func (s *reviewServiceImpl) Preview(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (map[domain.Rating]*domain.Card, error) {
	card, err := s.cards.Get(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return s.srsService.Preview(card, s.timeFunc().UTC())
}
