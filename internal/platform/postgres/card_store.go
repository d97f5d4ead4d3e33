package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

const cardColumns = `id, user_id, content_id, content_type, state, step, due,
	stability, difficulty, reps, lapses, last_review, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Get implements store.CardStore.Get
// Returns store.ErrCardNotFound if the card does not exist for the user.
func (s *PostgresCardStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 AND user_id = $2`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, cardID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found",
				slog.String("card_id", cardID.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// ListByFilter implements store.CardStore.ListByFilter
func (s *PostgresCardStore) ListByFilter(
	ctx context.Context,
	userID uuid.UUID,
	filter store.CardFilter,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildFilter(userID, filter)
	query := `SELECT ` + cardColumns + ` FROM cards WHERE ` + where + ` ORDER BY due ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row", slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating card rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("listed cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// Create implements store.CardStore.Create
func (s *PostgresCardStore) Create(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}

		_, err := s.db.ExecContext(ctx, query,
			card.ID,
			card.UserID,
			card.ContentID,
			string(card.ContentType),
			string(card.State),
			card.Step,
			card.Due.UTC(),
			card.Stability,
			card.Difficulty,
			card.Reps,
			card.Lapses,
			nullTime(card.LastReview),
			card.CreatedAt.UTC(),
			card.UpdatedAt.UTC(),
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: %w", store.ErrCardExists, err)
			}
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return MapError(err)
		}
	}

	log.Debug("cards created", slog.Int("count", len(cards)))
	return nil
}

// Update implements store.CardStore.Update
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET state = $1, step = $2, due = $3, stability = $4, difficulty = $5,
		    reps = $6, lapses = $7, last_review = $8, updated_at = $9
		WHERE id = $10 AND user_id = $11
	`

	result, err := s.db.ExecContext(ctx, query,
		string(card.State),
		card.Step,
		card.Due.UTC(),
		card.Stability,
		card.Difficulty,
		card.Reps,
		card.Lapses,
		nullTime(card.LastReview),
		card.UpdatedAt.UTC(),
		card.ID,
		card.UserID,
	)
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		log.Debug("card not found for update", slog.String("card_id", card.ID.String()))
		return store.ErrCardNotFound
	}

	return nil
}

// ResetProgress implements store.CardStore.ResetProgress
func (s *PostgresCardStore) ResetProgress(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
	memory domain.InitialMemory,
	now time.Time,
) (int, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET state = $1, step = 0, due = $2, stability = $3, difficulty = $4,
		    reps = 0, last_review = NULL, updated_at = $2
		WHERE user_id = $5 AND id = ANY($6::uuid[])
	`

	result, err := s.db.ExecContext(ctx, query,
		string(domain.StateNew),
		now.UTC(),
		memory.Stability,
		memory.Difficulty,
		userID,
		uuidStrings(cardIDs),
	)
	if err != nil {
		log.Error("failed to reset card progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("count", len(cardIDs)))
		return 0, store.NewStoreError("card", "reset_progress", "batch update failed", MapError(err))
	}

	return rowsAffected(result)
}

// BulkSetDue implements store.CardStore.BulkSetDue
// All assignments are applied by one UPDATE joined against unnested arrays.
func (s *PostgresCardStore) BulkSetDue(
	ctx context.Context,
	userID uuid.UUID,
	assignments map[uuid.UUID]time.Time,
) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	ids := make([]string, 0, len(assignments))
	dues := make([]time.Time, 0, len(assignments))
	for id, due := range assignments {
		ids = append(ids, id.String())
		dues = append(dues, due.UTC())
	}

	query := `
		UPDATE cards AS c
		SET due = v.due, updated_at = NOW()
		FROM unnest($1::uuid[], $2::timestamptz[]) AS v(id, due)
		WHERE c.id = v.id AND c.user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, ids, dues, userID)
	if err != nil {
		log.Error("failed to bulk set due dates",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("count", len(assignments)))
		return 0, store.NewStoreError("card", "bulk_set_due", "batch update failed", MapError(err))
	}

	return rowsAffected(result)
}

// Delete implements store.CardStore.Delete
func (s *PostgresCardStore) Delete(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (int, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM cards WHERE user_id = $1 AND id = ANY($2::uuid[])`

	result, err := s.db.ExecContext(ctx, query, userID, uuidStrings(cardIDs))
	if err != nil {
		log.Error("failed to delete cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("count", len(cardIDs)))
		return 0, store.NewStoreError("card", "delete", "batch delete failed", MapError(err))
	}

	return rowsAffected(result)
}

// buildFilter renders filter as a WHERE clause with $n placeholders.
func buildFilter(userID uuid.UUID, filter store.CardFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	add := func(format string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if len(filter.CardIDs) > 0 {
		add("id = ANY($%d::uuid[])", uuidStrings(filter.CardIDs))
	}
	if len(filter.ContentTypes) > 0 {
		types := make([]string, len(filter.ContentTypes))
		for i, ct := range filter.ContentTypes {
			types[i] = string(ct)
		}
		add("content_type = ANY($%d::text[])", types)
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		add("state = ANY($%d::text[])", states)
	}
	if filter.ExcludeNew {
		add("state <> $%d", string(domain.StateNew))
	}
	if filter.DueBefore != nil {
		add("due < $%d", filter.DueBefore.UTC())
	}
	if filter.DueAtOrBefore != nil {
		add("due <= $%d", filter.DueAtOrBefore.UTC())
	}
	if filter.DueFrom != nil {
		add("due >= $%d", filter.DueFrom.UTC())
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card        domain.Card
		contentType string
		state       string
		lastReview  sql.NullTime
	)

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.ContentID,
		&contentType,
		&state,
		&card.Step,
		&card.Due,
		&card.Stability,
		&card.Difficulty,
		&card.Reps,
		&card.Lapses,
		&lastReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.ContentType = domain.ContentType(contentType)
	card.State = domain.State(state)
	card.Due = card.Due.UTC()
	card.CreatedAt = card.CreatedAt.UTC()
	card.UpdatedAt = card.UpdatedAt.UTC()
	if lastReview.Valid {
		lr := lastReview.Time.UTC()
		card.LastReview = &lr
	}

	return &card, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
