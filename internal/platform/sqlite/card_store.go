package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

const cardColumns = `id, user_id, content_id, content_type, state, step, due,
	stability, difficulty, reps, lapses, last_review, created_at, updated_at`

// batchSize keeps each statement well below SQLite's bound-variable limit.
const batchSize = 500

// SQLiteCardStore implements store.CardStore on SQLite.
type SQLiteCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLiteCardStore creates a SQLite card store on db.
func NewSQLiteCardStore(db store.DBTX, logger *slog.Logger) *SQLiteCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store"), slog.String("driver", "sqlite")),
	}
}

var _ store.CardStore = (*SQLiteCardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *SQLiteCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &SQLiteCardStore{db: tx, logger: s.logger}
}

// Get implements store.CardStore.Get
func (s *SQLiteCardStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ? AND user_id = ?`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, cardID.String(), userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, err
	}
	return card, nil
}

// ListByFilter implements store.CardStore.ListByFilter
func (s *SQLiteCardStore) ListByFilter(
	ctx context.Context,
	userID uuid.UUID,
	filter store.CardFilter,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Large explicit id sets are queried in batches and merged in order.
	if len(filter.CardIDs) > batchSize {
		var all []*domain.Card
		for _, chunk := range chunkIDs(filter.CardIDs) {
			f := filter
			f.CardIDs = chunk
			part, err := s.ListByFilter(ctx, userID, f)
			if err != nil {
				return nil, err
			}
			all = append(all, part...)
		}
		sortCards(all)
		return all, nil
	}

	where, args := buildFilter(userID, filter)
	query := `SELECT ` + cardColumns + ` FROM cards WHERE ` + where + ` ORDER BY due ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
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
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Create implements store.CardStore.Create
func (s *SQLiteCardStore) Create(ctx context.Context, cards []*domain.Card) error {
	query := `INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
		_, err := s.db.ExecContext(ctx, query,
			card.ID.String(),
			card.UserID.String(),
			card.ContentID,
			string(card.ContentType),
			string(card.State),
			card.Step,
			toMillis(card.Due),
			card.Stability,
			card.Difficulty,
			card.Reps,
			card.Lapses,
			nullMillis(card.LastReview),
			toMillis(card.CreatedAt),
			toMillis(card.UpdatedAt),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %w", store.ErrCardExists, err)
			}
			return fmt.Errorf("failed to create card %s: %w", card.ID, err)
		}
	}
	return nil
}

// Update implements store.CardStore.Update
func (s *SQLiteCardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET state = ?, step = ?, due = ?, stability = ?, difficulty = ?,
		    reps = ?, lapses = ?, last_review = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(card.State),
		card.Step,
		toMillis(card.Due),
		card.Stability,
		card.Difficulty,
		card.Reps,
		card.Lapses,
		nullMillis(card.LastReview),
		toMillis(card.UpdatedAt),
		card.ID.String(),
		card.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrCardNotFound
	}
	return nil
}

// ResetProgress implements store.CardStore.ResetProgress
func (s *SQLiteCardStore) ResetProgress(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
	memory domain.InitialMemory,
	now time.Time,
) (int, error) {
	total := 0
	for _, chunk := range chunkIDs(cardIDs) {
		placeholders, idArgs := inList(chunk)
		query := `
			UPDATE cards
			SET state = ?, step = 0, due = ?, stability = ?, difficulty = ?,
			    reps = 0, last_review = NULL, updated_at = ?
			WHERE user_id = ? AND id IN (` + placeholders + `)`

		args := append([]any{
			string(domain.StateNew),
			toMillis(now),
			memory.Stability,
			memory.Difficulty,
			toMillis(now),
			userID.String(),
		}, idArgs...)

		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, store.NewStoreError("card", "reset_progress", "batch update failed", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

// BulkSetDue implements store.CardStore.BulkSetDue
// Each batch is one UPDATE with a CASE expression; run it inside a
// transaction for all-or-nothing semantics across batches.
func (s *SQLiteCardStore) BulkSetDue(
	ctx context.Context,
	userID uuid.UUID,
	assignments map[uuid.UUID]time.Time,
) (int, error) {
	ids := make([]uuid.UUID, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}

	total := 0
	now := toMillis(time.Now())
	for _, chunk := range chunkIDs(ids) {
		var (
			cases strings.Builder
			args  []any
		)
		cases.WriteString("CASE id")
		for _, id := range chunk {
			cases.WriteString(" WHEN ? THEN ?")
			args = append(args, id.String(), toMillis(assignments[id]))
		}
		cases.WriteString(" END")

		placeholders, idArgs := inList(chunk)
		query := `UPDATE cards SET due = ` + cases.String() + `, updated_at = ?
			WHERE user_id = ? AND id IN (` + placeholders + `)`
		args = append(args, now, userID.String())
		args = append(args, idArgs...)

		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, store.NewStoreError("card", "bulk_set_due", "batch update failed", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

// Delete implements store.CardStore.Delete
func (s *SQLiteCardStore) Delete(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (int, error) {
	total := 0
	for _, chunk := range chunkIDs(cardIDs) {
		placeholders, idArgs := inList(chunk)
		query := `DELETE FROM cards WHERE user_id = ? AND id IN (` + placeholders + `)`
		result, err := s.db.ExecContext(ctx, query, append([]any{userID.String()}, idArgs...)...)
		if err != nil {
			return 0, store.NewStoreError("card", "delete", "batch delete failed", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}

func buildFilter(userID uuid.UUID, filter store.CardFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID.String()}

	if len(filter.CardIDs) > 0 {
		placeholders, idArgs := inList(filter.CardIDs)
		clauses = append(clauses, "id IN ("+placeholders+")")
		args = append(args, idArgs...)
	}
	if len(filter.ContentTypes) > 0 {
		clauses = append(clauses, "content_type IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(filter.ContentTypes)), ", ")+")")
		for _, ct := range filter.ContentTypes {
			args = append(args, string(ct))
		}
	}
	if len(filter.States) > 0 {
		clauses = append(clauses, "state IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(filter.States)), ", ")+")")
		for _, st := range filter.States {
			args = append(args, string(st))
		}
	}
	if filter.ExcludeNew {
		clauses = append(clauses, "state <> ?")
		args = append(args, string(domain.StateNew))
	}
	if filter.DueBefore != nil {
		clauses = append(clauses, "due < ?")
		args = append(args, toMillis(*filter.DueBefore))
	}
	if filter.DueAtOrBefore != nil {
		clauses = append(clauses, "due <= ?")
		args = append(args, toMillis(*filter.DueAtOrBefore))
	}
	if filter.DueFrom != nil {
		clauses = append(clauses, "due >= ?")
		args = append(args, toMillis(*filter.DueFrom))
	}

	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card                  domain.Card
		id, userID            string
		contentType, state    string
		due, created, updated int64
		lastReview            sql.NullInt64
	)
	err := row.Scan(
		&id,
		&userID,
		&card.ContentID,
		&contentType,
		&state,
		&card.Step,
		&due,
		&card.Stability,
		&card.Difficulty,
		&card.Reps,
		&card.Lapses,
		&lastReview,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if card.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	if card.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	card.ContentType = domain.ContentType(contentType)
	card.State = domain.State(state)
	card.Due = fromMillis(due)
	card.CreatedAt = fromMillis(created)
	card.UpdatedAt = fromMillis(updated)
	if lastReview.Valid {
		lr := fromMillis(lastReview.Int64)
		card.LastReview = &lr
	}
	return &card, nil
}

func sortCards(cards []*domain.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if !cards[i].Due.Equal(cards[j].Due) {
			return cards[i].Due.Before(cards[j].Due)
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
}

func inList(ids []uuid.UUID) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func chunkIDs(ids []uuid.UUID) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
