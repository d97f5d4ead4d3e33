package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// SQLitePreferencesStore implements store.PreferencesStore on SQLite.
type SQLitePreferencesStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSQLitePreferencesStore creates a SQLite preferences store on db.
func NewSQLitePreferencesStore(db store.DBTX, logger *slog.Logger) *SQLitePreferencesStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLitePreferencesStore{
		db:     db,
		logger: logger.With(slog.String("component", "preferences_store"), slog.String("driver", "sqlite")),
	}
}

var _ store.PreferencesStore = (*SQLitePreferencesStore)(nil)

// WithTx implements store.PreferencesStore.WithTx
func (s *SQLitePreferencesStore) WithTx(tx *sql.Tx) store.PreferencesStore {
	return &SQLitePreferencesStore{db: tx, logger: s.logger}
}

// Get implements store.PreferencesStore.Get
func (s *SQLitePreferencesStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		prefs      domain.StudyPreferences
		dailyLimit sql.NullInt64
		updatedAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT daily_limit, timezone, updated_at FROM study_preferences WHERE user_id = ?`,
		userID.String(),
	).Scan(&dailyLimit, &prefs.Timezone, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPreferencesNotFound
		}
		log.Error("failed to get preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	prefs.UserID = userID
	prefs.UpdatedAt = fromMillis(updatedAt)
	if dailyLimit.Valid {
		limit := int(dailyLimit.Int64)
		prefs.DailyLimit = &limit
	}
	return &prefs, nil
}

// Upsert implements store.PreferencesStore.Upsert
func (s *SQLitePreferencesStore) Upsert(ctx context.Context, prefs *domain.StudyPreferences) error {
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var limit sql.NullInt64
	if prefs.DailyLimit != nil {
		limit = sql.NullInt64{Int64: int64(*prefs.DailyLimit), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_preferences (user_id, daily_limit, timezone, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET daily_limit = excluded.daily_limit,
		    timezone = excluded.timezone,
		    updated_at = excluded.updated_at`,
		prefs.UserID.String(),
		limit,
		prefs.Timezone,
		toMillis(prefs.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return nil
}
