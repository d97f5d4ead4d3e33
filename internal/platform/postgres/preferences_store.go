package postgres

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

// PostgresPreferencesStore implements store.PreferencesStore on PostgreSQL.
type PostgresPreferencesStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPreferencesStore creates a new PostgreSQL preferences store.
func NewPostgresPreferencesStore(db store.DBTX, logger *slog.Logger) *PostgresPreferencesStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPreferencesStore{
		db:     db,
		logger: logger.With(slog.String("component", "preferences_store")),
	}
}

var _ store.PreferencesStore = (*PostgresPreferencesStore)(nil)

// WithTx implements store.PreferencesStore.WithTx
func (s *PostgresPreferencesStore) WithTx(tx *sql.Tx) store.PreferencesStore {
	return &PostgresPreferencesStore{db: tx, logger: s.logger}
}

// Get implements store.PreferencesStore.Get
func (s *PostgresPreferencesStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, daily_limit, timezone, updated_at
		FROM study_preferences
		WHERE user_id = $1
	`

	var (
		prefs      domain.StudyPreferences
		dailyLimit sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID,
		&dailyLimit,
		&prefs.Timezone,
		&prefs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPreferencesNotFound
		}
		log.Error("failed to get preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	if dailyLimit.Valid {
		limit := int(dailyLimit.Int64)
		prefs.DailyLimit = &limit
	}
	prefs.UpdatedAt = prefs.UpdatedAt.UTC()

	return &prefs, nil
}

// Upsert implements store.PreferencesStore.Upsert
func (s *PostgresPreferencesStore) Upsert(ctx context.Context, prefs *domain.StudyPreferences) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO study_preferences (user_id, daily_limit, timezone, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET daily_limit = EXCLUDED.daily_limit,
		    timezone = EXCLUDED.timezone,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		prefs.UserID,
		nullInt(prefs.DailyLimit),
		prefs.Timezone,
		prefs.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to upsert preferences",
			slog.String("error", err.Error()),
			slog.String("user_id", prefs.UserID.String()))
		return MapError(err)
	}

	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
