package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// PreferencesStore persists per-user study preferences.
type PreferencesStore interface {
	// Get returns the user's preferences.
	// Returns ErrPreferencesNotFound if none were saved.
	Get(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error)

	// Upsert creates or replaces the user's preferences.
	Upsert(ctx context.Context, prefs *domain.StudyPreferences) error

	// WithTx returns a PreferencesStore that runs every statement on tx.
	WithTx(tx *sql.Tx) PreferencesStore
}
