package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MockPreferencesStore implements store.PreferencesStore for testing
type MockPreferencesStore struct {
	GetFn    func(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error)
	UpsertFn func(ctx context.Context, prefs *domain.StudyPreferences) error

	// Prefs is returned by Get when GetFn is unset; nil means not found.
	Prefs *domain.StudyPreferences
	Err   error
}

var _ store.PreferencesStore = (*MockPreferencesStore)(nil)

// Get implements store.PreferencesStore.Get
func (m *MockPreferencesStore) Get(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Prefs == nil {
		return nil, store.ErrPreferencesNotFound
	}
	out := *m.Prefs
	return &out, nil
}

// Upsert implements store.PreferencesStore.Upsert
func (m *MockPreferencesStore) Upsert(ctx context.Context, prefs *domain.StudyPreferences) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, prefs)
	}
	if m.Err != nil {
		return m.Err
	}
	out := *prefs
	m.Prefs = &out
	return nil
}

// WithTx implements store.PreferencesStore.WithTx
func (m *MockPreferencesStore) WithTx(*sql.Tx) store.PreferencesStore {
	return m
}
