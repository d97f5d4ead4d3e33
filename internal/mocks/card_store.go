package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// MockCardStore implements store.CardStore for testing
type MockCardStore struct {
	GetFn           func(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error)
	ListByFilterFn  func(ctx context.Context, userID uuid.UUID, filter store.CardFilter) ([]*domain.Card, error)
	CreateFn        func(ctx context.Context, cards []*domain.Card) error
	UpdateFn        func(ctx context.Context, card *domain.Card) error
	ResetProgressFn func(
		ctx context.Context,
		userID uuid.UUID,
		cardIDs []uuid.UUID,
		memory domain.InitialMemory,
		now time.Time,
	) (int, error)
	BulkSetDueFn func(ctx context.Context, userID uuid.UUID, assignments map[uuid.UUID]time.Time) (int, error)
	DeleteFn     func(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (int, error)
	WithTxFn     func(tx *sql.Tx) store.CardStore

	// Default values used when functions aren't explicitly defined
	Cards []*domain.Card
	Err   error

	mu    sync.Mutex
	calls []string
}

var _ store.CardStore = (*MockCardStore)(nil)

func (m *MockCardStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the names of the methods invoked so far, in order.
func (m *MockCardStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Get implements store.CardStore.Get
func (m *MockCardStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Card, error) {
	m.record("Get")
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, cardID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.Cards {
		if c.ID == cardID && c.UserID == userID {
			return c.Clone(), nil
		}
	}
	return nil, store.ErrCardNotFound
}

// ListByFilter implements store.CardStore.ListByFilter
func (m *MockCardStore) ListByFilter(
	ctx context.Context,
	userID uuid.UUID,
	filter store.CardFilter,
) ([]*domain.Card, error) {
	m.record("ListByFilter")
	if m.ListByFilterFn != nil {
		return m.ListByFilterFn(ctx, userID, filter)
	}
	return m.Cards, m.Err
}

// Create implements store.CardStore.Create
func (m *MockCardStore) Create(ctx context.Context, cards []*domain.Card) error {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, cards)
	}
	return m.Err
}

// Update implements store.CardStore.Update
func (m *MockCardStore) Update(ctx context.Context, card *domain.Card) error {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, card)
	}
	return m.Err
}

// ResetProgress implements store.CardStore.ResetProgress
func (m *MockCardStore) ResetProgress(
	ctx context.Context,
	userID uuid.UUID,
	cardIDs []uuid.UUID,
	memory domain.InitialMemory,
	now time.Time,
) (int, error) {
	m.record("ResetProgress")
	if m.ResetProgressFn != nil {
		return m.ResetProgressFn(ctx, userID, cardIDs, memory, now)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return len(cardIDs), nil
}

// BulkSetDue implements store.CardStore.BulkSetDue
func (m *MockCardStore) BulkSetDue(
	ctx context.Context,
	userID uuid.UUID,
	assignments map[uuid.UUID]time.Time,
) (int, error) {
	m.record("BulkSetDue")
	if m.BulkSetDueFn != nil {
		return m.BulkSetDueFn(ctx, userID, assignments)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return len(assignments), nil
}

// Delete implements store.CardStore.Delete
func (m *MockCardStore) Delete(ctx context.Context, userID uuid.UUID, cardIDs []uuid.UUID) (int, error) {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, cardIDs)
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return len(cardIDs), nil
}

// WithTx implements store.CardStore.WithTx. By default the mock itself is
// returned so that calls made inside a transaction are still recorded.
func (m *MockCardStore) WithTx(tx *sql.Tx) store.CardStore {
	if m.WithTxFn != nil {
		return m.WithTxFn(tx)
	}
	return m
}
