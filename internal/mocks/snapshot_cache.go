package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ErrCacheMiss is returned by MockSnapshotCache.Get for unknown users.
var ErrCacheMiss = errors.New("mock cache miss")

// MockSnapshotCache is an in-memory backlog snapshot cache.
type MockSnapshotCache struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*domain.BacklogSnapshot
	Gets        int
	Sets        int
	Invalidated []uuid.UUID
	Err         error
}

// NewMockSnapshotCache creates an empty cache.
func NewMockSnapshotCache() *MockSnapshotCache {
	return &MockSnapshotCache{items: make(map[uuid.UUID]*domain.BacklogSnapshot)}
}

// Get returns the stored snapshot or ErrCacheMiss.
func (m *MockSnapshotCache) Get(_ context.Context, userID uuid.UUID) (*domain.BacklogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.Err != nil {
		return nil, m.Err
	}
	snap, ok := m.items[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := *snap
	return &out, nil
}

// Set stores a copy of snap.
func (m *MockSnapshotCache) Set(_ context.Context, userID uuid.UUID, snap *domain.BacklogSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.Err != nil {
		return m.Err
	}
	out := *snap
	m.items[userID] = &out
	return nil
}

// Invalidate removes the user's snapshot and records the call.
func (m *MockSnapshotCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, userID)
	delete(m.items, userID)
	return m.Err
}
