package backlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/backlog"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/mocks"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 4, 14, 9, 30, 0, 0, time.UTC)
	testCfg  = config.BacklogConfig{VeryOverdueDays: 7, DefaultDailyLimit: 20, DefaultTimezone: "UTC"}
)

func clock() time.Time { return fixedNow }

func overdueCards(userID uuid.UUID, n int, late time.Duration) []*domain.Card {
	cards := make([]*domain.Card, n)
	for i := range cards {
		cards[i] = &domain.Card{
			ID:          uuid.New(),
			UserID:      userID,
			ContentID:   "q",
			ContentType: domain.ContentTypeQuestion,
			State:       domain.StateReview,
			Due:         fixedNow.Add(-late),
			Stability:   4,
			Difficulty:  6,
		}
	}
	return cards
}

func TestClassifyQueriesOverdueNonNewCards(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	var got store.CardFilter
	cards := &mocks.MockCardStore{
		ListByFilterFn: func(_ context.Context, uid uuid.UUID, filter store.CardFilter) ([]*domain.Card, error) {
			assert.Equal(t, userID, uid)
			got = filter
			return overdueCards(userID, 50, 45*24*time.Hour), nil
		},
	}
	c := backlog.NewClassifier(cards, nil, testCfg, nil, backlog.WithTimeFunc(clock))

	limit := 20
	snap, err := c.Classify(context.Background(), userID, &limit)
	require.NoError(t, err)

	assert.True(t, got.ExcludeNew)
	require.NotNil(t, got.DueBefore)
	assert.Equal(t, fixedNow, *got.DueBefore)

	assert.Equal(t, userID.String(), snap.UserID)
	assert.Equal(t, 50, snap.TotalOverdue)
	assert.Equal(t, domain.SeverityWarning, snap.Severity)
	assert.Equal(t, 45, snap.OldestOverdueDays)
	assert.Equal(t, 3, snap.DaysToClear)
}

func TestClassifyStoreError(t *testing.T) {
	t.Parallel()
	boom := errors.New("db down")
	c := backlog.NewClassifier(&mocks.MockCardStore{Err: boom}, nil, testCfg, nil)

	_, err := c.Classify(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestClassifyUsesCache(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	cards := &mocks.MockCardStore{Cards: overdueCards(userID, 5, 48*time.Hour)}
	cache := mocks.NewMockSnapshotCache()
	c := backlog.NewClassifier(cards, nil, testCfg, nil,
		backlog.WithCache(cache), backlog.WithTimeFunc(clock))
	ctx := context.Background()
	limit := 10

	first, err := c.Classify(ctx, userID, &limit)
	require.NoError(t, err)
	second, err := c.Classify(ctx, userID, &limit)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"ListByFilter"}, cards.Calls(), "second call is served from cache")

	other := 3
	_, err = c.Classify(ctx, userID, &other)
	require.NoError(t, err)
	assert.Len(t, cards.Calls(), 2, "a different limit bypasses the cached snapshot")

	c.Invalidate(ctx, userID)
	assert.Equal(t, []uuid.UUID{userID}, cache.Invalidated)
}

func TestClassifyIgnoresCacheFailures(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	cache := mocks.NewMockSnapshotCache()
	cache.Err = errors.New("redis unavailable")
	c := backlog.NewClassifier(&mocks.MockCardStore{Cards: overdueCards(userID, 2, time.Hour)}, nil, testCfg, nil,
		backlog.WithCache(cache), backlog.WithTimeFunc(clock))

	snap, err := c.Classify(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalOverdue)
}

func TestClassifyForUserResolvesDailyLimit(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	cards := &mocks.MockCardStore{Cards: overdueCards(userID, 50, 24*time.Hour)}

	tests := []struct {
		name      string
		prefs     *mocks.MockPreferencesStore
		wantLimit *int
		wantSev   domain.Severity
	}{
		{
			name:      "saved limit",
			prefs:     &mocks.MockPreferencesStore{Prefs: &domain.StudyPreferences{UserID: userID, DailyLimit: intPtr(5)}},
			wantLimit: intPtr(5),
			wantSev:   domain.SeverityCritical,
		},
		{
			name:      "saved unlimited",
			prefs:     &mocks.MockPreferencesStore{Prefs: &domain.StudyPreferences{UserID: userID}},
			wantLimit: nil,
			wantSev:   domain.SeverityNormal,
		},
		{
			name:      "no preferences falls back to default",
			prefs:     &mocks.MockPreferencesStore{},
			wantLimit: intPtr(20),
			wantSev:   domain.SeverityWarning,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := backlog.NewClassifier(cards, tc.prefs, testCfg, nil, backlog.WithTimeFunc(clock))

			snap, err := c.ClassifyForUser(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLimit, snap.DailyLimit)
			assert.Equal(t, tc.wantSev, snap.Severity)
		})
	}

	t.Run("preference lookup failure", func(t *testing.T) {
		boom := errors.New("boom")
		c := backlog.NewClassifier(cards, &mocks.MockPreferencesStore{Err: boom}, testCfg, nil)
		_, err := c.ClassifyForUser(context.Background(), userID)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPreferencesDefaultTimezone(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	cfg := testCfg
	cfg.DefaultTimezone = "America/Sao_Paulo"
	cfg.DefaultDailyLimit = 0

	c := backlog.NewClassifier(&mocks.MockCardStore{}, nil, cfg, nil)
	prefs, err := c.Preferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", prefs.Timezone)
	assert.Nil(t, prefs.DailyLimit, "a zero default means unlimited")
}

func intPtr(v int) *int { return &v }
