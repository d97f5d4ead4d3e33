package review

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/mocks"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 4, 14, 8, 0, 0, 0, time.UTC)

type recordingInvalidator struct {
	users []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID uuid.UUID) {
	r.users = append(r.users, userID)
}

// mockSRSService is a testify mock of srs.Service.
type mockSRSService struct {
	mock.Mock
}

func (m *mockSRSService) Schedule(card *domain.Card, rating domain.Rating, now time.Time) (*domain.Card, error) {
	args := m.Called(card, rating, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Card), args.Error(1)
}

func (m *mockSRSService) Preview(card *domain.Card, now time.Time) (map[domain.Rating]*domain.Card, error) {
	args := m.Called(card, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Rating]*domain.Card), args.Error(1)
}

func (m *mockSRSService) Retrievability(card *domain.Card, now time.Time) float64 {
	return m.Called(card, now).Get(0).(float64)
}

func (m *mockSRSService) InitialMemory() domain.InitialMemory {
	return m.Called().Get(0).(domain.InitialMemory)
}

type fixture struct {
	svc         *reviewServiceImpl
	cards       *sqlite.SQLiteCardStore
	invalidator *recordingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cards := sqlite.NewSQLiteCardStore(db, nil)
	inv := &recordingInvalidator{}
	svc := NewReviewService(db, cards, srs.NewDefaultService(), inv, nil).(*reviewServiceImpl)
	svc.timeFunc = func() time.Time { return testNow }

	return &fixture{svc: svc, cards: cards, invalidator: inv}
}

func (f *fixture) seed(t *testing.T, card *domain.Card) {
	t.Helper()
	require.NoError(t, f.cards.Create(context.Background(), []*domain.Card{card}))
}

func reviewCard(userID uuid.UUID) *domain.Card {
	lr := testNow.AddDate(0, 0, -10)
	return &domain.Card{
		ID:          uuid.New(),
		UserID:      userID,
		ContentID:   "q-1",
		ContentType: domain.ContentTypeQuestion,
		State:       domain.StateReview,
		Due:         testNow.AddDate(0, 0, -1),
		Stability:   9,
		Difficulty:  5,
		Reps:        5,
		Lapses:      1,
		LastReview:  &lr,
		CreatedAt:   testNow.AddDate(0, -2, 0),
		UpdatedAt:   lr,
	}
}

func TestApplyReviewPersistsNextState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	card := reviewCard(userID)
	f.seed(t, card)

	updated, err := f.svc.ApplyReview(ctx, userID, card.ID, domain.RatingAgain)
	require.NoError(t, err)

	assert.Equal(t, domain.StateRelearning, updated.State)
	assert.Equal(t, card.Lapses+1, updated.Lapses)
	assert.Equal(t, card.Reps+1, updated.Reps)

	stored, err := f.cards.Get(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.State, stored.State)
	assert.Equal(t, updated.Due, stored.Due)
	assert.InDelta(t, updated.Stability, stored.Stability, 1e-9)
	require.NotNil(t, stored.LastReview)
	assert.Equal(t, testNow, *stored.LastReview)

	assert.Equal(t, []uuid.UUID{userID}, f.invalidator.users)
}

func TestApplyReviewNewCardLeavesNew(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := uuid.New()
	card, err := domain.NewCard(userID, "fc-7", domain.ContentTypeFlashcard, f.svc.srsService.InitialMemory(), testNow)
	require.NoError(t, err)
	f.seed(t, card)

	updated, err := f.svc.ApplyReview(context.Background(), userID, card.ID, domain.RatingGood)
	require.NoError(t, err)
	assert.Equal(t, domain.StateLearning, updated.State)
	assert.NotNil(t, updated.LastReview)
}

func TestApplyReviewIsOwnerScoped(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	card := reviewCard(uuid.New())
	f.seed(t, card)

	_, err := f.svc.ApplyReview(context.Background(), uuid.New(), card.ID, domain.RatingGood)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.Empty(t, f.invalidator.users)

	stored, err := f.cards.Get(context.Background(), card.UserID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Reps, stored.Reps, "a foreign review must not touch the card")
}

func TestApplyReviewRejectsInvalidRating(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.ApplyReview(context.Background(), uuid.New(), uuid.New(), domain.Rating("perfect"))
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
}

func TestApplyReviewRollsBackOnUpdateFailure(t *testing.T) {
	t.Parallel()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	userID := uuid.New()
	card := reviewCard(userID)
	boom := errors.New("disk full")
	cards := &mocks.MockCardStore{
		Cards:    []*domain.Card{card},
		UpdateFn: func(context.Context, *domain.Card) error { return boom },
	}
	inv := &recordingInvalidator{}

	sqlMock.ExpectBegin()
	sqlMock.ExpectRollback()

	svc := NewReviewService(db, cards, srs.NewDefaultService(), inv, nil)
	_, err = svc.ApplyReview(context.Background(), userID, card.ID, domain.RatingGood)

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrReviewFailed)
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "apply_review", svcErr.Operation)
	assert.Empty(t, inv.users)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestPreview(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	card := reviewCard(userID)
	f.seed(t, card)

	outcomes, err := f.svc.Preview(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.Len(t, outcomes, len(domain.AllRatings))
	assert.Equal(t, domain.StateRelearning, outcomes[domain.RatingAgain].State)

	stored, err := f.cards.Get(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Reps, stored.Reps, "preview never persists")

	_, err = f.svc.Preview(ctx, uuid.New(), card.ID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestNewReviewServicePanicsOnNilDependencies(t *testing.T) {
	t.Parallel()
	db := &sql.DB{}
	assert.Panics(t, func() { NewReviewService(nil, &mocks.MockCardStore{}, srs.NewDefaultService(), nil, nil) })
	assert.Panics(t, func() { NewReviewService(db, nil, srs.NewDefaultService(), nil, nil) })
	assert.Panics(t, func() { NewReviewService(db, &mocks.MockCardStore{}, nil, nil, nil) })
}

func TestApplyReviewScheduleFailureLeavesCardUntouched(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	card := reviewCard(userID)
	f.seed(t, card)

	srsMock := &mockSRSService{}
	srsMock.On("Schedule", mock.AnythingOfType("*domain.Card"), domain.RatingGood, testNow).
		Return(nil, srs.ErrInvalidParams)
	f.svc.srsService = srsMock

	_, err := f.svc.ApplyReview(ctx, userID, card.ID, domain.RatingGood)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReviewFailed)
	assert.ErrorIs(t, err, srs.ErrInvalidParams)
	assert.Empty(t, f.invalidator.users)
	srsMock.AssertExpectations(t)

	stored, err := f.cards.Get(ctx, userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, card.Reps, stored.Reps)
}

func TestPreviewUsesCurrentTime(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := uuid.New()
	card := reviewCard(userID)
	f.seed(t, card)

	outcomes := map[domain.Rating]*domain.Card{domain.RatingGood: card}
	srsMock := &mockSRSService{}
	srsMock.On("Preview", mock.MatchedBy(func(c *domain.Card) bool { return c.ID == card.ID }), testNow).
		Return(outcomes, nil).Once()
	f.svc.srsService = srsMock

	got, err := f.svc.Preview(context.Background(), userID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)
	srsMock.AssertExpectations(t)
}
