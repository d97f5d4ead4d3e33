package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMemory = InitialMemory{Stability: 2.3065, Difficulty: 2.1}

func TestNewCard(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	card, err := NewCard(userID, "question-42", ContentTypeQuestion, testMemory, now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, userID, card.UserID)
	assert.Equal(t, StateNew, card.State)
	assert.Equal(t, now, card.Due)
	assert.Equal(t, testMemory.Stability, card.Stability)
	assert.Equal(t, testMemory.Difficulty, card.Difficulty)
	assert.Zero(t, card.Reps)
	assert.Zero(t, card.Lapses)
	assert.Nil(t, card.LastReview)

	_, err = NewCard(uuid.Nil, "question-42", ContentTypeQuestion, testMemory, now)
	assert.Equal(t, ErrCardUserIDEmpty, err)

	_, err = NewCard(userID, "", ContentTypeQuestion, testMemory, now)
	assert.Equal(t, ErrCardContentIDEmpty, err)

	_, err = NewCard(userID, "question-42", ContentType("VIDEO"), testMemory, now)
	assert.Equal(t, ErrInvalidContentType, err)
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Card {
		return &Card{
			ID:          uuid.New(),
			UserID:      uuid.New(),
			ContentID:   "fc-1",
			ContentType: ContentTypeFlashcard,
			State:       StateReview,
			Stability:   4,
			Difficulty:  5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Card)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Card) {}},
		{name: "missing id", mutate: func(c *Card) { c.ID = uuid.Nil }, wantErr: ErrCardIDEmpty},
		{name: "unknown state", mutate: func(c *Card) { c.State = "DONE" }, wantErr: ErrInvalidState},
		{name: "zero stability", mutate: func(c *Card) { c.Stability = 0 }, wantErr: ErrCardStabilityInvalid},
		{name: "difficulty below range", mutate: func(c *Card) { c.Difficulty = 0.5 }, wantErr: ErrCardDifficultyInvalid},
		{name: "difficulty above range", mutate: func(c *Card) { c.Difficulty = 10.5 }, wantErr: ErrCardDifficultyInvalid},
		{name: "negative lapses", mutate: func(c *Card) { c.Lapses = -1 }, wantErr: ErrCardCountersInvalid},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCardResetProgressKeepsLapses(t *testing.T) {
	t.Parallel()
	last := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	card := &Card{
		State:      StateReview,
		Step:       0,
		Stability:  40,
		Difficulty: 7.5,
		Reps:       12,
		Lapses:     3,
		LastReview: &last,
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	card.ResetProgress(testMemory, now)

	assert.Equal(t, StateNew, card.State)
	assert.Equal(t, now, card.Due)
	assert.Zero(t, card.Reps)
	assert.Equal(t, 3, card.Lapses)
	assert.Nil(t, card.LastReview)
	assert.Equal(t, testMemory.Stability, card.Stability)
	assert.Equal(t, testMemory.Difficulty, card.Difficulty)
}

func TestCardIsOverdue(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	review := &Card{State: StateReview, Due: now.Add(-time.Hour)}
	assert.True(t, review.IsOverdue(now))

	newCard := &Card{State: StateNew, Due: now.Add(-48 * time.Hour)}
	assert.False(t, newCard.IsOverdue(now), "NEW cards are never overdue")

	future := &Card{State: StateReview, Due: now.Add(time.Hour)}
	assert.False(t, future.IsOverdue(now))
}

func TestCardCloneCopiesLastReview(t *testing.T) {
	t.Parallel()
	last := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	card := &Card{LastReview: &last}

	clone := card.Clone()
	*clone.LastReview = last.Add(time.Hour)

	assert.Equal(t, last, *card.LastReview)
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	t.Parallel()
	err := NewValidationError("content_types", "contains unknown type", ErrInvalidContentType)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrInvalidContentType))
	assert.Contains(t, err.Error(), "content_types")
}
