package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Difficulty bounds shared by the memory model and validation.
const (
	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardContentIDEmpty is returned when a card does not reference any content.
	ErrCardContentIDEmpty = errors.New("card content ID cannot be empty")

	// ErrCardStabilityInvalid is returned when stability is not strictly positive.
	ErrCardStabilityInvalid = errors.New("card stability must be greater than 0")

	// ErrCardDifficultyInvalid is returned when difficulty is outside [1, 10].
	ErrCardDifficultyInvalid = errors.New("card difficulty must be within [1, 10]")

	// ErrCardCountersInvalid is returned when reps, lapses or step is negative.
	ErrCardCountersInvalid = errors.New("card counters cannot be negative")
)

// Card is the per-user scheduling record for one study item.
// Only the memory model mutates the scheduling fields, except for explicit
// bulk actions (reschedule, reset, delete).
type Card struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	State       State       `json:"state"`
	Step        int         `json:"step"`
	Due         time.Time   `json:"due"`
	Stability   float64     `json:"stability"`
	Difficulty  float64     `json:"difficulty"`
	Reps        int         `json:"reps"`
	Lapses      int         `json:"lapses"`
	LastReview  *time.Time  `json:"last_review,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// InitialMemory is the stability/difficulty pair given to NEW cards.
type InitialMemory struct {
	Stability  float64
	Difficulty float64
}

// NewCard creates a card in state NEW, due immediately.
// Returns an error if validation fails.
func NewCard(
	userID uuid.UUID,
	contentID string,
	contentType ContentType,
	memory InitialMemory,
	now time.Time,
) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:          uuid.New(),
		UserID:      userID,
		ContentID:   contentID,
		ContentType: contentType,
		State:       StateNew,
		Due:         now,
		Stability:   memory.Stability,
		Difficulty:  memory.Difficulty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.ContentID == "" {
		return ErrCardContentIDEmpty
	}

	if !c.ContentType.IsValid() {
		return ErrInvalidContentType
	}

	if !c.State.IsValid() {
		return ErrInvalidState
	}

	if !(c.Stability > 0) {
		return ErrCardStabilityInvalid
	}

	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return ErrCardDifficultyInvalid
	}

	if c.Reps < 0 || c.Lapses < 0 || c.Step < 0 {
		return ErrCardCountersInvalid
	}

	return nil
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	out := *c
	if c.LastReview != nil {
		lr := *c.LastReview
		out.LastReview = &lr
	}
	return &out
}

// IsOverdue reports whether the card is part of the backlog at now.
// NEW cards are never overdue.
func (c *Card) IsOverdue(now time.Time) bool {
	return c.State != StateNew && c.Due.Before(now)
}

// ResetProgress returns the card to the start of its lifecycle.
// Lapses are kept so that history is not erased.
func (c *Card) ResetProgress(memory InitialMemory, now time.Time) {
	now = now.UTC()
	c.State = StateNew
	c.Step = 0
	c.Stability = memory.Stability
	c.Difficulty = memory.Difficulty
	c.Due = now
	c.Reps = 0
	c.LastReview = nil
	c.UpdatedAt = now
}
