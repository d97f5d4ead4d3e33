package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Preference validation errors
var (
	ErrPreferencesUserIDEmpty = errors.New("preferences user ID cannot be empty")
	ErrInvalidDailyLimit      = errors.New("daily limit must be greater than 0")
	ErrInvalidTimezone        = errors.New("timezone is not a valid IANA location")
)

// StudyPreferences holds the per-user settings the scheduler depends on.
type StudyPreferences struct {
	UserID uuid.UUID `json:"user_id"`
	// DailyLimit is the user's review capacity per day. nil means unlimited.
	DailyLimit *int      `json:"daily_limit"`
	Timezone   string    `json:"timezone"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the preferences.
func (p *StudyPreferences) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrPreferencesUserIDEmpty
	}
	if p.DailyLimit != nil && *p.DailyLimit <= 0 {
		return ErrInvalidDailyLimit
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone. An empty timezone is UTC.
func (p *StudyPreferences) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}
