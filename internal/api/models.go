package api

import (
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// RescheduleRequest is the body of POST /api/bulk/reschedule.
type RescheduleRequest struct {
	CardIDs          []string `json:"card_ids"           validate:"omitempty,max=5000,dive,uuid"`
	ContentTypes     []string `json:"content_types"      validate:"omitempty,dive,oneof=FLASHCARD QUESTION ERROR_NOTEBOOK"`
	NewDate          string   `json:"new_date"           validate:"omitempty,datetime=2006-01-02,excluded_with=DaysToDistribute"`
	DaysToDistribute *int     `json:"days_to_distribute" validate:"omitempty,min=1,max=365"`
}

// DeleteRequest is the body of DELETE /api/bulk/delete.
type DeleteRequest struct {
	CardIDs      []string `json:"card_ids"      validate:"omitempty,max=5000,dive,uuid"`
	ContentTypes []string `json:"content_types" validate:"omitempty,dive,oneof=FLASHCARD QUESTION ERROR_NOTEBOOK"`
	DeleteAll    bool     `json:"delete_all"`
}

// ResetProgressRequest is the body of POST /api/bulk/reset-progress.
type ResetProgressRequest struct {
	CardIDs      []string `json:"card_ids"      validate:"omitempty,max=5000,dive,uuid"`
	ContentTypes []string `json:"content_types" validate:"omitempty,dive,oneof=FLASHCARD QUESTION ERROR_NOTEBOOK"`
}

// AnswerRequest is the body of POST /api/cards/{id}/answer.
type AnswerRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard good easy"`
}

// PreferencesRequest is the body of PUT /api/preferences. A null or absent
// daily_limit means unlimited.
type PreferencesRequest struct {
	DailyLimit *int   `json:"daily_limit" validate:"omitempty,min=1,max=10000"`
	Timezone   string `json:"timezone"    validate:"required,timezone"`
}

// HarnessCardsRequest is the body of POST /api/test-harness/cards.
type HarnessCardsRequest struct {
	Count       int    `json:"count"        validate:"required,min=1,max=1000"`
	ContentType string `json:"content_type" validate:"required,oneof=FLASHCARD QUESTION ERROR_NOTEBOOK"`
	State       string `json:"state"        validate:"omitempty,oneof=NEW LEARNING REVIEW RELEARNING"`
}

// ForceAgeRequest is the body of POST /api/test-harness/force-age.
type ForceAgeRequest struct {
	CardIDs      []string `json:"card_ids"      validate:"omitempty,max=5000,dive,uuid"`
	ContentTypes []string `json:"content_types" validate:"omitempty,dive,oneof=FLASHCARD QUESTION ERROR_NOTEBOOK"`
	DaysOverdue  int      `json:"days_overdue"  validate:"gte=0,lte=3650"`
}

// CardResponse is the scheduling view of a card.
type CardResponse struct {
	ID          string     `json:"id"`
	ContentID   string     `json:"content_id"`
	ContentType string     `json:"content_type"`
	State       string     `json:"state"`
	Step        int        `json:"step"`
	Due         time.Time  `json:"due"`
	Stability   float64    `json:"stability"`
	Difficulty  float64    `json:"difficulty"`
	Reps        int        `json:"reps"`
	Lapses      int        `json:"lapses"`
	LastReview  *time.Time `json:"last_review,omitempty"`
}

// OverdueStatsResponse is the body of GET /api/bulk/overdue-stats.
type OverdueStatsResponse struct {
	TotalOverdue       int            `json:"total_overdue"`
	ByType             map[string]int `json:"by_type"`
	VeryOverdue        int            `json:"very_overdue"`
	OldestOverdueDays  int            `json:"oldest_overdue_days"`
	Severity           string         `json:"severity"`
	DailyLimit         *int           `json:"daily_limit"`
	VeryOverduePercent float64        `json:"very_overdue_percent"`
	DaysToClear        int            `json:"days_to_clear"`
}

// PreferencesResponse is the body of the preferences endpoints.
type PreferencesResponse struct {
	DailyLimit *int       `json:"daily_limit"`
	Timezone   string     `json:"timezone"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// HarnessCardsResponse lists the fabricated card ids.
type HarnessCardsResponse struct {
	Created int      `json:"created"`
	CardIDs []string `json:"card_ids"`
}

// ForceAgeResponse reports how many cards were aged.
type ForceAgeResponse struct {
	Updated int `json:"updated"`
}

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:          card.ID.String(),
		ContentID:   card.ContentID,
		ContentType: string(card.ContentType),
		State:       string(card.State),
		Step:        card.Step,
		Due:         card.Due,
		Stability:   card.Stability,
		Difficulty:  card.Difficulty,
		Reps:        card.Reps,
		Lapses:      card.Lapses,
		LastReview:  card.LastReview,
	}
}

func snapshotToResponse(snap *domain.BacklogSnapshot) OverdueStatsResponse {
	byType := make(map[string]int, len(snap.OverdueByType))
	for ct, n := range snap.OverdueByType {
		byType[string(ct)] = n
	}
	return OverdueStatsResponse{
		TotalOverdue:       snap.TotalOverdue,
		ByType:             byType,
		VeryOverdue:        snap.VeryOverdueCount,
		OldestOverdueDays:  snap.OldestOverdueDays,
		Severity:           string(snap.Severity),
		DailyLimit:         snap.DailyLimit,
		VeryOverduePercent: snap.VeryOverduePercent,
		DaysToClear:        snap.DaysToClear,
	}
}

func preferencesToResponse(prefs *domain.StudyPreferences) PreferencesResponse {
	resp := PreferencesResponse{DailyLimit: prefs.DailyLimit, Timezone: prefs.Timezone}
	if !prefs.UpdatedAt.IsZero() {
		updated := prefs.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
