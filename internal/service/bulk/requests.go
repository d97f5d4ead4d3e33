package bulk

import (
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Action names reported in results
const (
	ActionReschedule    = "reschedule"
	ActionDelete        = "delete"
	ActionResetProgress = "reset_progress"
)

// MaxDaysToDistribute bounds an explicit spread.
const MaxDaysToDistribute = 365

// RescheduleRequest selects cards and how to spread them. At most one of
// NewDate and DaysToDistribute may be set; with neither the executor picks
// recovery or today.
type RescheduleRequest struct {
	CardIDs      []uuid.UUID
	ContentTypes []domain.ContentType
	// NewDate is a YYYY-MM-DD date in the user's timezone.
	NewDate          string
	DaysToDistribute int
}

// Validate checks the request before any store access.
func (r RescheduleRequest) Validate() error {
	if r.NewDate != "" && r.DaysToDistribute != 0 {
		return domain.NewValidationError("new_date", "cannot be combined with days_to_distribute", nil)
	}
	if r.DaysToDistribute < 0 || r.DaysToDistribute > MaxDaysToDistribute {
		return domain.NewValidationError("days_to_distribute", "must be between 1 and 365", nil)
	}
	return validateSelector(r.CardIDs, r.ContentTypes)
}

// DeleteRequest selects cards to remove. One of the three selectors is
// required so that an empty body never deletes anything.
type DeleteRequest struct {
	CardIDs      []uuid.UUID
	ContentTypes []domain.ContentType
	DeleteAll    bool
}

// Validate checks the request before any store access.
func (r DeleteRequest) Validate() error {
	if len(r.CardIDs) == 0 && len(r.ContentTypes) == 0 && !r.DeleteAll {
		return domain.NewValidationError("", "one of card_ids, content_types or delete_all=true is required", nil)
	}
	return validateSelector(r.CardIDs, r.ContentTypes)
}

// ResetRequest selects cards to return to NEW.
type ResetRequest struct {
	CardIDs      []uuid.UUID
	ContentTypes []domain.ContentType
}

// Validate checks the request before any store access.
func (r ResetRequest) Validate() error {
	if len(r.CardIDs) == 0 && len(r.ContentTypes) == 0 {
		return domain.NewValidationError("", "one of card_ids or content_types is required", nil)
	}
	return validateSelector(r.CardIDs, r.ContentTypes)
}

func validateSelector(ids []uuid.UUID, types []domain.ContentType) error {
	for _, id := range ids {
		if id == uuid.Nil {
			return domain.NewValidationError("card_ids", "contains an empty id", domain.ErrInvalidID)
		}
	}
	for _, ct := range types {
		if !ct.IsValid() {
			return domain.NewValidationError("content_types", "contains an unknown type", domain.ErrInvalidContentType)
		}
	}
	return nil
}
