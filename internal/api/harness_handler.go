package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/harness"
)

// HarnessService fabricates cards and overdue ages.
type HarnessService interface {
	CreateCards(ctx context.Context, userID uuid.UUID, req harness.CreateCardsRequest) ([]*domain.Card, error)
	ForceAge(ctx context.Context, userID uuid.UUID, req harness.ForceAgeRequest) (int, error)
}

// HarnessHandler serves the /api/test-harness routes. It is only mounted
// when the harness is enabled in configuration.
type HarnessHandler struct {
	harness HarnessService
	logger  *slog.Logger
}

// NewHarnessHandler creates a new HarnessHandler.
func NewHarnessHandler(h HarnessService, logger *slog.Logger) *HarnessHandler {
	if h == nil {
		panic("harness cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HarnessHandler{harness: h, logger: logger.With(slog.String("component", "harness_handler"))}
}

// CreateCards handles POST /api/test-harness/cards.
func (h *HarnessHandler) CreateCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body HarnessCardsRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	cards, err := h.harness.CreateCards(r.Context(), userID, harness.CreateCardsRequest{
		Count:       body.Count,
		ContentType: domain.ContentType(body.ContentType),
		State:       domain.State(body.State),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create cards")
		return
	}

	resp := HarnessCardsResponse{Created: len(cards), CardIDs: make([]string, 0, len(cards))}
	for _, c := range cards {
		resp.CardIDs = append(resp.CardIDs, c.ID.String())
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// ForceAge handles POST /api/test-harness/force-age.
func (h *HarnessHandler) ForceAge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body ForceAgeRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ids, types, err := parseSelector(body.CardIDs, body.ContentTypes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	updated, err := h.harness.ForceAge(r.Context(), userID, harness.ForceAgeRequest{
		CardIDs:      ids,
		ContentTypes: types,
		DaysOverdue:  body.DaysOverdue,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to age cards")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ForceAgeResponse{Updated: updated})
}
