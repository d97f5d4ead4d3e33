package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// CardHandler serves single-card review routes.
type CardHandler struct {
	reviews review.Service
	logger  *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(reviews review.Service, logger *slog.Logger) *CardHandler {
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		reviews: reviews,
		logger:  logger.With(slog.String("component", "card_handler")),
	}
}

// SubmitAnswer handles POST /api/cards/{id}/answer and returns the card
// with its new schedule.
func (h *CardHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	var body AnswerRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	card, err := h.reviews.ApplyReview(r.Context(), userID, cardID, domain.Rating(body.Rating))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("review applied",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("rating", body.Rating),
		slog.Time("due", card.Due))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// Preview handles GET /api/cards/{id}/preview. The response maps each
// rating to the card state that answer would produce.
func (h *CardHandler) Preview(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	outcomes, err := h.reviews.Preview(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to preview card")
		return
	}

	resp := make(map[string]CardResponse, len(outcomes))
	for rating, card := range outcomes {
		resp[string(rating)] = cardToResponse(card)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
