package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/service/bulk"
)

// BulkService runs bulk actions over a user's cards.
type BulkService interface {
	Reschedule(ctx context.Context, userID uuid.UUID, req bulk.RescheduleRequest) (*domain.BulkResult, error)
	Delete(ctx context.Context, userID uuid.UUID, req bulk.DeleteRequest) (*domain.BulkResult, error)
	ResetProgress(ctx context.Context, userID uuid.UUID, req bulk.ResetRequest) (*domain.BulkResult, error)
}

// BacklogService reports overdue backlog and resolves study preferences.
type BacklogService interface {
	ClassifyForUser(ctx context.Context, userID uuid.UUID) (*domain.BacklogSnapshot, error)
	Preferences(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// BulkHandler serves the /api/bulk routes.
type BulkHandler struct {
	bulk    BulkService
	backlog BacklogService
	logger  *slog.Logger
}

// NewBulkHandler creates a new BulkHandler.
func NewBulkHandler(bulkService BulkService, backlog BacklogService, logger *slog.Logger) *BulkHandler {
	if bulkService == nil {
		panic("bulkService cannot be nil")
	}
	if backlog == nil {
		panic("backlog cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkHandler{
		bulk:    bulkService,
		backlog: backlog,
		logger:  logger.With(slog.String("component", "bulk_handler")),
	}
}

// Reschedule handles POST /api/bulk/reschedule.
func (h *BulkHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body RescheduleRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ids, types, err := parseSelector(body.CardIDs, body.ContentTypes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	req := bulk.RescheduleRequest{CardIDs: ids, ContentTypes: types, NewDate: body.NewDate}
	if body.DaysToDistribute != nil {
		req.DaysToDistribute = *body.DaysToDistribute
	}

	result, err := h.bulk.Reschedule(r.Context(), userID, req)
	h.respond(w, r, userID, result, err)
}

// Delete handles DELETE /api/bulk/delete.
func (h *BulkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body DeleteRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ids, types, err := parseSelector(body.CardIDs, body.ContentTypes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.bulk.Delete(r.Context(), userID, bulk.DeleteRequest{
		CardIDs:      ids,
		ContentTypes: types,
		DeleteAll:    body.DeleteAll,
	})
	h.respond(w, r, userID, result, err)
}

// ResetProgress handles POST /api/bulk/reset-progress.
func (h *BulkHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body ResetProgressRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	ids, types, err := parseSelector(body.CardIDs, body.ContentTypes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.bulk.ResetProgress(r.Context(), userID, bulk.ResetRequest{CardIDs: ids, ContentTypes: types})
	h.respond(w, r, userID, result, err)
}

// OverdueStats handles GET /api/bulk/overdue-stats.
func (h *BulkHandler) OverdueStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	snap, err := h.backlog.ClassifyForUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute overdue stats")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snap))
}

// respond writes the bulk summary. A persistence failure still returns the
// summary so that clients can see which cards were affected.
func (h *BulkHandler) respond(w http.ResponseWriter, r *http.Request, userID uuid.UUID, result *domain.BulkResult, err error) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err != nil {
		if result != nil && errors.Is(err, bulk.ErrPersistence) {
			log.Error("bulk action failed to persist",
				slog.String("user_id", userID.String()),
				slog.String("action", result.Action),
				slog.Int("failed", result.Failed))
			shared.RespondWithJSON(w, r, http.StatusInternalServerError, result)
			return
		}
		HandleAPIError(w, r, err, "Bulk action failed")
		return
	}

	log.Info("bulk action completed",
		slog.String("user_id", userID.String()),
		slog.String("action", result.Action),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))
	shared.RespondWithJSON(w, r, bulkStatus(result), result)
}

// bulkStatus is 422 when nothing succeeded and every reported failure was a
// missing card, otherwise 200.
func bulkStatus(result *domain.BulkResult) int {
	if result.Succeeded > 0 || result.Failed == 0 {
		return http.StatusOK
	}
	for _, item := range result.Errors {
		if item.Code != domain.ItemErrorNotFound {
			return http.StatusOK
		}
	}
	return http.StatusUnprocessableEntity
}
