package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/bulk"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "expired token", err: auth.ErrExpiredToken, wantStatus: http.StatusUnauthorized, wantMessage: "Token expired"},
		{name: "wrong token type", err: auth.ErrWrongTokenType, wantStatus: http.StatusUnauthorized, wantMessage: "Invalid token"},
		{name: "no user", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantMessage: "User ID not found or invalid"},
		{name: "wrapped card not found", err: fmt.Errorf("get: %w", store.ErrCardNotFound), wantStatus: http.StatusNotFound, wantMessage: "Card not found"},
		{name: "preferences not found", err: store.ErrPreferencesNotFound, wantStatus: http.StatusNotFound, wantMessage: "Resource not found"},
		{name: "duplicate card", err: store.ErrCardExists, wantStatus: http.StatusConflict, wantMessage: "Card already exists"},
		{name: "validation", err: domain.NewValidationError("new_date", "is not a date", nil), wantStatus: http.StatusBadRequest, wantMessage: "Invalid new_date: is not a date"},
		{name: "request validation", err: domain.NewValidationError("", "selector required", nil), wantStatus: http.StatusBadRequest, wantMessage: "Invalid request: selector required"},
		{name: "invalid rating", err: domain.ErrInvalidRating, wantStatus: http.StatusBadRequest, wantMessage: "Invalid rating"},
		{name: "invalid entity", err: fmt.Errorf("%w: bad", store.ErrInvalidEntity), wantStatus: http.StatusBadRequest, wantMessage: "Invalid entity data"},
		{name: "persistence", err: bulk.NewPersistenceError("reschedule", errors.New("tx aborted")), wantStatus: http.StatusInternalServerError, wantMessage: "Failed to save bulk changes"},
		{name: "review failed", err: review.NewApplyReviewError("update", errors.New("boom")), wantStatus: http.StatusInternalServerError, wantMessage: "Failed to apply review"},
		{name: "deadline", err: context.DeadlineExceeded, wantStatus: http.StatusServiceUnavailable, wantMessage: "Request timed out"},
		{name: "unknown", err: errors.New("SELECT * FROM cards failed"), wantStatus: http.StatusInternalServerError, wantMessage: "An unexpected error occurred"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.wantStatus, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.wantMessage, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestGetSafeErrorMessageNil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()
	err := shared.ValidateRequest(&RescheduleRequest{NewDate: "tomorrow"})
	require.Error(t, err)

	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
	assert.Equal(t, "Invalid new_date: expected YYYY-MM-DD", GetSafeErrorMessage(err))
	assert.Equal(t, "new_date", errorField(err))
}

func TestHandleAPIErrorFallback(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/bulk/overdue-stats", nil)
	HandleAPIError(rec, req, errors.New("redis: connection pool timeout at 10.0.0.3:6379"), "Failed to compute overdue stats")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[shared.ErrorResponse](t, rec)
	assert.Equal(t, "Failed to compute overdue stats", resp.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")

	rec = httptest.NewRecorder()
	HandleAPIError(rec, req, store.ErrCardNotFound, "Failed to compute overdue stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Card not found", decodeBody[shared.ErrorResponse](t, rec).Error)
}
