package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/bulk"
	"github.com/phrazzld/scry-scheduler/internal/service/harness"
	"github.com/stretchr/testify/require"
)

type fakeBulk struct {
	rescheduleFn func(ctx context.Context, userID uuid.UUID, req bulk.RescheduleRequest) (*domain.BulkResult, error)
	deleteFn     func(ctx context.Context, userID uuid.UUID, req bulk.DeleteRequest) (*domain.BulkResult, error)
	resetFn      func(ctx context.Context, userID uuid.UUID, req bulk.ResetRequest) (*domain.BulkResult, error)
}

func (f *fakeBulk) Reschedule(ctx context.Context, userID uuid.UUID, req bulk.RescheduleRequest) (*domain.BulkResult, error) {
	return f.rescheduleFn(ctx, userID, req)
}

func (f *fakeBulk) Delete(ctx context.Context, userID uuid.UUID, req bulk.DeleteRequest) (*domain.BulkResult, error) {
	return f.deleteFn(ctx, userID, req)
}

func (f *fakeBulk) ResetProgress(ctx context.Context, userID uuid.UUID, req bulk.ResetRequest) (*domain.BulkResult, error) {
	return f.resetFn(ctx, userID, req)
}

type fakeBacklog struct {
	snapshot    *domain.BacklogSnapshot
	prefs       *domain.StudyPreferences
	err         error
	invalidated []uuid.UUID
}

func (f *fakeBacklog) ClassifyForUser(context.Context, uuid.UUID) (*domain.BacklogSnapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeBacklog) Preferences(context.Context, uuid.UUID) (*domain.StudyPreferences, error) {
	return f.prefs, f.err
}

func (f *fakeBacklog) Invalidate(_ context.Context, userID uuid.UUID) {
	f.invalidated = append(f.invalidated, userID)
}

type fakeReviews struct {
	applyFn   func(ctx context.Context, userID, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error)
	previewFn func(ctx context.Context, userID, cardID uuid.UUID) (map[domain.Rating]*domain.Card, error)
}

func (f *fakeReviews) ApplyReview(ctx context.Context, userID, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error) {
	return f.applyFn(ctx, userID, cardID, rating)
}

func (f *fakeReviews) Preview(ctx context.Context, userID, cardID uuid.UUID) (map[domain.Rating]*domain.Card, error) {
	return f.previewFn(ctx, userID, cardID)
}

type fakeHarness struct {
	createFn func(ctx context.Context, userID uuid.UUID, req harness.CreateCardsRequest) ([]*domain.Card, error)
	ageFn    func(ctx context.Context, userID uuid.UUID, req harness.ForceAgeRequest) (int, error)
}

func (f *fakeHarness) CreateCards(ctx context.Context, userID uuid.UUID, req harness.CreateCardsRequest) ([]*domain.Card, error) {
	return f.createFn(ctx, userID, req)
}

func (f *fakeHarness) ForceAge(ctx context.Context, userID uuid.UUID, req harness.ForceAgeRequest) (int, error) {
	return f.ageFn(ctx, userID, req)
}

// authenticatedAs stands in for the auth middleware.
func authenticatedAs(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != uuid.Nil {
				r = r.WithContext(shared.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type testRoutes struct {
	bulk        *BulkHandler
	cards       *CardHandler
	preferences *PreferencesHandler
	harness     *HarnessHandler
}

func newTestRouter(userID uuid.UUID, h testRoutes) http.Handler {
	r := chi.NewRouter()
	r.Use(authenticatedAs(userID))
	if h.bulk != nil {
		r.Post("/api/bulk/reschedule", h.bulk.Reschedule)
		r.Delete("/api/bulk/delete", h.bulk.Delete)
		r.Post("/api/bulk/reset-progress", h.bulk.ResetProgress)
		r.Get("/api/bulk/overdue-stats", h.bulk.OverdueStats)
	}
	if h.cards != nil {
		r.Post("/api/cards/{id}/answer", h.cards.SubmitAnswer)
		r.Get("/api/cards/{id}/preview", h.cards.Preview)
	}
	if h.preferences != nil {
		r.Get("/api/preferences", h.preferences.Get)
		r.Put("/api/preferences", h.preferences.Put)
	}
	if h.harness != nil {
		r.Post("/api/test-harness/cards", h.harness.CreateCards)
		r.Post("/api/test-harness/force-age", h.harness.ForceAge)
	}
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
