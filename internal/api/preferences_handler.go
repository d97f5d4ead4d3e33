package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// PreferencesHandler serves GET and PUT /api/preferences.
type PreferencesHandler struct {
	prefs    store.PreferencesStore
	backlog  BacklogService
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(prefs store.PreferencesStore, backlog BacklogService, logger *slog.Logger) *PreferencesHandler {
	if prefs == nil {
		panic("prefs cannot be nil")
	}
	if backlog == nil {
		panic("backlog cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferencesHandler{
		prefs:    prefs,
		backlog:  backlog,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "preferences_handler")),
	}
}

// Get returns the saved preferences, or the configured defaults for users
// who never saved any.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	prefs, err := h.backlog.Preferences(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load preferences")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, preferencesToResponse(prefs))
}

// Put replaces the user's preferences. The cached backlog snapshot is
// dropped because severity depends on the daily limit.
func (h *PreferencesHandler) Put(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var body PreferencesRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	prefs := &domain.StudyPreferences{
		UserID:     userID,
		DailyLimit: body.DailyLimit,
		Timezone:   body.Timezone,
		UpdatedAt:  h.timeFunc().UTC(),
	}
	if err := h.prefs.Upsert(r.Context(), prefs); err != nil {
		HandleAPIError(w, r, err, "Failed to save preferences")
		return
	}
	h.backlog.Invalidate(r.Context(), userID)

	log.Info("preferences updated",
		slog.String("user_id", userID.String()),
		slog.Bool("unlimited", prefs.DailyLimit == nil),
		slog.String("timezone", prefs.Timezone))
	shared.RespondWithJSON(w, r, http.StatusOK, preferencesToResponse(prefs))
}
