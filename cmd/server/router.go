package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-scheduler/internal/api"
	"github.com/phrazzld/scry-scheduler/internal/api/shared"
	apiMiddleware "github.com/phrazzld/scry-scheduler/internal/api/middleware"
)

const healthTimeout = 2 * time.Second

// setupRouter creates the router with all middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	bulkHandler := api.NewBulkHandler(app.bulkExecutor, app.classifier, app.logger)
	cardHandler := api.NewCardHandler(app.reviewService, app.logger)
	preferencesHandler := api.NewPreferencesHandler(app.preferencesStore, app.classifier, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/bulk/reschedule", bulkHandler.Reschedule)
		r.Delete("/bulk/delete", bulkHandler.Delete)
		r.Post("/bulk/reset-progress", bulkHandler.ResetProgress)
		r.Get("/bulk/overdue-stats", bulkHandler.OverdueStats)

		r.Post("/cards/{id}/answer", cardHandler.SubmitAnswer)
		r.Get("/cards/{id}/preview", cardHandler.Preview)

		r.Get("/preferences", preferencesHandler.Get)
		r.Put("/preferences", preferencesHandler.Put)

		if app.harness != nil {
			harnessHandler := api.NewHarnessHandler(app.harness, app.logger)
			r.Post("/test-harness/cards", harnessHandler.CreateCards)
			r.Post("/test-harness/force-age", harnessHandler.ForceAge)
		}
	})

	r.Get("/health", app.health)

	return r
}

// health reports 200 when the database answers a ping. The snapshot cache
// is optional and only reported.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Error("health check failed", slog.String("error", err.Error()))
		status["status"] = "unavailable"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if app.snapshotCache != nil {
		status["cache"] = "ok"
		if err := app.snapshotCache.Ping(ctx); err != nil {
			status["cache"] = "unreachable"
		}
	}

	shared.RespondWithJSON(w, r, code, status)
}
