package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/backlog"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/platform/postgres"
	"github.com/phrazzld/scry-scheduler/internal/platform/redis"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
	"github.com/phrazzld/scry-scheduler/internal/service/bulk"
	"github.com/phrazzld/scry-scheduler/internal/service/harness"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// application holds the shared dependencies and owns their cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore        store.CardStore
	preferencesStore store.PreferencesStore
	snapshotCache    *redis.SnapshotCache

	jwtService    auth.JWTService
	srsService    srs.Service
	classifier    *backlog.Classifier
	bulkExecutor  *bulk.Executor
	reviewService review.Service
	harness       *harness.Service
}

// newApplication wires stores and services. Redis is optional: when it is
// not configured, or unreachable at startup, snapshots are recomputed on
// every request.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	params, err := srs.NewParams(schedulerParams(cfg.Scheduler))
	if err != nil {
		return nil, fmt.Errorf("failed to configure memory model: %w", err)
	}
	app.srsService = srs.NewServiceWithParams(params)

	if cfg.Database.Driver == "sqlite" {
		app.cardStore = sqlite.NewSQLiteCardStore(db, logger)
		app.preferencesStore = sqlite.NewSQLitePreferencesStore(db, logger)
	} else {
		app.cardStore = postgres.NewPostgresCardStore(db, logger)
		app.preferencesStore = postgres.NewPostgresPreferencesStore(db, logger)
	}

	var classifierOpts []backlog.Option
	if cfg.Redis.Enabled() {
		app.snapshotCache, err = redis.NewSnapshotCache(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("snapshot cache unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			classifierOpts = append(classifierOpts, backlog.WithCache(app.snapshotCache))
		}
	}

	app.classifier = backlog.NewClassifier(app.cardStore, app.preferencesStore, cfg.Backlog, logger, classifierOpts...)
	app.bulkExecutor = bulk.NewExecutor(db, app.cardStore, app.classifier, app.srsService, cfg.Bulk, logger)
	app.reviewService = review.NewReviewService(db, app.cardStore, app.srsService, app.classifier, logger)
	if cfg.Harness.Enabled {
		app.harness = harness.NewService(db, app.cardStore, app.srsService, app.classifier, logger)
		logger.Warn("test harness routes are enabled")
	}

	logger.Info("application initialized")
	return app, nil
}

// schedulerParams maps configuration overrides onto the memory model.
// Empty step lists keep the model defaults.
func schedulerParams(cfg config.SchedulerConfig) srs.ParamsConfig {
	params := srs.ParamsConfig{
		Weights:          cfg.Weights,
		DesiredRetention: cfg.DesiredRetention,
		MaximumInterval:  cfg.MaximumInterval,
	}
	if len(cfg.LearningSteps) > 0 {
		params.LearningSteps = cfg.LearningSteps
	}
	if len(cfg.RelearningSteps) > 0 {
		params.RelearningSteps = cfg.RelearningSteps
	}
	return params
}

// Run serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the cache and database connections.
func (app *application) cleanup() {
	if app.snapshotCache != nil {
		if err := app.snapshotCache.Close(); err != nil {
			app.logger.Error("failed to close snapshot cache", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
