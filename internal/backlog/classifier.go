package backlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// SnapshotCache stores derived snapshots between requests. Implementations
// report a miss with any error; the classifier then recomputes.
type SnapshotCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.BacklogSnapshot, error)
	Set(ctx context.Context, userID uuid.UUID, snap *domain.BacklogSnapshot) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Classifier produces backlog snapshots from the card store.
type Classifier struct {
	cards    store.CardStore
	prefs    store.PreferencesStore
	cache    SnapshotCache
	cfg      config.BacklogConfig
	timeFunc func() time.Time
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache enables snapshot caching.
func WithCache(cache SnapshotCache) Option {
	return func(c *Classifier) { c.cache = cache }
}

// WithTimeFunc overrides the clock.
func WithTimeFunc(fn func() time.Time) Option {
	return func(c *Classifier) { c.timeFunc = fn }
}

// NewClassifier creates a Classifier. prefs may be nil, in which case the
// configured defaults always apply.
func NewClassifier(
	cards store.CardStore,
	prefs store.PreferencesStore,
	cfg config.BacklogConfig,
	logger *slog.Logger,
	opts ...Option,
) *Classifier {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VeryOverdueDays <= 0 {
		cfg.VeryOverdueDays = 7
	}

	c := &Classifier{
		cards:    cards,
		prefs:    prefs,
		cfg:      cfg,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "backlog_classifier")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the classifier's current time in UTC.
func (c *Classifier) Now() time.Time {
	return c.timeFunc().UTC()
}

// Classify summarizes the user's overdue cards against dailyLimit.
// A nil dailyLimit means unlimited capacity.
func (c *Classifier) Classify(ctx context.Context, userID uuid.UUID, dailyLimit *int) (*domain.BacklogSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if snap := c.cached(ctx, userID, dailyLimit); snap != nil {
		log.Debug("backlog snapshot served from cache", slog.String("user_id", userID.String()))
		return snap, nil
	}

	now := c.Now()
	cards, err := c.cards.ListByFilter(ctx, userID, store.CardFilter{
		ExcludeNew: true,
		DueBefore:  &now,
	})
	if err != nil {
		log.Error("failed to load overdue cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load overdue cards: %w", err)
	}

	snap := Summarize(cards, now, dailyLimit, c.cfg.VeryOverdueDays)
	snap.UserID = userID.String()

	log.Debug("backlog classified",
		slog.String("user_id", userID.String()),
		slog.Int("total_overdue", snap.TotalOverdue),
		slog.String("severity", string(snap.Severity)))

	if c.cache != nil {
		if err := c.cache.Set(ctx, userID, snap); err != nil {
			log.Warn("failed to cache backlog snapshot", slog.String("error", err.Error()))
		}
	}
	return snap, nil
}

// ClassifyForUser classifies against the user's saved daily limit.
func (c *Classifier) ClassifyForUser(ctx context.Context, userID uuid.UUID) (*domain.BacklogSnapshot, error) {
	prefs, err := c.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, userID, prefs.DailyLimit)
}

// Preferences returns the user's saved preferences, or the configured
// defaults when the user has none.
func (c *Classifier) Preferences(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error) {
	if c.prefs != nil {
		prefs, err := c.prefs.Get(ctx, userID)
		if err == nil {
			if prefs.Timezone == "" {
				prefs.Timezone = c.cfg.DefaultTimezone
			}
			return prefs, nil
		}
		if !errors.Is(err, store.ErrPreferencesNotFound) {
			return nil, fmt.Errorf("failed to load preferences: %w", err)
		}
	}
	return c.DefaultPreferences(userID), nil
}

// DefaultPreferences builds the preferences used for users without any.
func (c *Classifier) DefaultPreferences(userID uuid.UUID) *domain.StudyPreferences {
	prefs := &domain.StudyPreferences{
		UserID:   userID,
		Timezone: c.cfg.DefaultTimezone,
	}
	if c.cfg.DefaultDailyLimit > 0 {
		limit := c.cfg.DefaultDailyLimit
		prefs.DailyLimit = &limit
	}
	return prefs
}

// Invalidate drops any cached snapshot for the user. Failures are logged
// only; the cache TTL bounds staleness.
func (c *Classifier) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, userID); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to invalidate backlog snapshot",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}
}

func (c *Classifier) cached(ctx context.Context, userID uuid.UUID, dailyLimit *int) *domain.BacklogSnapshot {
	if c.cache == nil {
		return nil
	}
	snap, err := c.cache.Get(ctx, userID)
	if err != nil || snap == nil {
		return nil
	}
	if !sameLimit(snap.DailyLimit, dailyLimit) {
		return nil
	}
	return snap
}

func sameLimit(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
