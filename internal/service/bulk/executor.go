// Package bulk executes reschedule, delete and reset-progress actions over
// a user's card set. Every action computes its full effect in memory and
// then issues one transactional write.
package bulk

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/redistribute"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/phrazzld/scry-scheduler/internal/timeutil"
	"golang.org/x/sync/errgroup"
)

// Classifier is the subset of the backlog classifier the executor uses.
type Classifier interface {
	Preferences(ctx context.Context, userID uuid.UUID) (*domain.StudyPreferences, error)
	Classify(ctx context.Context, userID uuid.UUID, dailyLimit *int) (*domain.BacklogSnapshot, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// MemoryDefaults provides the memory state given to reset cards.
type MemoryDefaults interface {
	InitialMemory() domain.InitialMemory
}

// Executor runs bulk actions.
type Executor struct {
	db         *sql.DB
	cards      store.CardStore
	classifier Classifier
	engine     *redistribute.Engine
	memory     MemoryDefaults
	cfg        config.BulkConfig
	timeFunc   func() time.Time
	logger     *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(
	db *sql.DB,
	cards store.CardStore,
	classifier Classifier,
	memory MemoryDefaults,
	cfg config.BulkConfig,
	logger *slog.Logger,
) *Executor {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if memory == nil {
		panic("memory cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		db:         db,
		cards:      cards,
		classifier: classifier,
		engine: redistribute.NewEngine(redistribute.Limits{
			MaxCardsPerDay:  cfg.MaxCardsPerDay,
			MaxRecoveryDays: cfg.MaxRecoveryDays,
		}),
		memory:   memory,
		cfg:      cfg,
		timeFunc: time.Now,
		logger:   logger.With(slog.String("component", "bulk_executor")),
	}
}

// Reschedule moves the selected cards to new due dates.
func (e *Executor) Reschedule(ctx context.Context, userID uuid.UUID, req RescheduleRequest) (*domain.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("action", ActionReschedule),
		slog.String("user_id", userID.String()))

	now := e.timeFunc().UTC()
	prefs, err := e.classifier.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	loc, err := prefs.Location()
	if err != nil {
		log.Warn("invalid stored timezone, using UTC",
			slog.String("timezone", prefs.Timezone),
			slog.String("error", err.Error()))
		loc = time.UTC
	}

	var newDate time.Time
	if req.NewDate != "" {
		newDate, err = timeutil.ParseDate(req.NewDate, loc)
		if err != nil {
			return nil, domain.NewValidationError("new_date", "must be a YYYY-MM-DD date", domain.ErrInvalidFormat)
		}
	}

	result := domain.NewBulkResult(ActionReschedule)
	today := timeutil.StartOfDay(now, loc)
	horizonEnd := timeutil.AddDays(now, e.horizonDays(req), loc)
	autoPolicy := req.NewDate == "" && req.DaysToDistribute == 0

	var (
		candidates []*domain.Card
		upcoming   []*domain.Card
		snapshot   *domain.BacklogSnapshot
	)

	// Candidate selection, existing load and backlog severity are
	// independent reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = e.selectCandidates(gctx, userID, req.CardIDs, store.CardFilter{
			ContentTypes:  req.ContentTypes,
			ExcludeNew:    true,
			DueAtOrBefore: &now,
		}, result)
		return err
	})
	g.Go(func() error {
		var err error
		upcoming, err = e.cards.ListByFilter(gctx, userID, store.CardFilter{
			ExcludeNew: true,
			DueBefore:  &horizonEnd,
		})
		return err
	})
	if autoPolicy && prefs.DailyLimit != nil {
		g.Go(func() error {
			var err error
			snapshot, err = e.classifier.Classify(gctx, userID, prefs.DailyLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("failed to load cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	var policy redistribute.Policy
	switch {
	case req.NewDate != "":
		policy = redistribute.FixedDate(newDate)
	case req.DaysToDistribute > 0:
		policy = redistribute.SpreadOverDays(req.DaysToDistribute)
	case snapshot != nil && snapshot.Severity.NeedsRecovery():
		policy = redistribute.RecoveryMode(*prefs.DailyLimit)
	default:
		policy = redistribute.FixedDate(today)
	}

	plan, err := e.engine.Redistribute(candidates, policy, redistribute.Input{
		Now:          now,
		Location:     loc,
		ExistingLoad: existingLoad(upcoming, candidates, today, loc),
	})
	if err != nil {
		return nil, err
	}
	result.Policy = policy.String()
	result.Days = plan.Days
	result.Capacity = plan.Clamp
	if capErr := plan.CapacityError(); capErr != nil {
		log.Warn("redistribution clamped", slog.String("reason", capErr.Error()))
	}

	if len(plan.Assignments) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var changed int
	err = e.write(ctx, func(ctx context.Context, cards store.CardStore) error {
		var err error
		changed, err = cards.BulkSetDue(ctx, userID, plan.Assignments)
		return err
	})
	if err != nil {
		return e.failAll(log, ActionReschedule, result, candidates, err)
	}

	e.finish(ctx, userID, result, len(plan.Assignments), changed)
	log.Info("cards rescheduled",
		slog.String("policy", result.Policy),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("days", result.Days))
	return result, nil
}

// Delete removes the selected cards. Explicit ids take precedence over
// content types, which take precedence over deleteAll; deleteAll removes
// every overdue card.
func (e *Executor) Delete(ctx context.Context, userID uuid.UUID, req DeleteRequest) (*domain.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("action", ActionDelete),
		slog.String("user_id", userID.String()))

	now := e.timeFunc().UTC()
	result := domain.NewBulkResult(ActionDelete)

	filter := store.CardFilter{ContentTypes: req.ContentTypes}
	if len(req.ContentTypes) == 0 {
		filter = store.CardFilter{ExcludeNew: true, DueBefore: &now}
	}
	candidates, err := e.selectCandidates(ctx, userID, req.CardIDs, filter, result)
	if err != nil {
		log.Error("failed to load cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	if len(candidates) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var removed int
	err = e.write(ctx, func(ctx context.Context, cards store.CardStore) error {
		var err error
		removed, err = cards.Delete(ctx, userID, cardIDs(candidates))
		return err
	})
	if err != nil {
		return e.failAll(log, ActionDelete, result, candidates, err)
	}

	e.finish(ctx, userID, result, len(candidates), removed)
	log.Info("cards deleted",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))
	return result, nil
}

// ResetProgress returns the selected cards to NEW. Lapses are kept.
func (e *Executor) ResetProgress(ctx context.Context, userID uuid.UUID, req ResetRequest) (*domain.BulkResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("action", ActionResetProgress),
		slog.String("user_id", userID.String()))

	now := e.timeFunc().UTC()
	result := domain.NewBulkResult(ActionResetProgress)

	candidates, err := e.selectCandidates(ctx, userID, req.CardIDs, store.CardFilter{
		ContentTypes: req.ContentTypes,
	}, result)
	if err != nil {
		log.Error("failed to load cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	if len(candidates) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reset int
	err = e.write(ctx, func(ctx context.Context, cards store.CardStore) error {
		var err error
		reset, err = cards.ResetProgress(ctx, userID, cardIDs(candidates), e.memory.InitialMemory(), now)
		return err
	})
	if err != nil {
		return e.failAll(log, ActionResetProgress, result, candidates, err)
	}

	e.finish(ctx, userID, result, len(candidates), reset)
	log.Info("card progress reset",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed))
	return result, nil
}

// selectCandidates loads explicit ids, recording missing ones as NotFound
// items, or the cards matching filter when no ids are given.
func (e *Executor) selectCandidates(
	ctx context.Context,
	userID uuid.UUID,
	ids []uuid.UUID,
	filter store.CardFilter,
	result *domain.BulkResult,
) ([]*domain.Card, error) {
	if len(ids) == 0 {
		return e.cards.ListByFilter(ctx, userID, filter)
	}

	ids = dedupe(ids)
	cards, err := e.cards.ListByFilter(ctx, userID, store.CardFilter{CardIDs: ids})
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]bool, len(cards))
	for _, c := range cards {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			result.AddFailure(domain.ItemError{
				CardID:  id.String(),
				Code:    domain.ItemErrorNotFound,
				Message: "card not found",
			}, e.cfg.MaxReportedErrors)
		}
	}
	return cards, nil
}

// write runs fn in one transaction. Once issued the write is detached from
// the caller's cancellation so it never stops half way.
func (e *Executor) write(ctx context.Context, fn func(context.Context, store.CardStore) error) error {
	return store.RunInTransaction(context.WithoutCancel(ctx), e.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, e.cards.WithTx(tx))
	})
}

func (e *Executor) failAll(
	log *slog.Logger,
	op string,
	result *domain.BulkResult,
	candidates []*domain.Card,
	err error,
) (*domain.BulkResult, error) {
	log.Error("bulk write failed",
		slog.String("error", err.Error()),
		slog.Int("cards", len(candidates)))

	for _, c := range candidates {
		result.AddFailure(domain.ItemError{
			CardID:  c.ID.String(),
			Code:    domain.ItemErrorPersistence,
			Message: "batch write failed",
		}, e.cfg.MaxReportedErrors)
	}
	return result, NewPersistenceError(op, err)
}

// finish records the write outcome. Rows that disappeared between the read
// and the write are counted as failures.
func (e *Executor) finish(ctx context.Context, userID uuid.UUID, result *domain.BulkResult, expected, changed int) {
	result.Succeeded += changed
	for i := changed; i < expected; i++ {
		result.AddFailure(domain.ItemError{
			Code:    domain.ItemErrorNotFound,
			Message: "card changed during the request",
		}, e.cfg.MaxReportedErrors)
	}
	if changed > 0 {
		e.classifier.Invalidate(ctx, userID)
	}
}

func (e *Executor) horizonDays(req RescheduleRequest) int {
	days := e.cfg.MaxRecoveryDays
	if req.DaysToDistribute > days {
		days = req.DaysToDistribute
	}
	if days < 1 {
		days = 1
	}
	return days
}

// existingLoad counts cards per due day, skipping the ones about to be
// moved. Cards that stay overdue are still owed today and count there.
func existingLoad(upcoming, moving []*domain.Card, today time.Time, loc *time.Location) map[string]int {
	skip := make(map[uuid.UUID]bool, len(moving))
	for _, c := range moving {
		skip[c.ID] = true
	}
	load := make(map[string]int)
	for _, c := range upcoming {
		if skip[c.ID] {
			continue
		}
		due := c.Due
		if due.Before(today) {
			due = today
		}
		load[timeutil.DayKey(due, loc)]++
	}
	return load
}

func cardIDs(cards []*domain.Card) []uuid.UUID {
	ids := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
