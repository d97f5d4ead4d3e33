package redistribute

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/timeutil"
)

// Limits are the capacity safeguards applied to every plan.
type Limits struct {
	// MaxCardsPerDay caps the cards a spread may put on one day.
	MaxCardsPerDay int
	// MaxRecoveryDays caps how far into the future recovery may reach.
	MaxRecoveryDays int
}

// Input is the per-request context of a redistribution.
type Input struct {
	Now      time.Time
	Location *time.Location
	// ExistingLoad counts cards already due on each day (keyed by
	// timeutil.DayKey) that are not part of the redistributed set.
	ExistingLoad map[string]int
}

// Plan is the computed mapping from card to new due date.
type Plan struct {
	Policy      Policy
	Assignments map[uuid.UUID]time.Time
	// DayLoad counts assigned cards per day key.
	DayLoad map[string]int
	// Days is the number of distinct days that received cards.
	Days int
	// Clamp is set when a capacity safeguard changed the plan.
	Clamp *domain.CapacityReport
}

// CapacityError returns ErrCapacityExceeded wrapped with the clamp reason,
// or nil when the plan was not clamped.
func (p *Plan) CapacityError() error {
	if p.Clamp == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrCapacityExceeded, p.Clamp.Reason)
}

// Engine computes redistribution plans.
type Engine struct {
	limits Limits
}

// NewEngine creates an engine. Non-positive limits disable the matching
// safeguard.
func NewEngine(limits Limits) *Engine {
	return &Engine{limits: limits}
}

// Redistribute assigns a new due date to every card under policy. Cards are
// ordered by due then id first, so the same input always yields the same
// plan.
func (e *Engine) Redistribute(cards []*domain.Card, policy Policy, in Input) (*Plan, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if in.Location == nil {
		in.Location = time.UTC
	}

	plan := &Plan{
		Policy:      policy,
		Assignments: make(map[uuid.UUID]time.Time, len(cards)),
		DayLoad:     make(map[string]int),
	}
	if len(cards) == 0 {
		return plan, nil
	}

	ordered := sortedCards(cards)

	switch policy.Kind {
	case KindFixedDate:
		e.fixedDate(plan, ordered, policy.Date, in)
	case KindSpread:
		e.spread(plan, ordered, policy.Days, in)
	case KindRecovery:
		e.recover(plan, ordered, policy.DailyLimit, in)
	}

	plan.Days = len(plan.DayLoad)
	return plan, nil
}

func (e *Engine) fixedDate(plan *Plan, cards []*domain.Card, date time.Time, in Input) {
	day := timeutil.StartOfDay(date, in.Location)
	for _, c := range cards {
		plan.assign(c.ID, day, in.Location)
	}
}

func (e *Engine) spread(plan *Plan, cards []*domain.Card, days int, in Input) {
	n := len(cards)
	if perDay := e.limits.MaxCardsPerDay; perDay > 0 && ceilDiv(n, days) > perDay {
		applied := ceilDiv(n, perDay)
		plan.Clamp = &domain.CapacityReport{
			Requested: days,
			Applied:   applied,
			Reason:    fmt.Sprintf("%d cards over %d days exceeds %d per day", n, days, perDay),
		}
		days = applied
	}

	// Round-robin gives the first n mod days buckets one extra card.
	for i, c := range cards {
		plan.assign(c.ID, timeutil.AddDays(in.Now, i%days, in.Location), in.Location)
	}
}

func (e *Engine) recover(plan *Plan, cards []*domain.Card, limit int, in Input) {
	var reasons []string
	if perDay := e.limits.MaxCardsPerDay; perDay > 0 && limit > perDay {
		reasons = append(reasons, fmt.Sprintf("daily limit %d lowered to %d", limit, perDay))
		limit = perDay
	}

	existing := func(day int) int {
		return in.ExistingLoad[timeutil.DayKey(timeutil.AddDays(in.Now, day, in.Location), in.Location)]
	}

	n := len(cards)
	needed := daysNeeded(n, limit, existing)
	horizon := needed
	if maxDays := e.limits.MaxRecoveryDays; maxDays > 0 && needed > maxDays {
		horizon = maxDays
		reasons = append(reasons, fmt.Sprintf("%d days needed, horizon is %d", needed, maxDays))
	}
	if len(reasons) > 0 {
		plan.Clamp = &domain.CapacityReport{
			Requested: needed,
			Applied:   horizon,
			Reason:    strings.Join(reasons, "; "),
		}
	}

	// Start from ceil(n/limit) days and widen the window only when
	// existing load leaves no room. Each card goes to the least loaded day
	// in the window, earliest first, which reduces to round-robin when no
	// day has existing load.
	window := ceilDiv(n, limit)
	if window > horizon {
		window = horizon
	}
	totals := make([]int, 0, horizon)
	for d := 0; d < window; d++ {
		totals = append(totals, existing(d))
	}

	for _, c := range cards {
		best := leastLoaded(totals)
		for totals[best] >= limit && len(totals) < horizon {
			totals = append(totals, existing(len(totals)))
			best = leastLoaded(totals)
		}
		totals[best]++
		plan.assign(c.ID, timeutil.AddDays(in.Now, best, in.Location), in.Location)
	}
}

// daysNeeded counts the days from today needed to fit n cards at limit per
// day given the existing load.
func daysNeeded(n, limit int, existing func(int) int) int {
	days, room := 0, 0
	for room < n {
		if free := limit - existing(days); free > 0 {
			room += free
		}
		days++
	}
	return days
}

func (p *Plan) assign(id uuid.UUID, day time.Time, loc *time.Location) {
	p.Assignments[id] = day.UTC()
	p.DayLoad[timeutil.DayKey(day, loc)]++
}

func leastLoaded(totals []int) int {
	best := 0
	for i, t := range totals {
		if t < totals[best] {
			best = i
		}
	}
	return best
}

func sortedCards(cards []*domain.Card) []*domain.Card {
	out := make([]*domain.Card, 0, len(cards))
	for _, c := range cards {
		if c != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Due.Equal(out[j].Due) {
			return out[i].Due.Before(out[j].Due)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
