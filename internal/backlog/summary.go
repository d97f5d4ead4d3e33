// Package backlog classifies a user's overdue cards into a backlog snapshot
// with a severity level relative to their daily review capacity.
package backlog

import (
	"math"
	"time"

	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/timeutil"
)

// Summarize builds a snapshot from cards at now. Cards that are not overdue
// (NEW, or due at or after now) are ignored, so callers may pass a superset.
// A card counts as very overdue when it is more than veryOverdueDays days
// late.
func Summarize(cards []*domain.Card, now time.Time, dailyLimit *int, veryOverdueDays int) *domain.BacklogSnapshot {
	snap := &domain.BacklogSnapshot{
		OverdueByType: make(map[domain.ContentType]int, len(domain.AllContentTypes)),
		DailyLimit:    dailyLimit,
		GeneratedAt:   now.UTC(),
	}
	for _, ct := range domain.AllContentTypes {
		snap.OverdueByType[ct] = 0
	}

	threshold := time.Duration(veryOverdueDays) * 24 * time.Hour
	var oldest time.Duration

	for _, card := range cards {
		if card == nil || !card.IsOverdue(now) {
			continue
		}
		late := now.Sub(card.Due)

		snap.TotalOverdue++
		snap.OverdueByType[card.ContentType]++
		if late > threshold {
			snap.VeryOverdueCount++
		}
		if late > oldest {
			oldest = late
		}
	}

	snap.OldestOverdueDays = timeutil.FloorDays(oldest)
	snap.Severity = domain.ClassifySeverity(snap.TotalOverdue, dailyLimit)

	if snap.TotalOverdue == 0 {
		return snap
	}

	pct := float64(snap.VeryOverdueCount) / float64(snap.TotalOverdue) * 100
	snap.VeryOverduePercent = math.Round(pct*10) / 10
	snap.DaysToClear = DaysToClear(snap.TotalOverdue, dailyLimit)

	return snap
}

// DaysToClear is the number of days needed to review total cards at
// dailyLimit per day. Unlimited capacity clears any backlog in one day.
func DaysToClear(total int, dailyLimit *int) int {
	if total <= 0 {
		return 0
	}
	if dailyLimit == nil || *dailyLimit <= 0 {
		return 1
	}
	return (total + *dailyLimit - 1) / *dailyLimit
}
