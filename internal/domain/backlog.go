package domain

import "time"

// Severity is a coarse classification of backlog size relative to the
// user's daily review capacity.
type Severity string

// Severity levels, in increasing order
const (
	SeverityNormal   Severity = "NORMAL"
	SeverityWarning  Severity = "WARNING"
	SeveritySevere   Severity = "SEVERE"
	SeverityCritical Severity = "CRITICAL"
)

// Band multipliers of the daily limit that separate the severity levels.
const (
	WarningBand = 3
	SevereBand  = 7
)

// ClassifySeverity maps an overdue count to a severity.
// A nil daily limit means unlimited capacity, which is always NORMAL.
func ClassifySeverity(totalOverdue int, dailyLimit *int) Severity {
	if dailyLimit == nil || totalOverdue == 0 {
		return SeverityNormal
	}
	limit := *dailyLimit
	switch {
	case totalOverdue <= limit:
		return SeverityNormal
	case totalOverdue <= WarningBand*limit:
		return SeverityWarning
	case totalOverdue <= SevereBand*limit:
		return SeveritySevere
	default:
		return SeverityCritical
	}
}

// NeedsRecovery reports whether the backlog is large enough that the
// automatic recovery policy should be used.
func (s Severity) NeedsRecovery() bool {
	return s == SeveritySevere || s == SeverityCritical
}

// BacklogSnapshot is a derived, read-only summary of a user's overdue cards.
type BacklogSnapshot struct {
	UserID             string              `json:"user_id"`
	TotalOverdue       int                 `json:"total_overdue"`
	OverdueByType      map[ContentType]int `json:"by_type"`
	VeryOverdueCount   int                 `json:"very_overdue"`
	OldestOverdueDays  int                 `json:"oldest_overdue_days"`
	Severity           Severity            `json:"severity"`
	DailyLimit         *int                `json:"daily_limit"`
	VeryOverduePercent float64             `json:"very_overdue_percent"`
	DaysToClear        int                 `json:"days_to_clear"`
	GeneratedAt        time.Time           `json:"generated_at"`
}
