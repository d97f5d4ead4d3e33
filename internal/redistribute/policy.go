// Package redistribute computes new due dates for a set of cards under a
// distribution policy and a per-day capacity.
//
// Every assigned due date is the start of a calendar day in the user's
// timezone, so two cards placed on the same day always share one instant.
package redistribute

import (
	"errors"
	"fmt"
	"time"
)

// Kind names a distribution policy.
type Kind string

// Policy kinds
const (
	KindFixedDate Kind = "fixed_date"
	KindSpread    Kind = "spread_over_days"
	KindRecovery  Kind = "recovery"
)

var (
	// ErrInvalidPolicy is returned for a policy with missing or out-of-range
	// parameters.
	ErrInvalidPolicy = errors.New("invalid redistribution policy")

	// ErrCapacityExceeded describes a plan that had to be clamped to stay
	// within the per-day maximum or the recovery horizon. It is reported,
	// never returned as a failure.
	ErrCapacityExceeded = errors.New("redistribution capacity exceeded")
)

// Policy selects how cards are spread over days.
type Policy struct {
	Kind Kind
	// Date is the target day for KindFixedDate.
	Date time.Time
	// Days is the number of consecutive days for KindSpread.
	Days int
	// DailyLimit is the per-day capacity for KindRecovery.
	DailyLimit int
}

// FixedDate places every card on the day of d.
func FixedDate(d time.Time) Policy {
	return Policy{Kind: KindFixedDate, Date: d}
}

// SpreadOverDays spreads cards round-robin over days consecutive days
// starting today.
func SpreadOverDays(days int) Policy {
	return Policy{Kind: KindSpread, Days: days}
}

// RecoveryMode spreads cards over ceil(N/dailyLimit) days starting today,
// keeping every day's total load, existing reviews included, within
// dailyLimit.
func RecoveryMode(dailyLimit int) Policy {
	return Policy{Kind: KindRecovery, DailyLimit: dailyLimit}
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindFixedDate:
		if p.Date.IsZero() {
			return fmt.Errorf("%w: fixed date is required", ErrInvalidPolicy)
		}
	case KindSpread:
		if p.Days < 1 {
			return fmt.Errorf("%w: days must be at least 1, got %d", ErrInvalidPolicy, p.Days)
		}
	case KindRecovery:
		if p.DailyLimit < 1 {
			return fmt.Errorf("%w: daily limit must be at least 1, got %d", ErrInvalidPolicy, p.DailyLimit)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, p.Kind)
	}
	return nil
}

// String describes the policy for results and logs.
func (p Policy) String() string {
	switch p.Kind {
	case KindFixedDate:
		return fmt.Sprintf("fixed_date(%s)", p.Date.Format("2006-01-02"))
	case KindSpread:
		return fmt.Sprintf("spread_over_days(%d)", p.Days)
	case KindRecovery:
		return fmt.Sprintf("recovery(%d/day)", p.DailyLimit)
	default:
		return string(p.Kind)
	}
}
