// Package timeutil provides timezone-aware calendar helpers for scheduling.
// Every "day" the scheduler assigns is represented by one canonical instant:
// 00:00 of that calendar day in the user's timezone.
package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// StartOfDay returns 00:00 of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// AddDays returns 00:00 of the calendar day n days after t's day in loc.
// Calendar arithmetic keeps the result on midnight across DST changes.
func AddDays(t time.Time, n int, loc *time.Location) time.Time {
	start := StartOfDay(t, loc)
	return time.Date(start.Year(), start.Month(), start.Day()+n, 0, 0, 0, 0, start.Location())
}

// DayKey formats t's calendar day in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as 00:00 in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// FloorDays returns the number of whole days in d. Negative durations
// yield 0.
func FloorDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
