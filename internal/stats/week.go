package stats

import (
	"fmt"
	"time"
)

// WeekNumber returns the 1-based week index used for all weekly rollups.
//
// This is NOT ISO-8601 week numbering. It reproduces the platform's
// historical formula
//
//	ceil((daysSinceJan1 + weekdayOfJan1 + 1) / 7)
//
// with Sunday-based weekday indices (0=Sunday..6=Saturday), evaluated on
// the local calendar of t. The formula mishandles year boundaries: late
// December dates stay in week 53/54 of their own year instead of rolling
// into week 1 of the next. Stored rollups and existing clients key on
// these exact values, so the formula must not be "fixed" to ISO semantics.
func WeekNumber(t time.Time) int {
	firstJan := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	pastDays := int(t.Sub(firstJan) / (24 * time.Hour))
	return (pastDays + int(firstJan.Weekday()) + 1 + 6) / 7
}

// WeekKey renders the rollup key for a session's start time, e.g. "2025-W31".
func WeekKey(t time.Time) string {
	return fmt.Sprintf("%d-W%d", t.Year(), WeekNumber(t))
}
