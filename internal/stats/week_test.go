package stats

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

// TestWeekNumberLiteralTable pins the formula against hand-computed values
// for two years with different Jan-1 weekdays: 2023 starts on a Sunday,
// 2024 on a Monday.
func TestWeekNumberLiteralTable(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"2023 Jan 1 (Sunday start)", date(2023, time.January, 1), 1},
		{"2023 Jan 7 last day of week 1", date(2023, time.January, 7), 1},
		{"2023 Jan 8 first day of week 2", date(2023, time.January, 8), 2},
		{"2023 mid February", date(2023, time.February, 15), 7},
		{"2024 Jan 1 (Monday start)", date(2024, time.January, 1), 1},
		{"2024 Jan 6 last day of week 1", date(2024, time.January, 6), 1},
		{"2024 Jan 7 first day of week 2", date(2024, time.January, 7), 2},
		{"2024 Mar 15", date(2024, time.March, 15), 11},
		{"2025 Jul 23", date(2025, time.July, 23), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekNumber(tt.t); got != tt.want {
				t.Errorf("WeekNumber(%s) = %d, want %d", tt.t.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

// TestWeekNumberYearBoundaryQuirk pins the historical non-ISO behavior:
// December 31 stays in week 53 of its own year instead of rolling into
// week 1 of the next. This is load-bearing for stored rollup keys.
func TestWeekNumberYearBoundaryQuirk(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"2023 Dec 31", date(2023, time.December, 31), 53},
		{"2024 Dec 31 (leap year)", date(2024, time.December, 31), 53},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekNumber(tt.t); got != tt.want {
				t.Errorf("WeekNumber(%s) = %d, want %d", tt.t.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

// TestWeekNumberDeterministic verifies repeated calls agree.
func TestWeekNumberDeterministic(t *testing.T) {
	d := date(2025, time.July, 23)
	first := WeekNumber(d)
	for range 10 {
		if got := WeekNumber(d); got != first {
			t.Fatalf("WeekNumber not deterministic: got %d then %d", first, got)
		}
	}
}

// TestWeekNumberJanFirstAlwaysWeekOne: regardless of which weekday the year
// starts on, Jan 1 itself is week 1 (daysSinceJan1 = 0, weekday <= 6).
func TestWeekNumberJanFirstAlwaysWeekOne(t *testing.T) {
	for year := 2020; year <= 2027; year++ {
		if got := WeekNumber(date(year, time.January, 1)); got != 1 {
			t.Errorf("WeekNumber(Jan 1 %d) = %d, want 1", year, got)
		}
	}
}

func TestWeekKey(t *testing.T) {
	if got := WeekKey(date(2025, time.July, 23)); got != "2025-W30" {
		t.Errorf("WeekKey = %q, want %q", got, "2025-W30")
	}
	if got := WeekKey(date(2024, time.December, 31)); got != "2024-W53" {
		t.Errorf("WeekKey = %q, want %q", got, "2024-W53")
	}
}
