// Package window restricts ingested events to a near-term date horizon.
package window

import "time"

// DefaultOffsets is the day-delta set the listing sources are filtered
// against: yesterday through three days ahead of the reference date.
var DefaultOffsets = []int{-1, 0, 1, 2, 3}

// Filter tests date-only window membership relative to a reference date.
// Both sides of the comparison are truncated to midnight in the filter's
// location; time of day never affects membership.
type Filter struct {
	days map[time.Time]struct{}
	loc  *time.Location
}

// New creates a filter for the given reference date and day offsets.
func New(reference time.Time, offsets []int, loc *time.Location) *Filter {
	days := make(map[time.Time]struct{}, len(offsets))
	for _, off := range offsets {
		day := midnight(reference.In(loc).AddDate(0, 0, off), loc)
		days[day] = struct{}{}
	}
	return &Filter{days: days, loc: loc}
}

// Contains reports whether the instant falls on one of the window's days.
func (f *Filter) Contains(t time.Time) bool {
	_, ok := f.days[midnight(t.In(f.loc), f.loc)]
	return ok
}

// Size returns the number of days in the window.
func (f *Filter) Size() int {
	return len(f.days)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
