// Package datex treats leave dates as calendar days. A calendar day is carried as a
// time.Time at UTC midnight so it compares and round-trips through Postgres DATE columns
// without drifting across zones.
package datex

import (
	"time"
)

const Layout = "2006-01-02"

func Parse(v string) (time.Time, error) {
	return time.Parse(Layout, v)
}

func Format(d time.Time) string {
	return d.Format(Layout)
}

// Day strips the time-of-day, keeping the calendar date t shows in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the calendar date of now as seen in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

// EndOfDay is the last millisecond of the calendar day d in loc.
func EndOfDay(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Contains reports whether day lies in the closed range [start, end].
func Contains(start, end, day time.Time) bool {
	day = Day(day)
	return !Day(start).After(day) && !Day(end).Before(day)
}

// Overlaps reports whether two closed date ranges share at least one day.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return !Day(startA).After(Day(endB)) && !Day(endA).Before(Day(startB))
}

// Ptr returns a pointer to the calendar day of t.
func Ptr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}
