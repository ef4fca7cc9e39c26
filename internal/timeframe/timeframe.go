// Package timeframe computes the time windows reports are scoped to: the
// rolling lookback window (7d/30d/90d) and the two comparable windows of a
// period-over-period selector (wow/mom/yoy/custom).
package timeframe

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format accepted for custom ranges.
const DateLayout = "2006-01-02"

// labelLayout renders window bounds in period labels, e.g. "Dec 17".
const labelLayout = "Jan 2"

// dayEndNanos puts EndOfDay on the last millisecond of the day.
const dayEndNanos = int(time.Second - time.Millisecond)

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

// Now returns the current time in loc.
func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// FixedTimeProvider always returns the same instant. Used by the CLI and tests
// to render reports "as of" a given moment.
type FixedTimeProvider struct {
	At time.Time
}

// Now returns the fixed instant in loc.
func (p *FixedTimeProvider) Now(loc *time.Location) time.Time {
	return p.At.In(loc)
}

// Window is an inclusive [Start, End] time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days the window touches.
func (w Window) Days() int {
	return daysBetween(w.Start, w.End) + 1
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Equal reports whether both bounds are the same instants.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s–%s", w.Start.Format(labelLayout), w.End.Format(labelLayout))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in its own location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, dayEndNanos, t.Location())
}

// daysBetween counts whole calendar days from a to b, ignoring time of day
// and DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
