// internal/domain/planner/week.go
package planner

import (
	"fmt"
	"time"
)

// DateLayout is the wire and key format for calendar dates.
const DateLayout = "2006-01-02"

// MondayOf returns midnight on the Monday of t's week, in t's location.
// Sunday belongs to the week that started six days earlier.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall-clock time.
// Unlike t.Add(n*24h) this stays on midnight across DST changes.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// FormatDate renders t as YYYY-MM-DD using t's own location (never UTC).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// WeekCursor tracks the displayed week. The anchor is always a Monday at
// midnight; Shift keeps that normalization.
type WeekCursor struct {
	monday   time.Time
	onChange []func(monday time.Time)
}

// NewWeekCursor positions a cursor on the week containing t.
func NewWeekCursor(t time.Time) *WeekCursor {
	return &WeekCursor{monday: MondayOf(t)}
}

// Current returns the Monday of the displayed week.
func (c *WeekCursor) Current() time.Time {
	return c.monday
}

// Shift moves the cursor by delta whole weeks. Any sign or magnitude is
// accepted; listeners are notified after the move.
func (c *WeekCursor) Shift(delta int) {
	c.monday = AddDays(c.monday, delta*DaysPerWeek)
	for _, fn := range c.onChange {
		fn(c.monday)
	}
}

// OnChange registers a listener called with the new Monday after each Shift.
func (c *WeekCursor) OnChange(fn func(monday time.Time)) {
	c.onChange = append(c.onChange, fn)
}

// Day returns the date of day index i (0 = Monday) of the displayed week.
func (c *WeekCursor) Day(i int) time.Time {
	return AddDays(c.monday, i)
}

// Days returns the seven dates of the displayed week, Monday first.
func (c *WeekCursor) Days() []time.Time {
	return WeekDays(c.monday)
}

// WeekDays returns the seven dates starting at monday.
func WeekDays(monday time.Time) []time.Time {
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = AddDays(monday, i)
	}
	return days
}
