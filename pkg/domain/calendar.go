package domain

import "time"

// Calendar resolves calendar-day questions in a fixed location. The zero value
// uses time.Local.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar bound to loc (time.Local when nil).
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{loc: loc}
}

// Location returns the location used for day boundaries.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// StartOfDay returns midnight of the calendar day containing t.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	loc := c.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// IsYesterday reports whether prev falls on the calendar day before now.
// AddDate keeps the answer correct across DST transitions.
func (c Calendar) IsYesterday(prev, now time.Time) bool {
	return c.StartOfDay(prev).Equal(c.StartOfDay(now).AddDate(0, 0, -1))
}

// AddDays shifts the start of t's day by n calendar days.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, n)
}

// At returns the wall-clock time hour:minute on the day containing t.
func (c Calendar) At(t time.Time, hour, minute int) time.Time {
	loc := c.Location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// Clock returns the hour and minute of t in the calendar location.
func (c Calendar) Clock(t time.Time) (hour, minute int) {
	h, m, _ := t.In(c.Location()).Clock()
	return h, m
}
