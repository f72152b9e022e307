package models

import (
	"time"
)

// DayUTC truncates a time to UTC midnight.
func DayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDayUTC parses a stored date string to UTC midnight.
// Date-only strings (YYYY-MM-DD) are assumed UTC midnight; timestamps are
// truncated to their UTC calendar date. Returns false for malformed input so
// callers can fail open.
func ParseDayUTC(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DayUTC(t), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayUTC(t), true
	}
	return time.Time{}, false
}

// MondayOfWeek returns the Monday (UTC midnight) of the week containing t.
func MondayOfWeek(t time.Time) time.Time {
	day := DayUTC(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// SameWeek reports whether two times fall in the same Monday-start week.
func SameWeek(a, b time.Time) bool {
	return MondayOfWeek(a).Equal(MondayOfWeek(b))
}
