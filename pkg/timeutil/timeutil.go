// Package timeutil provides UTC calendar-day helpers. Streak accounting is
// defined over UTC calendar days regardless of where users actually are, so
// every consumer normalizes through these functions.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// FormatDate is the canonical date layout (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// StartOfDay truncates a time to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day.
func Today() time.Time {
	return StartOfDay(time.Now())
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.YearDay() == bu.YearDay()
}

// IsConsecutiveDay reports whether b is the UTC calendar day after a.
func IsConsecutiveDay(a, b time.Time) bool {
	return SameDay(StartOfDay(a).AddDate(0, 0, 1), b)
}

// DaysBetween returns the signed number of UTC calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b)
	return int(to.Sub(from).Hours() / 24)
}

// DayKey formats a time as its UTC calendar-day string, used as a map and
// cache key.
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// ParseDay parses a YYYY-MM-DD string into midnight UTC of that day.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}
