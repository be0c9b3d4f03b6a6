// Package timeutil contains time related helpers
//
// All timestamps in the system are UTC instants. Helpers here never consult
// local zones; callers normalize at the edge
package timeutil

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// MinutesBetween returns whole minutes from a to b, rounded to nearest
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(time.Minute) / time.Minute)
}

// DayOf truncates t to midnight UTC
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the most recent midnight on the given weekday at or before t
func WeekStart(t time.Time, start time.Weekday) time.Time {
	d := DayOf(t)
	diff := (int(d.Weekday()) - int(start) + 7) % 7
	return d.AddDate(0, 0, -diff)
}

// ISO formats t as RFC3339 UTC with second precision, empty for zero time
func ISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ISODate formats t as YYYY-MM-DD in UTC
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
