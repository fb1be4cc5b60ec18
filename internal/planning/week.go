package planning

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the on-wire layout for calendar dates and week keys.
const DateLayout = "2006-01-02"

// MondayOf normalizes a timestamp to 00:00 of the Monday starting its ISO week.
func MondayOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	// Go's Weekday starts at Sunday=0. Monday is the anchor.
	offset := int(t.Weekday()) - 1
	if offset < 0 {
		offset = 6
	}
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// SundayEnd returns the last millisecond (23:59:59.999) of the week containing t.
func SundayEnd(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	m := MondayOf(t)
	return time.Date(m.Year(), m.Month(), m.Day()+6, 23, 59, 59, int(999*time.Millisecond), m.Location())
}

// StartOfDay strips the time of day.
func StartOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CalendarDate keeps t's date as read in its own zone and anchors it at UTC
// midnight, so dates from different offsets compare as plain days.
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// WeekKey is the ISO date of the Monday anchoring t's week. Zero times map to "".
func WeekKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return MondayOf(t).Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD and RFC3339 timestamps. Date-only values are
// interpreted in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	// Timestamps without zone, as some exports write them.
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CalendarDaysBetween returns the signed number of calendar days from b to a.
// Time of day is ignored; rounding absorbs DST shifts.
func CalendarDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(da.Sub(db).Hours() / 24))
}
