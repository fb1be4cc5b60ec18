package calendar

import (
	"fmt"
	"math"
	"time"

	"weekplan/internal/planning"
)

// DefaultMaxWeeks bounds calendar generation (ten years of weeks).
const DefaultMaxWeeks = 520

// WeekBucket is one Monday-to-Sunday slot of the project calendar.
type WeekBucket struct {
	ID    string    `json:"id"` // ISO date of the Monday
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"` // Sunday 23:59:59.999
	Label string    `json:"label"`
}

// Contains reports whether t falls inside the bucket.
func (w WeekBucket) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Generator builds project calendars.
type Generator struct {
	// MaxWeeks caps the number of buckets; <= 0 means DefaultMaxWeeks.
	MaxWeeks int
}

// GenerateWeeks builds the calendar with the default bound.
func GenerateWeeks(start, end time.Time) []WeekBucket {
	return Generator{}.GenerateWeeks(start, end)
}

// GenerateWeeks returns contiguous week buckets from the Monday on or before
// start through one buffer week past end. Dates are compared as calendar days
// and buckets are anchored in UTC. An end before start yields a single bucket;
// a zero start yields none.
func (g Generator) GenerateWeeks(start, end time.Time) []WeekBucket {
	if start.IsZero() {
		return nil
	}
	limit := g.MaxWeeks
	if limit <= 0 {
		limit = DefaultMaxWeeks
	}

	start = planning.CalendarDate(start)
	first := planning.MondayOf(start)
	total := 1
	if !end.IsZero() {
		if end = planning.CalendarDate(end); !end.Before(start) {
			total = max(weeksBetween(first, end)+2, 1)
		}
	}
	total = min(total, limit)

	weeks := make([]WeekBucket, total)
	for i := range weeks {
		ws := first.AddDate(0, 0, 7*i)
		we := planning.EndOfDay(ws.AddDate(0, 0, 6))
		weeks[i] = WeekBucket{
			ID:    ws.Format(planning.DateLayout),
			Index: i,
			Start: ws,
			End:   we,
			Label: fmt.Sprintf("Week %d (%s - %s)", i+1, ws.Format("02/01"), we.Format("02/01")),
		}
	}
	return weeks
}

// weeksBetween counts the started weeks from a Monday to end.
func weeksBetween(first, end time.Time) int {
	days := planning.CalendarDaysBetween(end, first)
	return int(math.Ceil(float64(days) / 7))
}

// WeekOf returns the index of the bucket containing t, or -1.
func WeekOf(weeks []WeekBucket, t time.Time) int {
	if len(weeks) == 0 || t.IsZero() {
		return -1
	}
	idx := planning.CalendarDaysBetween(planning.MondayOf(t), weeks[0].Start) / 7
	if planning.MondayOf(t).Before(weeks[0].Start) || idx >= len(weeks) {
		return -1
	}
	return idx
}
