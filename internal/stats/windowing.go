package stats

import (
	"fmt"
	"time"

	"weekplan/internal/planning"
)

// AnalysisWindow is a contiguous range of Monday-anchored weeks.
type AnalysisWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewAnalysisWindow snaps start to its Monday and end to its Sunday.
func NewAnalysisWindow(start, end time.Time) AnalysisWindow {
	normStart := planning.MondayOf(start)
	normEnd := planning.SundayEnd(end)
	if normEnd.Before(normStart) {
		normEnd = planning.SundayEnd(normStart)
	}
	return AnalysisWindow{Start: normStart, End: normEnd}
}

// LastWeeks returns a window of n weeks ending with the week containing until.
func LastWeeks(n int, until time.Time) AnalysisWindow {
	if n < 1 {
		n = 1
	}
	end := planning.MondayOf(until)
	return NewAnalysisWindow(end.AddDate(0, 0, -7*(n-1)), end)
}

// Subdivide returns the Monday of every week in the window.
func (w AnalysisWindow) Subdivide() []time.Time {
	var buckets []time.Time
	for current := w.Start; current.Before(w.End); current = current.AddDate(0, 0, 7) {
		buckets = append(buckets, current)
	}
	return buckets
}

// FindBucketIndex returns the index of the week containing t, or -1.
func (w AnalysisWindow) FindBucketIndex(t time.Time) int {
	if t.IsZero() {
		return -1
	}
	tNorm := planning.MondayOf(t)
	if tNorm.Before(w.Start) || tNorm.After(w.End) {
		return -1
	}
	return planning.CalendarDaysBetween(tNorm, w.Start) / 7
}

// GenerateLabel returns the ISO week label of a bucket, e.g. "2024-W01".
func (w AnalysisWindow) GenerateLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
