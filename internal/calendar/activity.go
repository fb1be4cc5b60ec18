package calendar

import (
	"time"

	"weekplan/internal/planning"
)

// Restriction is a sub-obligation of an activity that must be cleared by its deadline.
type Restriction struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Resolved    bool       `json:"resolved"`
}

// Activity is a scheduled item of work with its own date range.
type Activity struct {
	ID     string `json:"id"`
	SiteID string `json:"siteId"`
	Name   string `json:"name"`
	// Start and End bound the activity inclusively; both may be absent.
	Start *time.Time `json:"dataInicio,omitempty"`
	End   *time.Time `json:"dataTermino,omitempty"`
	// ReferenceWeek is the declared week id used when Start is absent.
	ReferenceWeek string        `json:"referenceWeek,omitempty"`
	Completed     bool          `json:"completed"`
	Restrictions  []Restriction `json:"restrictions,omitempty"`
}

// Span returns the day-granular interval the activity occupies, as UTC
// calendar dates. A missing or inverted end collapses the span to the start
// day. ok is false without a start.
func (a Activity) Span() (start, end time.Time, ok bool) {
	if a.Start == nil || a.Start.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	start = planning.CalendarDate(*a.Start)
	last := start
	if a.End != nil && !a.End.IsZero() {
		if e := planning.CalendarDate(*a.End); !e.Before(start) {
			last = e
		}
	}
	return start, planning.EndOfDay(last), true
}

// Overlaps applies the inclusive interval test against a week bucket. Both
// sides are compared as calendar dates.
func (a Activity) Overlaps(w WeekBucket) bool {
	start, end, ok := a.Span()
	if !ok {
		return a.ReferenceWeek == w.ID
	}
	ws := planning.CalendarDate(w.Start)
	we := planning.EndOfDay(planning.CalendarDate(w.End))
	return !start.After(we) && !end.Before(ws)
}
