package planning

import (
	"errors"
	"slices"
	"time"
)

// Weekday tags a day slot inside a planning week.
type Weekday string

const (
	Mon Weekday = "mon"
	Tue Weekday = "tue"
	Wed Weekday = "wed"
	Thu Weekday = "thu"
	Fri Weekday = "fri"
	Sat Weekday = "sat"
	Sun Weekday = "sun"
)

// Weekdays lists the day slots in week order, Monday first.
var Weekdays = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

// Valid reports whether d is one of the seven day tags.
func (d Weekday) Valid() bool {
	return slices.Contains(Weekdays, d)
}

// Offset is the number of days between the week's Monday and d, or -1.
func (d Weekday) Offset() int {
	return slices.Index(Weekdays, d)
}

// WeekdayOf returns the day tag of a calendar date.
func WeekdayOf(t time.Time) Weekday {
	offset := int(t.Weekday()) - 1
	if offset < 0 {
		offset = 6
	}
	return Weekdays[offset]
}

// DayStatus is the execution state of one planned day.
type DayStatus string

const (
	StatusPlanned   DayStatus = "planned"
	StatusCompleted DayStatus = "completed"
	StatusNotDone   DayStatus = "not_done"
	// StatusNotPlanned is only ever rendered; it is never stored.
	StatusNotPlanned DayStatus = "not_planned"
)

// ParseStatus maps a raw label onto a storable status.
func ParseStatus(s string) (DayStatus, bool) {
	switch DayStatus(s) {
	case StatusPlanned, StatusCompleted, StatusNotDone:
		return DayStatus(s), true
	}
	return "", false
}

// NextStatus advances the day cycle planned -> completed -> not_done -> planned.
func NextStatus(s DayStatus) DayStatus {
	switch s {
	case StatusPlanned:
		return StatusCompleted
	case StatusCompleted:
		return StatusNotDone
	default:
		return StatusPlanned
	}
}

// ErrDayNotPlanned is returned when a transition targets a day outside the plan.
var ErrDayNotPlanned = errors.New("day is not planned for this task")

// DayEntry is an explicit status for one planned day.
type DayEntry struct {
	Day    Weekday   `json:"day"`
	Status DayStatus `json:"status"`
}

// Task is one planned line item of work for one ISO week.
type Task struct {
	ID          string `json:"id"`
	SiteID      string `json:"siteId"`
	Description string `json:"description,omitempty"`

	Sector      string `json:"sector"`
	Discipline  string `json:"discipline"`
	Team        string `json:"team"`
	Responsible string `json:"responsible"`
	Executor    string `json:"executor"`

	// WeekStartDate is always a Monday at 00:00.
	WeekStartDate time.Time  `json:"weekStartDate"`
	PlannedDays   []Weekday  `json:"plannedDays"`
	DailyStatus   []DayEntry `json:"dailyStatus"`

	// IsFullyCompleted is the authoritative completion signal for PPC.
	IsFullyCompleted bool `json:"isFullyCompleted"`
	// Completion is the persisted completion fraction (0..1) the flag derives from.
	Completion     float64 `json:"completion"`
	CauseIfNotDone string  `json:"causeIfNotDone,omitempty"`
	Order          int     `json:"order"`
}

// WeekKey returns the normalized key of the task's week.
func (t Task) WeekKey() string {
	return WeekKey(t.WeekStartDate)
}

// IsPlanned reports whether day is part of the task's plan.
func (t Task) IsPlanned(day Weekday) bool {
	return slices.Contains(t.PlannedDays, day)
}

// EffectiveStatus resolves the status shown for a day: explicit entries win,
// planned days without an entry are planned, everything else is not_planned.
func (t Task) EffectiveStatus(day Weekday) DayStatus {
	if !t.IsPlanned(day) {
		return StatusNotPlanned
	}
	for _, e := range t.DailyStatus {
		if e.Day == day {
			return e.Status
		}
	}
	return StatusPlanned
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	c := t
	c.PlannedDays = slices.Clone(t.PlannedDays)
	c.DailyStatus = slices.Clone(t.DailyStatus)
	return c
}
