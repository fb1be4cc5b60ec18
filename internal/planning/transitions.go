package planning

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ToggleDay advances the status of a planned day one step through the cycle
// and returns the new status.
func (t *Task) ToggleDay(day Weekday) (DayStatus, error) {
	if !t.IsPlanned(day) {
		return StatusNotPlanned, fmt.Errorf("toggle %s on task %s: %w", day, t.ID, ErrDayNotPlanned)
	}
	next := NextStatus(t.EffectiveStatus(day))
	t.setStatus(day, next)
	return next, nil
}

// SetDayStatus writes an explicit status for a planned day.
func (t *Task) SetDayStatus(day Weekday, s DayStatus) error {
	if !t.IsPlanned(day) {
		return fmt.Errorf("set %s on task %s: %w", day, t.ID, ErrDayNotPlanned)
	}
	if _, ok := ParseStatus(string(s)); !ok {
		return fmt.Errorf("invalid day status %q", s)
	}
	t.setStatus(day, s)
	return nil
}

func (t *Task) setStatus(day Weekday, s DayStatus) {
	for i := range t.DailyStatus {
		if t.DailyStatus[i].Day == day {
			t.DailyStatus[i].Status = s
			return
		}
	}
	t.DailyStatus = append(t.DailyStatus, DayEntry{Day: day, Status: s})
}

// PlanDay adds a day to the plan without giving it an explicit status.
func (t *Task) PlanDay(day Weekday) {
	if !day.Valid() || t.IsPlanned(day) {
		return
	}
	t.PlannedDays = append(t.PlannedDays, day)
	sortDays(t.PlannedDays)
}

// UnplanDay removes a day from the plan along with its status entry.
func (t *Task) UnplanDay(day Weekday) {
	t.PlannedDays = slices.DeleteFunc(t.PlannedDays, func(d Weekday) bool { return d == day })
	t.DailyStatus = slices.DeleteFunc(t.DailyStatus, func(e DayEntry) bool { return e.Day == day })
}

// SetCompleted updates the completion flag. Completing a task clears its cause.
func (t *Task) SetCompleted(done bool) {
	t.IsFullyCompleted = done
	if done {
		t.Completion = 1
		t.CauseIfNotDone = ""
	} else if t.Completion >= 1 {
		t.Completion = 0
	}
}

// SetCause records why the task was not completed. Completed tasks keep no cause.
func (t *Task) SetCause(cause string) {
	if t.IsFullyCompleted {
		t.CauseIfNotDone = ""
		return
	}
	t.CauseIfNotDone = cause
}

// Duplicate creates a copy of the task in the same week with fresh execution state.
func Duplicate(t Task) Task {
	c := t.Clone()
	c.ID = uuid.NewString()
	c.DailyStatus = []DayEntry{}
	c.IsFullyCompleted = false
	c.Completion = 0
	c.CauseIfNotDone = ""
	return c
}

// CopyToNextWeek duplicates the task into the following week.
func CopyToNextWeek(t Task) Task {
	c := Duplicate(t)
	c.WeekStartDate = MondayOf(t.WeekStartDate).AddDate(0, 0, 7)
	return c
}

// NewTask builds a task for the week containing weekOf with the given days planned.
func NewTask(siteID string, weekOf time.Time, days ...Weekday) Task {
	t := Task{
		ID:            uuid.NewString(),
		SiteID:        siteID,
		WeekStartDate: MondayOf(weekOf),
		PlannedDays:   []Weekday{},
		DailyStatus:   []DayEntry{},
	}
	for _, d := range days {
		t.PlanDay(d)
	}
	return t
}
