package planning

// CompletionMismatch flags a task whose stored completion flag disagrees with
// its day-level statuses. The flag stays authoritative; this is a signal only.
type CompletionMismatch struct {
	TaskID          string  `json:"taskId"`
	WeekKey         string  `json:"week"`
	StoredCompleted bool    `json:"storedCompleted"`
	DaysCompleted   int     `json:"daysCompleted"`
	DaysPlanned     int     `json:"daysPlanned"`
	DerivedFraction float64 `json:"derivedFraction"`
}

// DayCompletion returns the fraction of planned days marked completed.
// A task with nothing planned reports 0.
func DayCompletion(t Task) (completed, planned int, fraction float64) {
	planned = len(t.PlannedDays)
	for _, d := range t.PlannedDays {
		if t.EffectiveStatus(d) == StatusCompleted {
			completed++
		}
	}
	if planned > 0 {
		fraction = float64(completed) / float64(planned)
	}
	return completed, planned, fraction
}

// AuditCompletion lists tasks where IsFullyCompleted does not match
// "every planned day completed".
func AuditCompletion(tasks []Task) []CompletionMismatch {
	var out []CompletionMismatch
	for _, t := range tasks {
		completed, planned, fraction := DayCompletion(t)
		derived := planned > 0 && completed == planned
		if derived == t.IsFullyCompleted {
			continue
		}
		out = append(out, CompletionMismatch{
			TaskID:          t.ID,
			WeekKey:         t.WeekKey(),
			StoredCompleted: t.IsFullyCompleted,
			DaysCompleted:   completed,
			DaysPlanned:     planned,
			DerivedFraction: fraction,
		})
	}
	return out
}
