package planning

import (
	"slices"
	"strings"
)

// DayFields holds the seven raw day slots of a persisted record.
// A nil slot means the day is not planned.
type DayFields struct {
	Mon *string `json:"mon"`
	Tue *string `json:"tue"`
	Wed *string `json:"wed"`
	Thu *string `json:"thu"`
	Fri *string `json:"fri"`
	Sat *string `json:"sat"`
	Sun *string `json:"sun"`
}

func (f *DayFields) slot(d Weekday) **string {
	switch d {
	case Mon:
		return &f.Mon
	case Tue:
		return &f.Tue
	case Wed:
		return &f.Wed
	case Thu:
		return &f.Thu
	case Fri:
		return &f.Fri
	case Sat:
		return &f.Sat
	case Sun:
		return &f.Sun
	}
	return nil
}

// Get returns the raw value of a day slot.
func (f DayFields) Get(d Weekday) *string {
	if p := f.slot(d); p != nil {
		return *p
	}
	return nil
}

// Set writes a status label into a day slot.
func (f *DayFields) Set(d Weekday, s DayStatus) {
	if p := f.slot(d); p != nil {
		v := string(s)
		*p = &v
	}
}

// Record is the raw shape the record store keeps for a task.
type Record struct {
	ID          string `json:"id"`
	SiteID      string `json:"site_id"`
	Description string `json:"description,omitempty"`
	Sector      string `json:"sector"`
	Discipline  string `json:"discipline"`
	Team        string `json:"team"`
	Responsible string `json:"responsible"`
	Executor    string `json:"executor"`
	WeekStart   string `json:"week_start"`
	DayFields
	// Completion is the persisted completion fraction (0..1).
	Completion float64 `json:"completion"`
	Cause      *string `json:"cause,omitempty"`
	Order      int     `json:"order"`
}

// Patch is a partial record for an update-by-id call. All seven day fields
// are always present so stale slots get cleared.
type Patch struct {
	ID         string    `json:"id"`
	Days       DayFields `json:"days"`
	Completion float64   `json:"completion"`
	Cause      *string   `json:"cause"`
}

// Apply overlays the patch onto a stored record.
func (p Patch) Apply(r Record) Record {
	r.DayFields = p.Days
	r.Completion = p.Completion
	r.Cause = p.Cause
	return r
}

// ToDomain converts a raw record into a Task. It never fails: unknown labels
// leave their day unplanned and unparseable dates yield a zero week.
func ToDomain(r Record) Task {
	t := Task{
		ID:          r.ID,
		SiteID:      r.SiteID,
		Description: r.Description,
		Sector:      r.Sector,
		Discipline:  r.Discipline,
		Team:        r.Team,
		Responsible: r.Responsible,
		Executor:    r.Executor,
		Order:       r.Order,
		PlannedDays: []Weekday{},
		DailyStatus: []DayEntry{},
	}

	if ws, ok := ParseDate(r.WeekStart); ok {
		t.WeekStartDate = MondayOf(ws)
	}

	for _, d := range Weekdays {
		raw := r.DayFields.Get(d)
		if raw == nil {
			continue
		}
		status, ok := ParseStatus(strings.TrimSpace(*raw))
		if !ok {
			continue
		}
		t.PlannedDays = append(t.PlannedDays, d)
		t.DailyStatus = append(t.DailyStatus, DayEntry{Day: d, Status: status})
	}

	t.Completion = min(max(r.Completion, 0), 1)
	t.IsFullyCompleted = r.Completion >= 1
	if !t.IsFullyCompleted && r.Cause != nil && strings.TrimSpace(*r.Cause) != "" {
		t.CauseIfNotDone = *r.Cause
	}
	return t
}

// ToPersisted flattens a task back into day slots. Every slot is reset, each
// explicit status is written, and planned days without a status get "planned".
func ToPersisted(t Task) Patch {
	p := Patch{ID: t.ID}

	for _, e := range t.DailyStatus {
		if !t.IsPlanned(e.Day) {
			continue
		}
		if _, ok := ParseStatus(string(e.Status)); !ok {
			continue
		}
		p.Days.Set(e.Day, e.Status)
	}
	for _, d := range t.PlannedDays {
		if p.Days.Get(d) == nil {
			p.Days.Set(d, StatusPlanned)
		}
	}

	// The flag wins over a drifted fraction.
	p.Completion = t.Completion
	if t.IsFullyCompleted {
		p.Completion = 1
	} else if p.Completion >= 1 {
		p.Completion = 0
	}
	if !t.IsFullyCompleted && t.CauseIfNotDone != "" {
		c := t.CauseIfNotDone
		p.Cause = &c
	}
	return p
}

// ToRecord renders a full record, used when creating tasks.
func ToRecord(t Task) Record {
	p := ToPersisted(t)
	return Record{
		ID:          t.ID,
		SiteID:      t.SiteID,
		Description: t.Description,
		Sector:      t.Sector,
		Discipline:  t.Discipline,
		Team:        t.Team,
		Responsible: t.Responsible,
		Executor:    t.Executor,
		WeekStart:   WeekKey(t.WeekStartDate),
		DayFields:   p.Days,
		Completion:  p.Completion,
		Cause:       p.Cause,
		Order:       t.Order,
	}
}

// ToDomainAll normalizes a record collection, preserving order.
func ToDomainAll(records []Record) []Task {
	tasks := make([]Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, ToDomain(r))
	}
	return tasks
}

func sortDays(days []Weekday) {
	slices.SortFunc(days, func(a, b Weekday) int {
		return a.Offset() - b.Offset()
	})
}
