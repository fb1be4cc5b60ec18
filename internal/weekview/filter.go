package weekview

import (
	"slices"
	"strings"
	"time"

	"weekplan/internal/planning"
	"weekplan/internal/stats"
)

// SortKey is a user-chosen ordering for a week view. The zero value keeps the
// stable order-ascending default.
type SortKey string

const (
	SortDefault     SortKey = ""
	SortSector      SortKey = "sector"
	SortDiscipline  SortKey = "discipline"
	SortTeam        SortKey = "team"
	SortResponsible SortKey = "responsible"
	SortExecutor    SortKey = "executor"
)

// ParseSortKey maps a query value onto a SortKey; unknown values fall back to default.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortSector, SortDiscipline, SortTeam, SortResponsible, SortExecutor:
		return k
	}
	return SortDefault
}

// FilterByWeek returns the tasks whose normalized week equals the Monday of
// week, sorted by order ascending. Membership is key equality, not a range test.
func FilterByWeek(tasks []planning.Task, week time.Time) []planning.Task {
	key := planning.WeekKey(week)
	out := []planning.Task{}
	if key == "" {
		return out
	}
	for _, t := range tasks {
		if t.WeekKey() == key {
			out = append(out, t)
		}
	}
	SortTasks(out, SortDefault)
	return out
}

// SortTasks orders tasks in place. Category sorts fall back to order.
func SortTasks(tasks []planning.Task, key SortKey) {
	slices.SortStableFunc(tasks, func(a, b planning.Task) int {
		if key != SortDefault {
			dim := stats.Dimension(key)
			if c := strings.Compare(stats.Category(a, dim), stats.Category(b, dim)); c != 0 {
				return c
			}
		}
		return a.Order - b.Order
	})
}
