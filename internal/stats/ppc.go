package stats

import (
	"math"
	"slices"
	"strings"

	"weekplan/internal/planning"
)

// UndefinedCategory is the bucket for tasks with a blank categorical field.
const UndefinedCategory = "undefined"

// PPCTriple is the completion summary of a group of tasks.
type PPCTriple struct {
	CompletedTasks int     `json:"completedTasks"`
	TotalTasks     int     `json:"totalTasks"`
	Percentage     float64 `json:"percentage"` // 0-100, unrounded
}

// CauseShare ranks one cause of non-completion.
type CauseShare struct {
	Label                   string  `json:"label"`
	Count                   int     `json:"count"`
	ParticipationPercentage float64 `json:"participationPercentage"` // share of all recorded causes
}

// PPCResult is the Percent Plan Complete view of a task window.
type PPCResult struct {
	Overall       PPCTriple            `json:"overall"`
	BySector      map[string]PPCTriple `json:"bySector"`
	ByDiscipline  map[string]PPCTriple `json:"byDiscipline"`
	ByTeam        map[string]PPCTriple `json:"byTeam"`
	ByResponsible map[string]PPCTriple `json:"byResponsible"`
	ByExecutor    map[string]PPCTriple `json:"byExecutor"`
	Causes        []CauseShare         `json:"causes"`
}

// Dimension selects the categorical field a breakdown groups by.
type Dimension string

const (
	DimSector      Dimension = "sector"
	DimDiscipline  Dimension = "discipline"
	DimTeam        Dimension = "team"
	DimResponsible Dimension = "responsible"
	DimExecutor    Dimension = "executor"
)

// Dimensions lists every breakdown dimension.
var Dimensions = []Dimension{DimSector, DimDiscipline, DimTeam, DimResponsible, DimExecutor}

// Category returns the task's value for d, mapping blanks to UndefinedCategory.
func Category(t planning.Task, d Dimension) string {
	var v string
	switch d {
	case DimSector:
		v = t.Sector
	case DimDiscipline:
		v = t.Discipline
	case DimTeam:
		v = t.Team
	case DimResponsible:
		v = t.Responsible
	case DimExecutor:
		v = t.Executor
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return UndefinedCategory
	}
	return v
}

// Aggregate computes the PPC view of a task list. It is pure and
// independent of input order.
func Aggregate(tasks []planning.Task) PPCResult {
	res := PPCResult{
		Overall: triple(tasks),
		Causes:  RankCauses(tasks),
	}
	res.BySector = Breakdown(tasks, DimSector)
	res.ByDiscipline = Breakdown(tasks, DimDiscipline)
	res.ByTeam = Breakdown(tasks, DimTeam)
	res.ByResponsible = Breakdown(tasks, DimResponsible)
	res.ByExecutor = Breakdown(tasks, DimExecutor)
	return res
}

// Breakdown groups tasks by a dimension and summarizes each group.
func Breakdown(tasks []planning.Task, d Dimension) map[string]PPCTriple {
	groups := make(map[string]PPCTriple)
	for _, t := range tasks {
		key := Category(t, d)
		g := groups[key]
		g.TotalTasks++
		if t.IsFullyCompleted {
			g.CompletedTasks++
		}
		groups[key] = g
	}
	for k, g := range groups {
		g.Percentage = percentage(g.CompletedTasks, g.TotalTasks)
		groups[k] = g
	}
	return groups
}

// RankCauses counts causes on incomplete tasks, most frequent first.
// Tasks without a recorded cause stay out of the denominator.
func RankCauses(tasks []planning.Task) []CauseShare {
	counts := make(map[string]int)
	total := 0
	for _, t := range tasks {
		if t.IsFullyCompleted {
			continue
		}
		cause := strings.TrimSpace(t.CauseIfNotDone)
		if cause == "" {
			continue
		}
		counts[cause]++
		total++
	}

	causes := make([]CauseShare, 0, len(counts))
	for label, n := range counts {
		causes = append(causes, CauseShare{
			Label:                   label,
			Count:                   n,
			ParticipationPercentage: percentage(n, total),
		})
	}
	slices.SortFunc(causes, func(a, b CauseShare) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Label, b.Label)
	})
	return causes
}

func triple(tasks []planning.Task) PPCTriple {
	done := 0
	for _, t := range tasks {
		if t.IsFullyCompleted {
			done++
		}
	}
	return PPCTriple{
		CompletedTasks: done,
		TotalTasks:     len(tasks),
		Percentage:     percentage(done, len(tasks)),
	}
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// RoundPercentage rounds to two decimals for presentation.
func RoundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}
