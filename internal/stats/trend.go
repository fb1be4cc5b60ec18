package stats

import (
	"time"

	"weekplan/internal/planning"
)

// WeeklyPPC is one point of the PPC history.
type WeeklyPPC struct {
	WeekStarting time.Time `json:"weekStarting"`
	Week         string    `json:"week"`
	Label        string    `json:"label"`
	PPCTriple
}

// TrendSummary aggregates the PPC history of a window.
type TrendSummary struct {
	Weeks []WeeklyPPC `json:"weeks"`
	// Average is the mean weekly percentage over weeks that had tasks.
	Average float64      `json:"average"`
	Overall PPCTriple    `json:"overall"`
	Causes  []CauseShare `json:"causes"`
}

// CalculatePPCTrend buckets tasks by their normalized week and computes PPC per
// week of the window. Weeks without tasks are kept with zero totals.
func CalculatePPCTrend(tasks []planning.Task, window AnalysisWindow) TrendSummary {
	buckets := window.Subdivide()
	perWeek := make([][]planning.Task, len(buckets))
	var inWindow []planning.Task

	for _, t := range tasks {
		idx := window.FindBucketIndex(t.WeekStartDate)
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		perWeek[idx] = append(perWeek[idx], t)
		inWindow = append(inWindow, t)
	}

	summary := TrendSummary{
		Weeks:   make([]WeeklyPPC, len(buckets)),
		Overall: triple(inWindow),
		Causes:  RankCauses(inWindow),
	}

	sum, active := 0.0, 0
	for i, start := range buckets {
		tr := triple(perWeek[i])
		summary.Weeks[i] = WeeklyPPC{
			WeekStarting: start,
			Week:         planning.WeekKey(start),
			Label:        window.GenerateLabel(start),
			PPCTriple:    tr,
		}
		if tr.TotalTasks > 0 {
			sum += tr.Percentage
			active++
		}
	}
	if active > 0 {
		summary.Average = sum / float64(active)
	}
	return summary
}
