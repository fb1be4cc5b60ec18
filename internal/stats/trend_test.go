package stats

import (
	"testing"
	"time"

	"weekplan/internal/planning"
)

func week(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalysisWindow_Subdivide(t *testing.T) {
	w := NewAnalysisWindow(week(2024, 1, 3), week(2024, 1, 17))

	buckets := w.Subdivide()

	if len(buckets) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(buckets))
	}
	if planning.WeekKey(buckets[0]) != "2024-01-01" || planning.WeekKey(buckets[2]) != "2024-01-15" {
		t.Errorf("unexpected buckets: %v", buckets)
	}
	if idx := w.FindBucketIndex(week(2024, 1, 14)); idx != 1 {
		t.Errorf("Sunday 14th should be in bucket 1, got %d", idx)
	}
	if idx := w.FindBucketIndex(week(2024, 1, 22)); idx != -1 {
		t.Errorf("out of range should be -1, got %d", idx)
	}
	if w.GenerateLabel(buckets[0]) != "2024-W01" {
		t.Errorf("label: %s", w.GenerateLabel(buckets[0]))
	}
}

func TestLastWeeks(t *testing.T) {
	w := LastWeeks(4, week(2024, 2, 1))
	if len(w.Subdivide()) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(w.Subdivide()))
	}
	if planning.WeekKey(w.Start) != "2024-01-08" {
		t.Errorf("start: %s", planning.WeekKey(w.Start))
	}
}

func TestCalculatePPCTrend(t *testing.T) {
	tasks := []planning.Task{
		{ID: "1", WeekStartDate: week(2024, 1, 1), IsFullyCompleted: true},
		{ID: "2", WeekStartDate: week(2024, 1, 1), CauseIfNotDone: "Rain"},
		{ID: "3", WeekStartDate: week(2024, 1, 15), IsFullyCompleted: true},
		{ID: "4", WeekStartDate: week(2023, 12, 25), IsFullyCompleted: true}, // outside
	}
	w := NewAnalysisWindow(week(2024, 1, 1), week(2024, 1, 15))

	trend := CalculatePPCTrend(tasks, w)

	if len(trend.Weeks) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(trend.Weeks))
	}
	if trend.Weeks[0].Percentage != 50 || trend.Weeks[0].Week != "2024-01-01" {
		t.Errorf("week 0: %+v", trend.Weeks[0])
	}
	if trend.Weeks[1].TotalTasks != 0 {
		t.Errorf("empty week should stay with zero totals: %+v", trend.Weeks[1])
	}
	if trend.Weeks[2].Percentage != 100 {
		t.Errorf("week 2: %+v", trend.Weeks[2])
	}
	if trend.Average != 75 {
		t.Errorf("average over active weeks should be 75, got %v", trend.Average)
	}
	if trend.Overall.TotalTasks != 3 {
		t.Errorf("overall should exclude out-of-window tasks: %+v", trend.Overall)
	}
	if len(trend.Causes) != 1 || trend.Causes[0].Label != "Rain" {
		t.Errorf("causes: %+v", trend.Causes)
	}
}
