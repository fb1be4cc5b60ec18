package stats

import (
	"math/rand"
	"reflect"
	"testing"

	"weekplan/internal/planning"
)

func TestAggregate_Scenario(t *testing.T) {
	tasks := []planning.Task{
		{ID: "1", Sector: "Structure", IsFullyCompleted: true},
		{ID: "2", Sector: "Structure", CauseIfNotDone: "Material"},
		{ID: "3", Sector: "MEP", IsFullyCompleted: true},
	}

	res := Aggregate(tasks)

	if res.Overall.CompletedTasks != 2 || res.Overall.TotalTasks != 3 {
		t.Fatalf("unexpected overall: %+v", res.Overall)
	}
	if got := RoundPercentage(res.Overall.Percentage); got != 66.67 {
		t.Errorf("expected 66.67, got %v", got)
	}
	if len(res.Causes) != 1 {
		t.Fatalf("expected 1 cause, got %+v", res.Causes)
	}
	c := res.Causes[0]
	if c.Label != "Material" || c.Count != 1 || c.ParticipationPercentage != 100 {
		t.Errorf("unexpected cause: %+v", c)
	}
	if s := res.BySector["Structure"]; s.TotalTasks != 2 || s.CompletedTasks != 1 || s.Percentage != 50 {
		t.Errorf("Structure breakdown mismatch: %+v", s)
	}
	if s := res.BySector["MEP"]; s.Percentage != 100 {
		t.Errorf("MEP breakdown mismatch: %+v", s)
	}
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(nil)
	if res.Overall.TotalTasks != 0 || res.Overall.Percentage != 0 {
		t.Errorf("empty list should produce zeros, got %+v", res.Overall)
	}
	if len(res.Causes) != 0 {
		t.Errorf("expected no causes, got %+v", res.Causes)
	}
}

func TestAggregate_BlankCategoriesGoToUndefined(t *testing.T) {
	tasks := []planning.Task{
		{ID: "1", Sector: "", Executor: "  "},
		{ID: "2", Sector: "Roof", Executor: "Acme", IsFullyCompleted: true},
	}

	res := Aggregate(tasks)

	if res.BySector[UndefinedCategory].TotalTasks != 1 {
		t.Errorf("blank sector should be bucketed as undefined: %+v", res.BySector)
	}
	if res.ByExecutor[UndefinedCategory].TotalTasks != 1 {
		t.Errorf("whitespace executor should be bucketed as undefined: %+v", res.ByExecutor)
	}
	if res.ByTeam[UndefinedCategory].TotalTasks != 2 {
		t.Errorf("all teams blank: %+v", res.ByTeam)
	}
}

func TestRankCauses_DenominatorAndOrder(t *testing.T) {
	tasks := []planning.Task{
		{ID: "1", CauseIfNotDone: "Rain"},
		{ID: "2", CauseIfNotDone: "Material"},
		{ID: "3", CauseIfNotDone: "Rain"},
		{ID: "4", CauseIfNotDone: "Labor"},
		{ID: "5"}, // no cause: excluded from the denominator
		{ID: "6", IsFullyCompleted: true, CauseIfNotDone: "Rain"}, // completed: ignored
	}

	causes := RankCauses(tasks)

	want := []CauseShare{
		{Label: "Rain", Count: 2, ParticipationPercentage: 50},
		{Label: "Labor", Count: 1, ParticipationPercentage: 25},
		{Label: "Material", Count: 1, ParticipationPercentage: 25},
	}
	if !reflect.DeepEqual(causes, want) {
		t.Errorf("got %+v\nwant %+v", causes, want)
	}
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sectors := []string{"A", "B", "", "C"}
	causes := []string{"", "Rain", "Design", "Material"}

	for n := 0; n < 40; n++ {
		tasks := make([]planning.Task, n)
		for i := range tasks {
			tasks[i] = planning.Task{
				ID:               string(rune('a' + i%26)),
				Sector:           sectors[rng.Intn(len(sectors))],
				IsFullyCompleted: rng.Intn(2) == 0,
				CauseIfNotDone:   causes[rng.Intn(len(causes))],
			}
		}

		a := Aggregate(tasks)
		if a.Overall.TotalTasks != len(tasks) {
			t.Fatalf("n=%d: total %d", n, a.Overall.TotalTasks)
		}
		if a.Overall.Percentage < 0 || a.Overall.Percentage > 100 {
			t.Fatalf("n=%d: percentage out of range %v", n, a.Overall.Percentage)
		}
		if !reflect.DeepEqual(a, Aggregate(tasks)) {
			t.Fatalf("n=%d: repeated aggregation differs", n)
		}

		shuffled := make([]planning.Task, n)
		copy(shuffled, tasks)
		rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if !reflect.DeepEqual(a, Aggregate(shuffled)) {
			t.Fatalf("n=%d: aggregation depends on input order", n)
		}

		sum := 0
		for _, g := range a.BySector {
			sum += g.TotalTasks
		}
		if sum != n {
			t.Fatalf("n=%d: sector breakdown covers %d tasks", n, sum)
		}
	}
}
