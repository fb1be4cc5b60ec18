package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
	"weekplan/internal/store"
)

type GeneratorConfig struct {
	Scenario string // "steady" or "slipping"
	SiteID   string
	Weeks    int // past weeks with execution data
	Now      time.Time
	Seed     int64
}

// Dataset is one generated site with its tasks and activities.
type Dataset struct {
	Site       planning.Site
	Records    []planning.Record
	Activities []calendar.Activity
}

var (
	sectors     = []string{"Structure", "Masonry", "Installations", "Finishing", ""}
	disciplines = []string{"Civil", "Electrical", "Plumbing", "HVAC"}
	teams       = []string{"Team A", "Team B", "Team C"}
	people      = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa"}
	causes      = []string{"Material shortage", "Rain", "Labor absence", "Design change", "Equipment failure"}
	workDays    = planning.Weekdays[:6]
)

func Generate(cfg GeneratorConfig) Dataset {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = 12
	}
	if cfg.SiteID == "" {
		cfg.SiteID = "site-demo"
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	today := time.Date(cfg.Now.Year(), cfg.Now.Month(), cfg.Now.Day(), 0, 0, 0, 0, time.UTC)
	current := planning.MondayOf(today)
	first := current.AddDate(0, 0, -7*cfg.Weeks)
	end := current.AddDate(0, 0, 7*8+4)

	ds := Dataset{
		Site: planning.Site{
			ID:        cfg.SiteID,
			Name:      fmt.Sprintf("Demo site (%s)", cfg.Scenario),
			StartDate: &first,
			EndDate:   &end,
		},
	}

	// Weeks 0..Weeks-1 are past, Weeks is the current one, Weeks+1 is planned ahead.
	for w := 0; w <= cfg.Weeks+1; w++ {
		monday := first.AddDate(0, 0, 7*w)

		// Per-day completion probability.
		p := 0.9
		if cfg.Scenario == "slipping" {
			ratio := float64(w) / float64(cfg.Weeks)
			p = 0.9 - 0.55*min(ratio, 1)
		}

		count := 6 + rng.Intn(5)
		for i := 0; i < count; i++ {
			ds.Records = append(ds.Records, genRecord(rng, cfg.SiteID, monday, today, w, i, p))
		}

		if w%2 == 0 {
			ds.Activities = append(ds.Activities, genActivity(rng, cfg.SiteID, monday, today, w))
		}
	}
	return ds
}

func genRecord(rng *rand.Rand, siteID string, monday, today time.Time, week, i int, p float64) planning.Record {
	rec := planning.Record{
		ID:          fmt.Sprintf("%s-w%02d-%02d", siteID, week, i+1),
		SiteID:      siteID,
		Description: fmt.Sprintf("Task %d of week %s", i+1, planning.WeekKey(monday)),
		Sector:      sectors[rng.Intn(len(sectors))],
		Discipline:  disciplines[rng.Intn(len(disciplines))],
		Team:        teams[rng.Intn(len(teams))],
		Responsible: people[rng.Intn(len(people))],
		Executor:    people[rng.Intn(len(people))],
		WeekStart:   planning.WeekKey(monday),
		Order:       i + 1,
	}

	// 2-4 consecutive working days.
	span := 2 + rng.Intn(3)
	startDay := rng.Intn(len(workDays) - span + 1)
	planned, done := 0, 0
	for _, d := range workDays[startDay : startDay+span] {
		day := monday.AddDate(0, 0, d.Offset())
		status := planning.StatusPlanned
		if day.Before(today) {
			status = planning.StatusNotDone
			if rng.Float64() < p {
				status = planning.StatusCompleted
				done++
			}
		}
		rec.DayFields.Set(d, status)
		planned++
	}

	weekOver := !planning.SundayEnd(monday).After(today)
	switch {
	case done == planned:
		rec.Completion = 1
	case weekOver:
		rec.Completion = float64(done) / float64(planned)
		cause := causes[rng.Intn(len(causes))]
		rec.Cause = &cause
	default:
		rec.Completion = float64(done) / float64(planned)
	}
	return rec
}

func genActivity(rng *rand.Rand, siteID string, monday, today time.Time, week int) calendar.Activity {
	start := monday.AddDate(0, 0, rng.Intn(5))
	end := start.AddDate(0, 0, 7+rng.Intn(7))
	deadline := start.AddDate(0, 0, -3)

	act := calendar.Activity{
		ID:        fmt.Sprintf("%s-act-%02d", siteID, week),
		SiteID:    siteID,
		Name:      fmt.Sprintf("Activity %d", week/2+1),
		Start:     &start,
		End:       &end,
		Completed: end.Before(today),
		Restrictions: []calendar.Restriction{{
			ID:          fmt.Sprintf("%s-act-%02d-r1", siteID, week),
			Description: "Material delivery",
			Deadline:    &deadline,
			Resolved:    deadline.Before(today) && rng.Float64() < 0.8,
		}},
	}
	return act
}

// Save writes the dataset into st.
func Save(ctx context.Context, st store.Store, ds Dataset) error {
	if err := st.PutSite(ctx, ds.Site); err != nil {
		return fmt.Errorf("failed to save site: %w", err)
	}
	for _, rec := range ds.Records {
		if _, err := st.CreateTask(ctx, rec); err != nil {
			return fmt.Errorf("failed to save task %s: %w", rec.ID, err)
		}
	}
	for _, act := range ds.Activities {
		if err := st.PutActivity(ctx, act); err != nil {
			return fmt.Errorf("failed to save activity %s: %w", act.ID, err)
		}
	}
	return nil
}
