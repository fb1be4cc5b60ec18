package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
)

func strp(s string) *string { return &s }

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "jsonl"))
	require.NoError(t, err)

	sq, err := NewSQLiteStore(filepath.Join(dir, "weekplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{"jsonl": fs, "sqlite": sq}
}

func TestStore_TaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.CreateTask(ctx, planning.Record{
				SiteID:    "obra-1",
				Sector:    "Structure",
				WeekStart: "2024-01-01",
				DayFields: planning.DayFields{Mon: strp("planned"), Wed: strp("completed")},
				Order:     2,
			})
			require.NoError(t, err)
			require.NotEmpty(t, rec.ID)

			task := planning.ToDomain(rec)
			_, err = task.ToggleDay(planning.Mon)
			require.NoError(t, err)
			task.UnplanDay(planning.Wed)
			task.PlanDay(planning.Fri)
			task.SetCause("Material")

			updated, err := s.UpdateTask(ctx, planning.ToPersisted(task))
			require.NoError(t, err)
			assert.Equal(t, "completed", *updated.Mon)
			assert.Nil(t, updated.Wed)
			assert.Equal(t, "planned", *updated.Fri)
			assert.Equal(t, "Material", *updated.Cause)
			assert.Equal(t, "Structure", updated.Sector, "patch must not touch other columns")

			back := planning.ToDomain(updated)
			assert.Equal(t, []planning.Weekday{planning.Mon, planning.Fri}, back.PlannedDays)

			all, err := s.Tasks(ctx, "obra-1")
			require.NoError(t, err)
			assert.Len(t, all, 1)

			require.NoError(t, s.DeleteTask(ctx, rec.ID))
			all, err = s.Tasks(ctx, "obra-1")
			require.NoError(t, err)
			assert.Empty(t, all)

			assert.ErrorIs(t, s.DeleteTask(ctx, rec.ID), ErrNotFound)
			_, err = s.UpdateTask(ctx, planning.Patch{ID: "missing"})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_SitesAndActivities(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Site(ctx, "obra-1")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.PutSite(ctx, planning.Site{ID: "obra-1", Name: "Tower A", StartDate: &start, EndDate: &end}))
			site, err := s.Site(ctx, "obra-1")
			require.NoError(t, err)
			assert.Equal(t, "Tower A", site.Name)
			require.NotNil(t, site.EndDate)
			assert.True(t, site.EndDate.Equal(end))

			act := calendar.Activity{
				ID: "act-1", SiteID: "obra-1", Name: "Slab pour", Start: &start, End: &deadline,
				Restrictions: []calendar.Restriction{{ID: "r1", Description: "Formwork", Deadline: &deadline}},
			}
			require.NoError(t, s.PutActivity(ctx, act))
			act.Completed = true
			require.NoError(t, s.PutActivity(ctx, act))

			acts, err := s.Activities(ctx, "obra-1")
			require.NoError(t, err)
			require.Len(t, acts, 1)
			assert.True(t, acts[0].Completed)
			require.Len(t, acts[0].Restrictions, 1)
			assert.Equal(t, "Formwork", acts[0].Restrictions[0].Description)
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	_, err = fs.CreateTask(ctx, planning.Record{ID: "t1", SiteID: "obra-1", WeekStart: "2024-01-01", DayFields: planning.DayFields{Tue: strp("planned")}})
	require.NoError(t, err)

	// Corrupt lines are skipped, not fatal.
	f, err := os.OpenFile(fs.Path("obra-1"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	recs, err := reopened.Tasks(ctx, "obra-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "planned", *recs[0].Tue)

	_, err = reopened.UpdateTask(ctx, planning.Patch{ID: "t1", Completion: 1})
	require.NoError(t, err)

	reopened.Reload("obra-1")
	recs, err = reopened.Tasks(ctx, "obra-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, recs[0].Completion)
	assert.Nil(t, recs[0].Tue)
}

func TestSQLiteStore_InvalidRestrictionsKeepActivity(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "weekplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"act-1", "act-2"} {
		require.NoError(t, s.PutActivity(ctx, calendar.Activity{
			ID: id, SiteID: "obra-1", Name: id, Start: &start,
			Restrictions: []calendar.Restriction{{ID: "r-" + id, Description: "Permit"}},
		}))
	}
	_, err = s.db.ExecContext(ctx, `UPDATE activities SET restrictions = '{broken' WHERE id = 'act-1'`)
	require.NoError(t, err)

	acts, err := s.Activities(ctx, "obra-1")
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "act-1", acts[0].ID)
	assert.Empty(t, acts[0].Restrictions)
	require.Len(t, acts[1].Restrictions, 1)
	assert.Equal(t, "Permit", acts[1].Restrictions[0].Description)
}
