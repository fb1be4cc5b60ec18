package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/calendar"
	"weekplan/internal/config"
	"weekplan/internal/planner"
	"weekplan/internal/planning"
	"weekplan/internal/stats"
	"weekplan/internal/store"
)

var fixedNow = time.Date(2024, 1, 17, 15, 30, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func newFixtureServer(t *testing.T, charts bool) *Server {
	t.Helper()
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.PutSite(ctx, planning.Site{ID: "obra-1", Name: "Tower A", StartDate: &start, EndDate: &end}))
	require.NoError(t, st.PutSite(ctx, planning.Site{ID: "obra-2", Name: "Warehouse"}))

	for _, rec := range []planning.Record{
		{ID: "t1", SiteID: "obra-1", Sector: "Structure", WeekStart: "2024-01-15", DayFields: planning.DayFields{Mon: strp("completed")}, Completion: 1, Order: 1},
		{ID: "t2", SiteID: "obra-1", Sector: "Structure", WeekStart: "2024-01-15", DayFields: planning.DayFields{Tue: strp("not_done")}, Cause: strp("Rain"), Order: 2},
		{ID: "t3", SiteID: "obra-1", Sector: "", WeekStart: "2024-01-15", DayFields: planning.DayFields{Wed: strp("planned"), Thu: strp("planned")}, Order: 3},
		{ID: "t4", SiteID: "obra-1", Sector: "Masonry", WeekStart: "2024-01-08", DayFields: planning.DayFields{Fri: strp("completed")}, Completion: 1, Order: 1},
	} {
		_, err := st.CreateTask(ctx, rec)
		require.NoError(t, err)
	}

	actStart := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	actEnd := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.PutActivity(ctx, calendar.Activity{ID: "a1", SiteID: "obra-1", Name: "Slab pour", Start: &actStart, End: &actEnd}))

	svc := planner.NewService(st, planner.Options{})
	srv := NewServer(&config.AppConfig{EnableMermaidCharts: charts}, svc, "test")
	srv.now = func() time.Time { return fixedNow }
	return srv
}

func TestHandleGetWeekView(t *testing.T) {
	ctx := context.Background()
	srv := newFixtureServer(t, true)

	res, err := srv.handleGetWeekView(ctx, weekInput{SiteID: "obra-1"})
	require.NoError(t, err)
	m := res.(map[string]any)

	assert.Equal(t, "2024-01-15", m["week"], "defaults to the current week")
	rows := m["tasks"].([]taskRow)
	require.Len(t, rows, 3)
	assert.Equal(t, planning.StatusNotPlanned, rows[0].Days[planning.Sun])
	assert.Equal(t, planning.StatusCompleted, rows[0].Days[planning.Mon])

	ppc := m["ppc"].(stats.PPCResult)
	assert.Equal(t, 1, ppc.Overall.CompletedTasks)
	assert.Equal(t, 3, ppc.Overall.TotalTasks)
	assert.Contains(t, ppc.BySector, stats.UndefinedCategory)
	require.Len(t, ppc.Causes, 1)
	assert.Equal(t, "Rain", ppc.Causes[0].Label)
	assert.Contains(t, m["visual_causes_pie"], "pie title")

	res, err = srv.handleGetWeekView(ctx, weekInput{SiteID: "obra-1", Week: "2024-01-10", Sort: "sector"})
	require.NoError(t, err)
	rows = res.(map[string]any)["tasks"].([]taskRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "t4", rows[0].ID)

	_, err = srv.handleGetWeekView(ctx, weekInput{SiteID: "obra-1", Week: "next tuesday"})
	assert.ErrorContains(t, err, "invalid week")
}

func TestHandleGetWeekView_NoChartsWhenDisabled(t *testing.T) {
	srv := newFixtureServer(t, false)
	res, err := srv.handleGetWeekView(context.Background(), weekInput{SiteID: "obra-1"})
	require.NoError(t, err)
	assert.NotContains(t, res.(map[string]any), "visual_causes_pie")
}

func TestHandleGetPPCTrend(t *testing.T) {
	srv := newFixtureServer(t, true)

	res, err := srv.handleGetPPCTrend(context.Background(), trendInput{SiteID: "obra-1", Weeks: 3})
	require.NoError(t, err)
	m := res.(map[string]any)

	trend := m["trend"].(stats.TrendSummary)
	require.Len(t, trend.Weeks, 3)
	assert.Equal(t, 0, trend.Weeks[0].TotalTasks)
	assert.Equal(t, 100.0, trend.Weeks[1].Percentage)
	assert.InDelta(t, 33.33, trend.Weeks[2].Percentage, 0.01)
	assert.Contains(t, m["visual_ppc_trend"], "xychart-beta")

	stability := m["stability"].(stats.XmRResult)
	assert.Equal(t, []string{"2024-01-08", "2024-01-15"}, stability.Keys)
}

func TestHandleCalendarAndUrgency(t *testing.T) {
	ctx := context.Background()
	srv := newFixtureServer(t, true)

	res, err := srv.handleGetCalendar(ctx, dateInput{SiteID: "obra-1"})
	require.NoError(t, err)
	m := res.(map[string]any)
	view := m["calendar"].(planner.CalendarView)
	assert.Equal(t, 2, view.CurrentWeek)
	assert.Len(t, view.Activities["2024-01-08"], 1)
	assert.Len(t, view.Activities["2024-01-15"], 1)
	assert.Contains(t, m["visual_calendar_gantt"], "Slab pour")

	res, err = srv.handleGetUrgency(ctx, dateInput{SiteID: "obra-1"})
	require.NoError(t, err)
	info := res.(map[string]any)["urgency"].(calendar.UrgencyInfo)
	assert.Equal(t, calendar.UrgencyCritical, info.Status)
	assert.Equal(t, 14, info.DaysRemaining)

	res, err = srv.handleGetUrgency(ctx, dateInput{SiteID: "obra-2"})
	require.NoError(t, err)
	assert.Nil(t, res.(map[string]any)["urgency"])
	assert.Equal(t, "obra-2", srv.planner.Site().ID, "site switched")
}

func TestHandleMutations(t *testing.T) {
	ctx := context.Background()
	srv := newFixtureServer(t, false)

	res, err := srv.handleToggleDay(ctx, toggleInput{SiteID: "obra-1", TaskID: "t3", Day: "WED"})
	require.NoError(t, err)
	assert.Equal(t, planning.StatusCompleted, res.(map[string]any)["status"])

	_, err = srv.handleToggleDay(ctx, toggleInput{SiteID: "obra-1", TaskID: "t3", Day: "sun"})
	assert.ErrorIs(t, err, planning.ErrDayNotPlanned)

	_, err = srv.handleToggleDay(ctx, toggleInput{SiteID: "obra-1", TaskID: "t3", Day: "someday"})
	assert.ErrorContains(t, err, "invalid day")

	res, err = srv.handleSetCompleted(ctx, completedInput{SiteID: "obra-1", TaskID: "t2", Completed: true})
	require.NoError(t, err)
	row := res.(map[string]any)["task"].(taskRow)
	assert.True(t, row.IsFullyCompleted)
	assert.Empty(t, row.Cause)

	res, err = srv.handleSetCause(ctx, causeInput{SiteID: "obra-1", TaskID: "t3", Cause: "Material"})
	require.NoError(t, err)
	assert.Equal(t, "Material", res.(map[string]any)["task"].(taskRow).Cause)

	res, err = srv.handleCopyToNextWeek(ctx, taskInput{SiteID: "obra-1", TaskID: "t3"})
	require.NoError(t, err)
	copied := res.(map[string]any)["task"].(taskRow)
	assert.Equal(t, "2024-01-22", copied.Week)
	assert.Equal(t, planning.StatusPlanned, copied.Days[planning.Wed])

	res, err = srv.handleAuditCompletion(ctx, siteInput{SiteID: "obra-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.(map[string]any)["count"], "t2 is flagged complete with a not_done day")
}

func TestHandle_SiteErrors(t *testing.T) {
	ctx := context.Background()
	srv := newFixtureServer(t, false)

	_, err := srv.handleAuditCompletion(ctx, siteInput{SiteID: " "})
	assert.ErrorContains(t, err, "site_id is required")

	_, err = srv.handleAuditCompletion(ctx, siteInput{SiteID: "nowhere"})
	assert.ErrorIs(t, err, planner.ErrUnknownSite)

	_, err = srv.handleSetCause(ctx, causeInput{SiteID: "obra-1", TaskID: "missing", Cause: "x"})
	assert.ErrorIs(t, err, planner.ErrUnknownTask)
}
