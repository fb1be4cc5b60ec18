package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/planner"
	"weekplan/internal/planning"
	"weekplan/internal/store"
)

func strp(s string) *string { return &s }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.PutSite(ctx, planning.Site{ID: "obra-1", Name: "Tower A", StartDate: &start, EndDate: &end}))

	for _, rec := range []planning.Record{
		{ID: "t1", SiteID: "obra-1", Sector: "Structure", WeekStart: "2024-01-15", DayFields: planning.DayFields{Mon: strp("completed")}, Completion: 1, Order: 1},
		{ID: "t2", SiteID: "obra-1", Sector: "Masonry", WeekStart: "2024-01-15", DayFields: planning.DayFields{Tue: strp("planned")}, Order: 2},
	} {
		_, err := st.CreateTask(ctx, rec)
		require.NoError(t, err)
	}

	h := NewHandler(planner.NewService(st, planner.Options{}))
	h.now = func() time.Time { return time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC) }
	return h.Router()
}

func do(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestGetWeekView(t *testing.T) {
	r := newTestRouter(t)

	code, body := do(t, r, http.MethodGet, "/api/sites/obra-1/weeks/2024-01-17?sort=sector", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2024-01-15", body["week"])
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].(map[string]any)["id"], "Masonry sorts before Structure")

	overall := body["ppc"].(map[string]any)["overall"].(map[string]any)
	assert.Equal(t, 50.0, overall["percentage"])

	code, body = do(t, r, http.MethodGet, "/api/sites/obra-1/weeks/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid week")
}

func TestUnknownSite(t *testing.T) {
	r := newTestRouter(t)
	code, body := do(t, r, http.MethodGet, "/api/sites/nowhere/trend", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "unknown site")
}

func TestGetTrendAndUrgency(t *testing.T) {
	r := newTestRouter(t)

	code, body := do(t, r, http.MethodGet, "/api/sites/obra-1/trend?weeks=2&until=2024-01-21", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["weeks"], 2)
	assert.Equal(t, 50.0, body["average"])

	code, _ = do(t, r, http.MethodGet, "/api/sites/obra-1/trend?weeks=zero", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, r, http.MethodGet, "/api/sites/obra-1/urgency", "")
	require.Equal(t, http.StatusOK, code)
	urgency := body["urgency"].(map[string]any)
	assert.Equal(t, "critical", urgency["status"])
	assert.Equal(t, 14.0, urgency["daysRemaining"])

	code, body = do(t, r, http.MethodGet, "/api/sites/obra-1/calendar?today=2024-01-02", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["currentWeek"])
}

func TestTaskMutations(t *testing.T) {
	r := newTestRouter(t)

	code, body := do(t, r, http.MethodPost, "/api/sites/obra-1/tasks/t2/days/TUE/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", body["status"])

	code, body = do(t, r, http.MethodPost, "/api/sites/obra-1/tasks/t2/days/sun/toggle", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "not planned")

	code, _ = do(t, r, http.MethodPost, "/api/sites/obra-1/tasks/t2/days/someday/toggle", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, r, http.MethodPut, "/api/sites/obra-1/tasks/t2/cause", `{"cause":"Rain"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Rain", body["task"].(map[string]any)["causeIfNotDone"])

	code, body = do(t, r, http.MethodPut, "/api/sites/obra-1/tasks/t2/completed", `{"completed":true}`)
	require.Equal(t, http.StatusOK, code)
	task := body["task"].(map[string]any)
	assert.Equal(t, true, task["isFullyCompleted"])
	assert.NotContains(t, task, "causeIfNotDone")

	code, _ = do(t, r, http.MethodPut, "/api/sites/obra-1/tasks/t2/completed", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = do(t, r, http.MethodPost, "/api/sites/obra-1/tasks/t1/copy", "")
	require.Equal(t, http.StatusCreated, code)
	copied := body["task"].(map[string]any)
	assert.NotEqual(t, "t1", copied["id"])
	assert.Equal(t, false, copied["isFullyCompleted"])

	code, body = do(t, r, http.MethodGet, "/api/sites/obra-1/weeks/2024-01-22", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["tasks"], 1)

	code, _ = do(t, r, http.MethodPost, "/api/sites/obra-1/tasks/missing/copy", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, r, http.MethodGet, "/api/sites/obra-1/audit", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["count"])
}
