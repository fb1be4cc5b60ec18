package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"weekplan/internal/planner"
	"weekplan/internal/planning"
	"weekplan/internal/weekview"
)

const defaultTrendWeeks = 8

// Handler serves the planner over HTTP. Requests are serialized because the
// planner holds a single active site.
type Handler struct {
	planner *planner.Service
	now     func() time.Time

	mu sync.Mutex
}

func NewHandler(svc *planner.Service) *Handler {
	return &Handler{
		planner: svc,
		now:     time.Now,
	}
}

// Router builds the gin engine with every planning route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api/sites/:site")
	api.Use(h.withSite)
	{
		api.GET("/weeks/:week", h.GetWeekView)
		api.GET("/trend", h.GetTrend)
		api.GET("/calendar", h.GetCalendar)
		api.GET("/urgency", h.GetUrgency)
		api.GET("/audit", h.GetAudit)

		api.POST("/tasks/:id/days/:day/toggle", h.ToggleDay)
		api.POST("/tasks/:id/copy", h.CopyToNextWeek)
		api.PUT("/tasks/:id/cause", h.SetCause)
		api.PUT("/tasks/:id/completed", h.SetCompleted)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("HTTP request")
	}
}

// withSite holds the handler lock for the whole request and activates the
// site named in the path.
func (h *Handler) withSite(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	siteID := strings.TrimSpace(c.Param("site"))
	if h.planner.Site().ID != siteID {
		if err := h.planner.Activate(c.Request.Context(), siteID); err != nil {
			abortWithError(c, err)
			return
		}
	}
	c.Next()
}

func (h *Handler) GetWeekView(c *gin.Context) {
	week, ok := h.parseDate(c, "week", c.Param("week"))
	if !ok {
		return
	}
	view := h.planner.WeekView(week, weekview.ParseSortKey(c.Query("sort")))
	c.JSON(http.StatusOK, gin.H{
		"site":  h.planner.Site(),
		"week":  view.Week,
		"tasks": view.FilteredTasks,
		"ppc":   view.PPC,
	})
}

func (h *Handler) GetTrend(c *gin.Context) {
	until, ok := h.parseDate(c, "until", c.Query("until"))
	if !ok {
		return
	}
	weeks := defaultTrendWeeks
	if raw := c.Query("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weeks must be a positive integer"})
			return
		}
		weeks = n
	}
	c.JSON(http.StatusOK, h.planner.Trend(weeks, until))
}

func (h *Handler) GetCalendar(c *gin.Context) {
	today, ok := h.parseDate(c, "today", c.Query("today"))
	if !ok {
		return
	}
	view, err := h.planner.Calendar(today)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetUrgency(c *gin.Context) {
	today, ok := h.parseDate(c, "today", c.Query("today"))
	if !ok {
		return
	}
	info, found := h.planner.Urgency(today)
	if !found {
		c.JSON(http.StatusOK, gin.H{"urgency": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"urgency": info})
}

func (h *Handler) GetAudit(c *gin.Context) {
	mismatches := h.planner.Audit()
	c.JSON(http.StatusOK, gin.H{"mismatches": mismatches, "count": len(mismatches)})
}

func (h *Handler) ToggleDay(c *gin.Context) {
	day := planning.Weekday(strings.ToLower(c.Param("day")))
	if !day.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be one of mon, tue, wed, thu, fri, sat, sun"})
		return
	}
	task, err := h.planner.ToggleDay(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task, "status": task.EffectiveStatus(day)})
}

func (h *Handler) CopyToNextWeek(c *gin.Context) {
	task, err := h.planner.CopyToNextWeek(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

type causeRequest struct {
	Cause string `json:"cause"`
}

func (h *Handler) SetCause(c *gin.Context) {
	var req causeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	task, err := h.planner.SetCause(c.Request.Context(), c.Param("id"), req.Cause)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

type completedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *Handler) SetCompleted(c *gin.Context) {
	var req completedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	task, err := h.planner.SetCompleted(c.Request.Context(), c.Param("id"), *req.Completed)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// parseDate reads an optional YYYY-MM-DD value, defaulting to today. On a bad
// value it writes the 400 response and reports false.
func (h *Handler) parseDate(c *gin.Context, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		now := h.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	t, ok := planning.ParseDate(value)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + field + ", use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, planner.ErrUnknownSite), errors.Is(err, planner.ErrUnknownTask):
		status = http.StatusNotFound
	case errors.Is(err, planning.ErrDayNotPlanned):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
