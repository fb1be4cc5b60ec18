package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"weekplan/internal/planning"
)

// ensureSite activates siteID unless it is already the active site.
func (s *Server) ensureSite(ctx context.Context, siteID string) error {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return fmt.Errorf("site_id is required")
	}
	if s.planner.Site().ID == siteID {
		return nil
	}
	log.Info().Str("site", siteID).Msg("Switching active site")
	return s.planner.Activate(ctx, siteID)
}

// today is the current calendar date at UTC midnight, matching parsed dates.
func (s *Server) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseDay resolves an optional YYYY-MM-DD argument, defaulting to today.
func (s *Server) parseDay(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.today(), nil
	}
	t, ok := planning.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s %q (want YYYY-MM-DD)", field, value)
	}
	return t, nil
}

func parseWeekday(value string) (planning.Weekday, error) {
	d := planning.Weekday(strings.ToLower(strings.TrimSpace(value)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid day %q (want one of mon, tue, wed, thu, fri, sat, sun)", value)
	}
	return d, nil
}

// taskRow is the tool-facing rendering of a task with its full day grid.
type taskRow struct {
	ID               string                                 `json:"id"`
	Description      string                                 `json:"description,omitempty"`
	Sector           string                                 `json:"sector"`
	Discipline       string                                 `json:"discipline"`
	Team             string                                 `json:"team"`
	Responsible      string                                 `json:"responsible"`
	Executor         string                                 `json:"executor"`
	Week             string                                 `json:"week"`
	Days             map[planning.Weekday]planning.DayStatus `json:"days"`
	IsFullyCompleted bool                                   `json:"isFullyCompleted"`
	Cause            string                                 `json:"cause,omitempty"`
	Order            int                                    `json:"order"`
}

func toRow(t planning.Task) taskRow {
	days := make(map[planning.Weekday]planning.DayStatus, len(planning.Weekdays))
	for _, d := range planning.Weekdays {
		days[d] = t.EffectiveStatus(d)
	}
	return taskRow{
		ID:               t.ID,
		Description:      t.Description,
		Sector:           t.Sector,
		Discipline:       t.Discipline,
		Team:             t.Team,
		Responsible:      t.Responsible,
		Executor:         t.Executor,
		Week:             t.WeekKey(),
		Days:             days,
		IsFullyCompleted: t.IsFullyCompleted,
		Cause:            t.CauseIfNotDone,
		Order:            t.Order,
	}
}

func toRows(tasks []planning.Task) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, toRow(t))
	}
	return rows
}
