package mcp

import (
	"context"

	"weekplan/internal/stats"
	"weekplan/internal/visuals"
	"weekplan/internal/weekview"
)

const defaultTrendWeeks = 8

func (s *Server) handleGetWeekView(ctx context.Context, in weekInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	week, err := s.parseDay("week", in.Week)
	if err != nil {
		return nil, err
	}

	view := s.planner.WeekView(week, weekview.ParseSortKey(in.Sort))
	res := map[string]any{
		"site":  s.planner.Site(),
		"week":  view.Week,
		"tasks": toRows(view.FilteredTasks),
		"ppc":   view.PPC,
	}
	if s.cfg.EnableMermaidCharts {
		res["visual_causes_pie"] = visuals.GenerateCausesPie(view.PPC.Causes)
		res["visual_ppc_by_sector"] = visuals.GenerateBreakdownChart(stats.DimSector, view.PPC.BySector)
	}
	return res, nil
}

func (s *Server) handleGetPPCTrend(ctx context.Context, in trendInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	until, err := s.parseDay("until", in.Until)
	if err != nil {
		return nil, err
	}
	weeks := in.Weeks
	if weeks <= 0 {
		weeks = defaultTrendWeeks
	}

	trend := s.planner.Trend(weeks, until)
	res := map[string]any{
		"site":      s.planner.Site(),
		"trend":     trend,
		"stability": stats.CalculatePPCStability(trend),
	}
	if s.cfg.EnableMermaidCharts {
		res["visual_ppc_trend"] = visuals.GeneratePPCTrendChart(trend)
		res["visual_causes_pie"] = visuals.GenerateCausesPie(trend.Causes)
	}
	return res, nil
}

func (s *Server) handleGetCalendar(ctx context.Context, in dateInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	today, err := s.parseDay("today", in.Today)
	if err != nil {
		return nil, err
	}

	view, err := s.planner.Calendar(today)
	if err != nil {
		return nil, err
	}
	res := map[string]any{"calendar": view}
	if s.cfg.EnableMermaidCharts {
		res["visual_calendar_gantt"] = visuals.GenerateCalendarGantt(view.Site.Name, view.Weeks, s.planner.Activities())
	}
	return res, nil
}

func (s *Server) handleGetUrgency(ctx context.Context, in dateInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	today, err := s.parseDay("today", in.Today)
	if err != nil {
		return nil, err
	}

	info, ok := s.planner.Urgency(today)
	if !ok {
		return map[string]any{
			"site":    s.planner.Site(),
			"urgency": nil,
			"message": "The site has no end date, so there is no deadline to classify.",
		}, nil
	}
	return map[string]any{
		"site":    s.planner.Site(),
		"urgency": info,
	}, nil
}

func (s *Server) handleToggleDay(ctx context.Context, in toggleInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	day, err := parseWeekday(in.Day)
	if err != nil {
		return nil, err
	}
	task, err := s.planner.ToggleDay(ctx, in.TaskID, day)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": toRow(task), "status": task.EffectiveStatus(day)}, nil
}

func (s *Server) handleSetCause(ctx context.Context, in causeInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	task, err := s.planner.SetCause(ctx, in.TaskID, in.Cause)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": toRow(task)}, nil
}

func (s *Server) handleSetCompleted(ctx context.Context, in completedInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	task, err := s.planner.SetCompleted(ctx, in.TaskID, in.Completed)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": toRow(task)}, nil
}

func (s *Server) handleCopyToNextWeek(ctx context.Context, in taskInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	task, err := s.planner.CopyToNextWeek(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": toRow(task)}, nil
}

func (s *Server) handleAuditCompletion(ctx context.Context, in siteInput) (any, error) {
	if err := s.ensureSite(ctx, in.SiteID); err != nil {
		return nil, err
	}
	mismatches := s.planner.Audit()
	return map[string]any{
		"site":       s.planner.Site(),
		"mismatches": mismatches,
		"count":      len(mismatches),
	}, nil
}
