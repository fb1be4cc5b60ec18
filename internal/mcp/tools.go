package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"weekplan/internal/planning"
	"weekplan/internal/weekview"
)

type siteInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
}

type weekInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	Week   string `json:"week,omitempty" jsonschema:"Any date inside the week (YYYY-MM-DD). Default: today."`
	Sort   string `json:"sort,omitempty" jsonschema:"Optional grouping of the task list. Default: planned order."`
}

type trendInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	Weeks  int    `json:"weeks,omitempty" jsonschema:"Number of weeks to include, ending with the week of 'until'. Default: 8."`
	Until  string `json:"until,omitempty" jsonschema:"Last date of the window (YYYY-MM-DD). Default: today."`
}

type dateInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	Today  string `json:"today,omitempty" jsonschema:"Reference date (YYYY-MM-DD). Default: today."`
}

type taskInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	TaskID string `json:"task_id" jsonschema:"ID of the task"`
}

type toggleInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	TaskID string `json:"task_id" jsonschema:"ID of the task"`
	Day    string `json:"day" jsonschema:"Planned day to advance (planned -> completed -> not_done -> planned)"`
}

type causeInput struct {
	SiteID string `json:"site_id" jsonschema:"ID of the construction site"`
	TaskID string `json:"task_id" jsonschema:"ID of the task"`
	Cause  string `json:"cause" jsonschema:"Reason the task was not completed. Empty clears it."`
}

type completedInput struct {
	SiteID    string `json:"site_id" jsonschema:"ID of the construction site"`
	TaskID    string `json:"task_id" jsonschema:"ID of the task"`
	Completed bool   `json:"completed" jsonschema:"Whether the task is fully completed"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.sdk, &mcp.Tool{
		Name: "get_week_view",
		Description: "List the tasks planned for one week of a site with their day-by-day status, and compute the week's PPC " +
			"(Percent Plan Complete) overall and by sector, discipline, team, responsible and executor, plus ranked causes of non-completion.",
		InputSchema: schemaFor[weekInput](map[string][]any{"sort": sortValues()}),
	}, tool(s, "get_week_view", s.handleGetWeekView))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "get_ppc_trend",
		Description: "Compute weekly PPC over a window of weeks. Weeks without tasks are reported with zero totals and excluded from the average.",
	}, tool(s, "get_ppc_trend", s.handleGetPPCTrend))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name: "get_calendar",
		Description: "Build the site's weekly calendar from its start and end dates, map each activity to every week it overlaps " +
			"and summarize restrictions (pending, overdue, resolved) per week.",
	}, tool(s, "get_calendar", s.handleGetCalendar))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "get_urgency",
		Description: "Classify the site's deadline as normal, critical, overdue or completed, with the days remaining.",
	}, tool(s, "get_urgency", s.handleGetUrgency))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "toggle_day_status",
		Description: "Advance the status of one planned day of a task. Fails if the day is not planned for the task.",
		InputSchema: schemaFor[toggleInput](map[string][]any{"day": dayValues()}),
	}, tool(s, "toggle_day_status", s.handleToggleDay))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "set_cause",
		Description: "Record why a task was not completed. Ignored for completed tasks.",
	}, tool(s, "set_cause", s.handleSetCause))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "set_completed",
		Description: "Mark a task as fully completed (or not). Completing a task clears its cause.",
	}, tool(s, "set_completed", s.handleSetCompleted))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "copy_task_to_next_week",
		Description: "Copy a task into the following week with the same planned days and a fresh execution state.",
	}, tool(s, "copy_task_to_next_week", s.handleCopyToNextWeek))

	mcp.AddTool(s.sdk, &mcp.Tool{
		Name:        "audit_completion",
		Description: "List tasks whose completion flag disagrees with their day-by-day statuses. The flag is what PPC counts.",
	}, tool(s, "audit_completion", s.handleAuditCompletion))
}

// schemaFor infers the input schema of T and narrows the given properties to enums.
func schemaFor[T any](enums map[string][]any) *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("invalid tool input type: %v", err))
	}
	for name, values := range enums {
		if prop, ok := schema.Properties[name]; ok {
			prop.Enum = values
		}
	}
	return schema
}

func dayValues() []any {
	out := make([]any, 0, len(planning.Weekdays))
	for _, d := range planning.Weekdays {
		out = append(out, string(d))
	}
	return out
}

func sortValues() []any {
	return []any{
		string(weekview.SortSector),
		string(weekview.SortDiscipline),
		string(weekview.SortTeam),
		string(weekview.SortResponsible),
		string(weekview.SortExecutor),
	}
}
