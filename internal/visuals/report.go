package visuals

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"weekplan/internal/calendar"
	"weekplan/internal/stats"
)

//go:embed templates/*
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// Report is the data behind the standalone HTML report.
type Report struct {
	Title     string
	Generated time.Time
	Trend     stats.TrendSummary
	Breakdown map[stats.Dimension]map[string]stats.PPCTriple
	Urgency   *calendar.UrgencyInfo
	Weeks     []calendar.WeekBucket
	Summaries []calendar.WeekSummary
	Activity  []calendar.Activity
}

type reportPage struct {
	Report
	Charts    []string
	Stability stats.XmRResult
}

// RenderReport writes rep as an HTML page with its Mermaid charts inlined.
func RenderReport(w io.Writer, rep Report) error {
	page := reportPage{Report: rep, Stability: stats.CalculatePPCStability(rep.Trend)}
	add := func(chart string) {
		if chart == "" {
			return
		}
		// The <pre class="mermaid"> block wants the bare diagram.
		chart = strings.TrimPrefix(chart, "```mermaid\n")
		chart = strings.TrimSuffix(chart, "```")
		page.Charts = append(page.Charts, chart)
	}

	add(GeneratePPCTrendChart(rep.Trend))
	add(GenerateCausesPie(rep.Trend.Causes))
	for _, dim := range stats.Dimensions {
		add(GenerateBreakdownChart(dim, rep.Breakdown[dim]))
	}
	add(GenerateCalendarGantt(rep.Title, rep.Weeks, rep.Activity))

	if err := reportTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
