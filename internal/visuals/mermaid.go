package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"weekplan/internal/calendar"
	"weekplan/internal/planning"
	"weekplan/internal/stats"
)

// maxChartPoints is roughly where Mermaid xychart labels start to overlap.
const maxChartPoints = 60

// GeneratePPCTrendChart creates a Mermaid xychart-beta with weekly PPC as bars
// and the window average as a line.
func GeneratePPCTrendChart(trend stats.TrendSummary) string {
	if len(trend.Weeks) == 0 {
		return ""
	}

	subsampleRate := 1
	if len(trend.Weeks) > maxChartPoints {
		subsampleRate = int(math.Ceil(float64(len(trend.Weeks)) / maxChartPoints))
	}

	var labels, values, averages []string
	avg := fmt.Sprintf("%.1f", trend.Average)
	for i, w := range trend.Weeks {
		if i%subsampleRate != 0 && i != len(trend.Weeks)-1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", w.WeekStarting.Format("02/01")))
		values = append(values, fmt.Sprintf("%.1f", w.Percentage))
		averages = append(averages, avg)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Percent Plan Complete (weekly)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"PPC (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(averages, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateBreakdownChart creates a Mermaid bar chart of PPC per category of one dimension.
func GenerateBreakdownChart(dim stats.Dimension, breakdown map[string]stats.PPCTriple) string {
	if len(breakdown) == 0 {
		return ""
	}

	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var labels, values []string
	for _, k := range keys {
		labels = append(labels, fmt.Sprintf("\"%s\"", safeLabel(k)))
		values = append(values, fmt.Sprintf("%.1f", breakdown[k].Percentage))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"PPC by %s\"\n", dim))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"PPC (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateCausesPie creates a Mermaid pie chart of non-completion causes.
func GenerateCausesPie(causes []stats.CauseShare) string {
	if len(causes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Causes of Non-Completion\n")
	for _, c := range causes {
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", safeLabel(c.Label), c.Count))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateCalendarGantt creates a Mermaid gantt of the activities in a calendar.
// Activities without dates are drawn as one-week bars on their reference week.
func GenerateCalendarGantt(title string, weeks []calendar.WeekBucket, activities []calendar.Activity) string {
	if len(weeks) == 0 || len(activities) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("gantt\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", safeLabel(title)))
	sb.WriteString("    dateFormat YYYY-MM-DD\n")
	sb.WriteString("    section Activities\n")

	drawn := 0
	for _, a := range activities {
		start, end, ok := a.Span()
		if !ok {
			ref, found := planning.ParseDate(a.ReferenceWeek)
			if !found {
				continue
			}
			start, end = ref, ref.AddDate(0, 0, 6)
		}
		tag := "active"
		if a.Completed {
			tag = "done"
		}
		sb.WriteString(fmt.Sprintf("    %s :%s, %s, %s, %s\n",
			safeLabel(a.Name), tag, ganttID(a.ID, drawn),
			start.Format(planning.DateLayout), end.AddDate(0, 0, 1).Format(planning.DateLayout)))
		drawn++
	}
	if drawn == 0 {
		return ""
	}
	sb.WriteString("```")
	return sb.String()
}

func ganttID(id string, n int) string {
	clean := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, id)
	if clean == "" || clean[0] >= '0' && clean[0] <= '9' {
		clean = fmt.Sprintf("a%d%s", n, clean)
	}
	return clean
}

// safeLabel strips characters that break Mermaid's line syntax.
func safeLabel(s string) string {
	r := strings.NewReplacer("\"", "'", ":", " ", "#", "", ";", ",", "\n", " ")
	return strings.TrimSpace(r.Replace(s))
}
