package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"weekplan/internal/planning"
	"weekplan/internal/weekview"
)

var (
	weekDate string
	weekSort string
	calToday string
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the tasks and PPC of one week as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSite(cmd); err != nil {
			return err
		}
		week, err := dateFlag("date", weekDate)
		if err != nil {
			return err
		}
		st, svc, err := openPlanner(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		return printJSON(cmd, svc.WeekView(week, weekview.ParseSortKey(weekSort)))
	},
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the site calendar with activities and restriction summaries as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSite(cmd); err != nil {
			return err
		}
		today, err := dateFlag("today", calToday)
		if err != nil {
			return err
		}
		st, svc, err := openPlanner(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		view, err := svc.Calendar(today)
		if err != nil {
			return err
		}
		urgency, ok := svc.Urgency(today)
		out := map[string]any{"calendar": view}
		if ok {
			out["urgency"] = urgency
		}
		return printJSON(cmd, out)
	},
}

func init() {
	weekCmd.Flags().StringVar(&weekDate, "date", "", "any date inside the week (YYYY-MM-DD), default today")
	weekCmd.Flags().StringVar(&weekSort, "sort", "", "group tasks by sector, discipline, team, responsible or executor")
	calendarCmd.Flags().StringVar(&calToday, "today", "", "reference date (YYYY-MM-DD), default today")
}

// dateFlag parses an optional YYYY-MM-DD flag, defaulting to today in UTC.
func dateFlag(name, value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, ok := planning.ParseDate(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s %q (want YYYY-MM-DD)", name, value)
	}
	return t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
