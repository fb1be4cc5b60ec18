package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"weekplan/internal/planning"
	"weekplan/internal/stats"
	"weekplan/internal/visuals"
)

var (
	reportOut   string
	reportWeeks int
	reportOpen  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render an HTML report with the PPC trend, breakdowns and the site calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSite(cmd); err != nil {
			return err
		}
		st, svc, err := openPlanner(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		today, _ := dateFlag("today", "")
		site := svc.Site()

		view, err := svc.Calendar(today)
		if err != nil {
			return err
		}
		trend := svc.Trend(reportWeeks, today)

		window := stats.LastWeeks(reportWeeks, today)
		var inWindow []planning.Task
		for _, t := range svc.Tasks() {
			if !t.WeekStartDate.Before(window.Start) && !t.WeekStartDate.After(window.End) {
				inWindow = append(inWindow, t)
			}
		}
		breakdown := make(map[stats.Dimension]map[string]stats.PPCTriple, len(stats.Dimensions))
		for _, dim := range stats.Dimensions {
			breakdown[dim] = stats.Breakdown(inWindow, dim)
		}

		rep := visuals.Report{
			Title:     fmt.Sprintf("%s - weekly planning report", site.Name),
			Generated: time.Now(),
			Trend:     trend,
			Breakdown: breakdown,
			Weeks:     view.Weeks,
			Summaries: view.Summaries,
			Activity:  svc.Activities(),
		}
		if info, ok := svc.Urgency(today); ok {
			rep.Urgency = &info
		}

		out := reportOut
		if out == "" {
			out = filepath.Join(cfg.DataPath, "reports", site.ID+".html")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := visuals.RenderReport(f, rep); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("path", out).Msg("Report written")
		fmt.Fprintln(cmd.OutOrStdout(), out)

		if reportOpen {
			return browser.OpenFile(out)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file, default <data>/reports/<site>.html")
	reportCmd.Flags().IntVar(&reportWeeks, "weeks", 12, "number of weeks in the PPC trend")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")
}
