package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"weekplan/internal/config"
	"weekplan/internal/logging"
	"weekplan/internal/mcp"
	"weekplan/internal/planner"
	"weekplan/internal/store"
	"weekplan/internal/weekview"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	siteID  string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "weekplan",
	Short: "Weekly planning and PPC engine for construction sites",
	Long: `Weekplan tracks weekly task plans of construction sites day by day, computes
PPC (Percent Plan Complete) with breakdowns and causes of non-completion,
builds the site calendar with activities and restrictions, and classifies deadline urgency.

Without a subcommand it serves the engine as an MCP server over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("store", cfg.Store.Driver).
			Msg("Weekplan starting")
		return nil
	},
	RunE: runMCP,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning engine as an MCP server over stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, svc, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	return mcp.NewServer(cfg, svc, Version).Start(ctx)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&siteID, "site", "s", "", "site to activate on start")

	rootCmd.AddCommand(serveCmd, httpCmd, weekCmd, calendarCmd, reportCmd)
}

// openPlanner opens the configured record store and builds the planner over
// it. When --site is set the site is activated. The JSONL backend is watched
// so outside edits to whichever site is active reload it.
func openPlanner(ctx context.Context) (store.Store, *planner.Service, error) {
	var (
		st    store.Store
		files *store.FileStore
		err   error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "weekplan.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		st, err = store.NewSQLiteStore(path)
	default:
		files, err = store.NewFileStore(cfg.Store.Path)
		st = files
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	svc := planner.NewService(st, planner.Options{
		CriticalDays:     cfg.Engine.CriticalDays,
		MaxCalendarWeeks: cfg.Engine.MaxCalendarWeeks,
		CacheTTL:         cfg.Engine.CacheTTL.Duration,
	})
	if siteID != "" {
		if err := svc.Activate(ctx, siteID); err != nil {
			st.Close()
			return nil, nil, err
		}
	}
	if files != nil {
		active := func() string {
			if id := svc.Site().ID; id != "" {
				return files.Path(id)
			}
			return ""
		}
		go func() {
			if err := weekview.Watch(ctx, files.Dir(), active, svc.Reload); err != nil {
				log.Warn().Err(err).Msg("Record store watch stopped")
			}
		}()
	}
	return st, svc, nil
}

// requireSite rejects commands that need a site when --site is missing.
func requireSite(cmd *cobra.Command) error {
	if siteID == "" {
		return fmt.Errorf("--site is required for %s", cmd.Name())
	}
	return nil
}
