package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"weekplan/cmd/seedgen/engine"
	"weekplan/internal/store"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, slipping")
	siteID := flag.String("site", "site-demo", "Site id to generate")
	weeks := flag.Int("weeks", 12, "Number of past weeks with execution data")
	driver := flag.String("driver", "jsonl", "Store driver: jsonl, sqlite")
	outDir := flag.String("out", "./store", "Output directory (jsonl) or database file (sqlite)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		SiteID:   *siteID,
		Weeks:    *weeks,
		Now:      time.Now(),
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Site: %s, Weeks: %d) to %s store at %s...\n", cfg.Scenario, cfg.SiteID, cfg.Weeks, *driver, *outDir)

	ds := engine.Generate(cfg)

	var (
		st  store.Store
		err error
	)
	switch *driver {
	case "sqlite":
		if err = os.MkdirAll(filepath.Dir(*outDir), 0755); err == nil {
			st, err = store.NewSQLiteStore(*outDir)
		}
	default:
		st, err = store.NewFileStore(*outDir)
	}
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := engine.Save(context.Background(), st, ds); err != nil {
		fmt.Printf("Failed to save seed data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d tasks, %d activities.\n", len(ds.Records), len(ds.Activities))
}
