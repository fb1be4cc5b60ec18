package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestGodotenvQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `SITE_NAME='Tower "A" residential'`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `Tower "A" residential`
	if env["SITE_NAME"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["SITE_NAME"])
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("WEEKPLAN_CONFIG", filepath.Join(dir, "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.CriticalDays != 14 || cfg.Engine.MaxCalendarWeeks != 520 {
		t.Errorf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if cfg.Store.Driver != "jsonl" || cfg.Store.Path != filepath.Join(dir, "store") {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Engine.CacheTTL.Duration != 0 {
		t.Errorf("cache should not expire by default, got %v", cfg.Engine.CacheTTL)
	}
}

func TestLoad_TOMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "weekplan.toml")
	content := `
[engine]
critical_days = 21
max_calendar_weeks = 104
cache_ttl = "5m"

[store]
driver = "sqlite"
path = "/var/lib/weekplan/weekplan.db"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_PATH", dir)
	t.Setenv("WEEKPLAN_CONFIG", tomlPath)
	t.Setenv("CRITICAL_DAYS", "7")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.CriticalDays != 7 {
		t.Errorf("env should override the file, got %d", cfg.Engine.CriticalDays)
	}
	if cfg.Engine.MaxCalendarWeeks != 104 {
		t.Errorf("max weeks: %d", cfg.Engine.MaxCalendarWeeks)
	}
	if cfg.Engine.CacheTTL.Duration != 5*time.Minute {
		t.Errorf("ttl: %v", cfg.Engine.CacheTTL)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Path != "/var/lib/weekplan/weekplan.db" {
		t.Errorf("store: %+v", cfg.Store)
	}
	if !cfg.EnableMermaidCharts {
		t.Error("mermaid flag not read")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("WEEKPLAN_CONFIG", filepath.Join(dir, "missing.toml"))
	t.Setenv("STORE_DRIVER", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
