package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	HTTPAddr            string
	EnableMermaidCharts bool
	Engine              EngineConfig
	Store               StoreConfig
}

// EngineConfig tunes the planning engine.
type EngineConfig struct {
	CriticalDays     int      `toml:"critical_days"`
	MaxCalendarWeeks int      `toml:"max_calendar_weeks"`
	CacheTTL         Duration `toml:"cache_ttl"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Driver string `toml:"driver"` // "jsonl" or "sqlite"
	Path   string `toml:"path"`
}

// Duration decodes TOML strings such as "5m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// fileConfig mirrors the optional weekplan.toml layout.
type fileConfig struct {
	Engine EngineConfig `toml:"engine"`
	Store  StoreConfig  `toml:"store"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults(dataPath string) *AppConfig {
	return &AppConfig{
		DataPath: dataPath,
		LogDir:   filepath.Join(dataPath, "logs"),
		HTTPAddr: ":8080",
		Engine: EngineConfig{
			CriticalDays:     14,
			MaxCalendarWeeks: 520,
		},
		Store: StoreConfig{
			Driver: "jsonl",
			Path:   filepath.Join(dataPath, "store"),
		},
	}
}

// Load loads the configuration from .env files, an optional TOML file and
// environment variables, in increasing order of priority.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Path
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}
	cfg := Defaults(dataPath)

	// 4. Engine settings file
	tomlPath := getEnv("WEEKPLAN_CONFIG", filepath.Join(dataPath, "weekplan.toml"))
	if err := cfg.mergeFile(tomlPath); err != nil {
		return nil, err
	}

	// 5. Environment overrides
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.EnableMermaidCharts = getEnvBool("ENABLE_MERMAID_CHARTS", false)
	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.Path = getEnv("STORE_PATH", cfg.Store.Path)
	if v, err := strconv.Atoi(getEnv("CRITICAL_DAYS", "")); err == nil && v > 0 {
		cfg.Engine.CriticalDays = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) mergeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if fc.Engine.CriticalDays > 0 {
		c.Engine.CriticalDays = fc.Engine.CriticalDays
	}
	if fc.Engine.MaxCalendarWeeks > 0 {
		c.Engine.MaxCalendarWeeks = fc.Engine.MaxCalendarWeeks
	}
	if fc.Engine.CacheTTL.Duration > 0 {
		c.Engine.CacheTTL = fc.Engine.CacheTTL
	}
	if fc.Store.Driver != "" {
		c.Store.Driver = fc.Store.Driver
	}
	if fc.Store.Path != "" {
		c.Store.Path = fc.Store.Path
	}
	log.Debug().Str("path", path).Msg("Loaded engine settings file")
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q (want jsonl or sqlite)", c.Store.Driver)
	}
	if c.Engine.CriticalDays <= 0 {
		return fmt.Errorf("critical_days must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
