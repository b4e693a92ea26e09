// Package config loads and validates engine configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Config holds all engine configuration.
type Config struct {
	// Persistence settings.
	DBDriver    string // "sqlite" or "postgres"
	SQLitePath  string
	DatabaseURL string // Postgres URL; required when DBDriver is "postgres".
	SaveTimeout time.Duration

	// Engine tuning.
	RetentionDays int // Health history retention window.
	CooldownDays  int // Suggestion dismissal cooldown.
	TopK          int // Maximum suggestions per generation pass.

	// Pillar directory, parsed from HIBIKI_PILLARS ("id:name:weeklyHours,...").
	Pillars []model.PillarInfo

	// OTEL settings.
	OTELEndpoint string
	ServiceName  string

	// Operational settings.
	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	var errs []error

	retention, err := envInt("HIBIKI_RETENTION_DAYS", 90)
	if err != nil {
		errs = append(errs, err)
	}
	cooldown, err := envInt("HIBIKI_SUGGESTION_COOLDOWN_DAYS", 7)
	if err != nil {
		errs = append(errs, err)
	}
	topK, err := envInt("HIBIKI_SUGGESTION_TOP_K", 5)
	if err != nil {
		errs = append(errs, err)
	}
	saveTimeout, err := envDuration("HIBIKI_SAVE_TIMEOUT", 5*time.Second)
	if err != nil {
		errs = append(errs, err)
	}
	pillars, err := ParsePillars(os.Getenv("HIBIKI_PILLARS"))
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}

	cfg := Config{
		DBDriver:      envStr("HIBIKI_DB_DRIVER", "sqlite"),
		SQLitePath:    envStr("HIBIKI_SQLITE_PATH", "hibiki.db"),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		SaveTimeout:   saveTimeout,
		RetentionDays: retention,
		CooldownDays:  cooldown,
		TopK:          topK,
		Pillars:       pillars,
		OTELEndpoint:  envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:   envStr("OTEL_SERVICE_NAME", "hibiki"),
		LogLevel:      envStr("HIBIKI_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: HIBIKI_DB_DRIVER must be \"sqlite\" or \"postgres\", got %q", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required when HIBIKI_DB_DRIVER is \"postgres\"")
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("config: HIBIKI_SQLITE_PATH must not be empty")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("config: HIBIKI_RETENTION_DAYS must be positive")
	}
	if c.CooldownDays < 0 {
		return fmt.Errorf("config: HIBIKI_SUGGESTION_COOLDOWN_DAYS must not be negative")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("config: HIBIKI_SUGGESTION_TOP_K must be positive")
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("config: HIBIKI_SAVE_TIMEOUT must be positive")
	}
	return nil
}

// ParsePillars parses a pillar directory spec of the form
// "id:name:weeklyHours,id:name:weeklyHours". An empty spec is valid and
// yields no pillars.
func ParsePillars(spec string) ([]model.PillarInfo, error) {
	if spec == "" {
		return nil, nil
	}
	var pillars []model.PillarInfo
	seen := make(map[string]bool)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf(`HIBIKI_PILLARS entry %q is not "id:name:weeklyHours"`, entry)
		}
		id := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if id == "" || name == "" {
			return nil, fmt.Errorf("HIBIKI_PILLARS entry %q has an empty id or name", entry)
		}
		if seen[id] {
			return nil, fmt.Errorf("HIBIKI_PILLARS pillar %q is declared twice", id)
		}
		seen[id] = true
		hours, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("HIBIKI_PILLARS pillar %q needs a positive weekly-hours value, got %q", id, parts[2])
		}
		pillars = append(pillars, model.PillarInfo{ID: id, Name: name, WeeklyTargetHours: hours})
	}
	return pillars, nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
