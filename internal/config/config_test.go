package config

import (
	"strings"
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	// TEST_INT_MISSING is not set.
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
	if got := err.Error(); got != `TEST_INT_BAD="abc" is not a valid integer` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	v, err := envDuration("TEST_DUR", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 5*time.Second {
		t.Fatalf("expected 5s, got %s", v)
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	_, err := envDuration("TEST_DUR_BAD", 0)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if got := err.Error(); got != `TEST_DUR_BAD="five-seconds" is not a valid duration` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected default driver sqlite, got %q", cfg.DBDriver)
	}
	if cfg.RetentionDays != 90 || cfg.CooldownDays != 7 || cfg.TopK != 5 {
		t.Fatalf("unexpected engine defaults: %+v", cfg)
	}
}

func TestLoadFailsOnInvalidRetention(t *testing.T) {
	t.Setenv("HIBIKI_RETENTION_DAYS", "abc")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with invalid HIBIKI_RETENTION_DAYS")
	}
	if got := err.Error(); !strings.Contains(got, "HIBIKI_RETENTION_DAYS") || !strings.Contains(got, "abc") {
		t.Fatalf("error should mention HIBIKI_RETENTION_DAYS and value 'abc', got: %s", got)
	}
}

func TestLoadFailsOnMultipleInvalid(t *testing.T) {
	t.Setenv("HIBIKI_RETENTION_DAYS", "abc")
	t.Setenv("HIBIKI_SUGGESTION_TOP_K", "xyz")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with multiple invalid vars")
	}
	got := err.Error()
	if !strings.Contains(got, "HIBIKI_RETENTION_DAYS") {
		t.Fatalf("error should mention HIBIKI_RETENTION_DAYS, got: %s", got)
	}
	if !strings.Contains(got, "HIBIKI_SUGGESTION_TOP_K") {
		t.Fatalf("error should mention HIBIKI_SUGGESTION_TOP_K, got: %s", got)
	}
}

func TestLoadFailsOnPostgresWithoutURL(t *testing.T) {
	t.Setenv("HIBIKI_DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to require DATABASE_URL for the postgres driver")
	}
}

func TestParsePillars(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    int
		wantErr bool
	}{
		{name: "empty", spec: "", want: 0},
		{name: "single", spec: "health:Health:7", want: 1},
		{name: "multiple with spaces", spec: "health:Health:7, career:Career:21.5", want: 2},
		{name: "trailing comma", spec: "health:Health:7,", want: 1},
		{name: "missing field", spec: "health:7", wantErr: true},
		{name: "empty id", spec: ":Health:7", wantErr: true},
		{name: "duplicate id", spec: "health:Health:7,health:Other:3", wantErr: true},
		{name: "zero hours", spec: "health:Health:0", wantErr: true},
		{name: "bad hours", spec: "health:Health:lots", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePillars(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d pillars, got %d", tt.want, len(got))
			}
		})
	}
}

func TestParsePillarsValues(t *testing.T) {
	got, err := ParsePillars("career:Career:21.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := got[0]
	if p.ID != "career" || p.Name != "Career" || p.WeeklyTargetHours != 21.5 {
		t.Fatalf("unexpected pillar: %+v", p)
	}
}
