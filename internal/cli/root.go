// Package cli implements the hibiki command-line interface on top of the
// public engine API.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hibiki-app/hibiki"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hibiki",
	Short: "Adaptive productivity scheduling and analytics engine",
	Long: `hibiki learns when you have energy, tracks scheduled time blocks across
life pillars, scores your productivity, and suggests schedule adjustments.

Configuration comes from the environment (see HIBIKI_* variables); pillars
are declared as HIBIKI_PILLARS="id:name:weeklyHours,..." or in a .env file.`,
}

// Execute runs the CLI with the build version injected by main.
func Execute(v string) {
	if v != "" {
		version = v
	}
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(energyCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(dismissCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(statusCmd)
}

// withEngine constructs the engine from the environment, runs fn, and
// guarantees a flushing close.
func withEngine(fn func(ctx context.Context, eng *hibiki.Engine) error) error {
	ctx := context.Background()
	eng, err := hibiki.New(hibiki.WithVersion(version))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close(ctx) }()
	return fn(ctx, eng)
}

// parseDate accepts YYYY-MM-DD, defaulting to today's local date when empty.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// dayName renders a 0-6 day index (Sunday = 0).
func dayName(day int) string {
	if day < 0 || day > 6 {
		return fmt.Sprintf("day %d", day)
	}
	return time.Weekday(day).String()
}
