// Package testutil provides shared test infrastructure: a controllable
// clock, explicitly seeded fixtures, and a Postgres container helper for
// storage integration tests.
//
// All randomness in fixtures is seeded — production code paths never draw
// random numbers, and tests must be reproducible run to run.
package testutil

import (
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Clock is a manually advanced clock for deterministic timestamps.
type Clock struct {
	t time.Time
}

// NewClock creates a clock frozen at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current clock time. Pass the method value as a now func.
func (c *Clock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) { c.t = t }

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// SamplePillars is a small fixed pillar directory for tests.
func SamplePillars() []model.PillarInfo {
	return []model.PillarInfo{
		{ID: "health", Name: "Health & Wellness", WeeklyTargetHours: 7},
		{ID: "career", Name: "Career & Growth", WeeklyTargetHours: 21},
		{ID: "family", Name: "Family & Friends", WeeklyTargetHours: 14},
	}
}

// SeededLevels returns n energy levels in [0,10] drawn from a generator
// seeded with seed.
func SeededLevels(seed int64, n int) []int {
	rng := rand.New(rand.NewSource(seed))
	levels := make([]int, n)
	for i := range levels {
		levels[i] = rng.Intn(11)
	}
	return levels
}
