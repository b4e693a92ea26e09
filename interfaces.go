package hibiki

import (
	"context"
	"time"
)

// PillarDirectory supplies the pillar reference data the engine schedules
// against. When provided via WithPillarDirectory it replaces the static list
// from HIBIKI_PILLARS / WithPillars. Pillars() is called on every operation
// that needs the directory, so implementations may serve live data; they must
// be safe for concurrent use.
type PillarDirectory interface {
	Pillars() []Pillar
}

// Clock supplies the engine's notion of now. Provide one via WithClock to
// make block timestamps and cooldown arithmetic deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SnapshotStore persists and restores engine snapshots. When provided via
// WithStore it replaces the built-in SQLite/Postgres stores. Load on an
// empty store must return an empty snapshot, not an error; Save must
// atomically replace whatever was persisted before.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Close(ctx context.Context) error
}

// EventHook receives async notifications when engine lifecycle events occur.
// Multiple hooks may be registered via multiple WithEventHook calls.
// Hook methods run in goroutines — they must not block indefinitely.
// Failures are logged but do not fail the originating operation.
type EventHook interface {
	OnBlockCompleted(ctx context.Context, block TimeBlock) error
	OnSuggestionsGenerated(ctx context.Context, suggestions []Suggestion) error
}
