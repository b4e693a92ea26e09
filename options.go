package hibiki

import (
	"log/slog"
)

// Option configures an Engine.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger        *slog.Logger
	version       string
	clock         Clock
	pillars       []Pillar
	directory     PillarDirectory
	databaseURL   string
	sqlitePath    string
	dbDriver      string
	store         SnapshotStore
	retentionDays int
	cooldownDays  int
	topK          int
	eventHooks    []EventHook
}

// WithLogger sets the structured logger for the Engine.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in logs and telemetry.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithClock overrides the engine clock. Use in tests to control timestamps.
func WithClock(clock Clock) Option {
	return func(o *resolvedOptions) { o.clock = clock }
}

// WithPillars sets the static pillar directory, overriding HIBIKI_PILLARS.
func WithPillars(pillars []Pillar) Option {
	return func(o *resolvedOptions) { o.pillars = pillars }
}

// WithPillarDirectory sets a live pillar directory. Takes priority over both
// WithPillars and HIBIKI_PILLARS. Only the last call wins.
func WithPillarDirectory(dir PillarDirectory) Option {
	return func(o *resolvedOptions) { o.directory = dir }
}

// WithDatabaseURL overrides the Postgres connection string from config
// (DATABASE_URL env var) and selects the postgres driver.
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) {
		o.databaseURL = url
		o.dbDriver = "postgres"
	}
}

// WithSQLitePath overrides the SQLite database path from config
// (HIBIKI_SQLITE_PATH env var) and selects the sqlite driver.
// Use ":memory:" for an ephemeral engine in tests.
func WithSQLitePath(path string) Option {
	return func(o *resolvedOptions) {
		o.sqlitePath = path
		o.dbDriver = "sqlite"
	}
}

// WithStore replaces the built-in SQLite/Postgres stores with a custom
// snapshot store. Takes priority over WithDatabaseURL and WithSQLitePath.
// Only the last call wins.
func WithStore(s SnapshotStore) Option {
	return func(o *resolvedOptions) { o.store = s }
}

// WithRetentionDays overrides the health-history retention window.
func WithRetentionDays(days int) Option {
	return func(o *resolvedOptions) { o.retentionDays = days }
}

// WithCooldownDays overrides the suggestion dismissal cooldown.
func WithCooldownDays(days int) Option {
	return func(o *resolvedOptions) { o.cooldownDays = days }
}

// WithTopK overrides the maximum number of suggestions per generation pass.
func WithTopK(k int) Option {
	return func(o *resolvedOptions) { o.topK = k }
}

// WithEventHook registers an event hook for engine lifecycle notifications.
// Multiple hooks may be registered; all registered hooks receive every event.
func WithEventHook(hook EventHook) Option {
	return func(o *resolvedOptions) { o.eventHooks = append(o.eventHooks, hook) }
}
