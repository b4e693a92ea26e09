// Package hibiki is the public API for embedding the Hibiki adaptive
// scheduling and analytics engine.
//
// Consumers construct an Engine, feed it energy samples, time blocks, and
// pillar health snapshots, and read back profiles, allocations, scores, and
// suggestions:
//
//	eng, err := hibiki.New(
//	    hibiki.WithVersion(version),
//	    hibiki.WithLogger(logger),
//	    hibiki.WithPillars(pillars),
//	)
//	if err != nil { ... }
//	defer eng.Close(ctx)
//
// The import graph enforces a strict no-cycle rule: hibiki (root) imports
// the internal engine packages, and those never import hibiki (root); only
// the CLI in internal/cli sits above the public API. Public types
// (TimeBlock, Suggestion, etc.) are standalone structs with no internal
// imports; conversion helpers (toPublicBlock, toPublicSuggestion) live here
// because this is the only file that sees both sides of the boundary.
package hibiki

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/hibiki-app/hibiki/internal/config"
	"github.com/hibiki-app/hibiki/internal/energy"
	"github.com/hibiki-app/hibiki/internal/health"
	"github.com/hibiki-app/hibiki/internal/ledger"
	"github.com/hibiki-app/hibiki/internal/model"
	"github.com/hibiki-app/hibiki/internal/scoring"
	"github.com/hibiki-app/hibiki/internal/storage"
	"github.com/hibiki-app/hibiki/internal/suggest"
	"github.com/hibiki-app/hibiki/internal/telemetry"
)

// trendLookbackDays is the window PillarHealthSummary classifies trends over.
const trendLookbackDays = 14

// Engine is the scheduling and analytics engine lifecycle.
// Construct with New(), release with Close(). Engine has no public fields —
// use New() options to configure it. All methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	cfg      config.Config
	energy   *energy.Store
	ledger   *ledger.Ledger
	health   *health.Analyzer
	suggest  *suggest.Engine
	store    storage.Store
	lookup   *pillarLookup
	metrics  *telemetry.EngineMetrics
	shutdown telemetry.Shutdown
	hooks    []EventHook
	logger   *slog.Logger
	now      func() time.Time
	version  string

	saveCh    chan struct{}
	quit      chan struct{}
	saver     errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// New initialises the engine. It opens the snapshot store, loads persisted
// state into the in-memory components, and starts the background saver.
func New(opts ...Option) (*Engine, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbDriver != "" {
		cfg.DBDriver = o.dbDriver
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.sqlitePath != "" {
		cfg.SQLitePath = o.sqlitePath
	}
	if o.retentionDays > 0 {
		cfg.RetentionDays = o.retentionDays
	}
	if o.cooldownDays > 0 {
		cfg.CooldownDays = o.cooldownDays
	}
	if o.topK > 0 {
		cfg.TopK = o.topK
	}
	if len(o.pillars) > 0 {
		cfg.Pillars = make([]model.PillarInfo, len(o.pillars))
		for i, p := range o.pillars {
			cfg.Pillars[i] = model.PillarInfo{ID: p.ID, Name: p.Name, WeeklyTargetHours: p.WeeklyTargetHours}
		}
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	now := time.Now
	if o.clock != nil {
		now = o.clock.Now
	}

	logger.Info("hibiki starting", "version", version, "driver", cfg.DBDriver)

	// Initialize OpenTelemetry.
	shutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, false)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Open the snapshot store — external override takes priority.
	var store storage.Store
	if o.store != nil {
		store = &storeAdapter{s: o.store}
	} else {
		switch cfg.DBDriver {
		case "postgres":
			store, err = storage.NewPostgres(context.Background(), cfg.DatabaseURL, logger)
		default:
			store, err = storage.NewSQLite(context.Background(), cfg.SQLitePath, logger)
		}
		if err != nil {
			_ = shutdown(context.Background())
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	// Load persisted state into the components.
	snap, err := store.Load(context.Background())
	if err != nil {
		_ = store.Close(context.Background())
		_ = shutdown(context.Background())
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	lookup := &pillarLookup{static: cfg.Pillars, live: o.directory}
	energyStore := energy.Restore(snap.Profiles)
	led := ledger.Restore(snap.Blocks, lookup, energyStore, now, logger)
	healthAn := health.Restore(snap.Health, cfg.RetentionDays)
	sugg := suggest.Restore(snap.Suggestions, energyStore, led, healthAn,
		suggest.Config{CooldownDays: cfg.CooldownDays, TopK: cfg.TopK}, now, logger)

	logger.Info("snapshot loaded",
		"profiles", len(snap.Profiles),
		"blocks", len(snap.Blocks),
		"pillars_with_history", len(snap.Health),
		"suggestions", len(snap.Suggestions),
	)

	e := &Engine{
		cfg:      cfg,
		energy:   energyStore,
		ledger:   led,
		health:   healthAn,
		suggest:  sugg,
		store:    store,
		lookup:   lookup,
		metrics:  telemetry.NewEngineMetrics(),
		shutdown: shutdown,
		hooks:    o.eventHooks,
		logger:   logger,
		now:      now,
		version:  version,
		saveCh:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	e.saver.Go(e.saveLoop)
	return e, nil
}

// Close flushes a final snapshot, stops the background saver, and releases
// the store and telemetry providers. Safe to call more than once.
func (e *Engine) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.logger.Info("hibiki shutting down")
		saveErr := e.persist(ctx)
		close(e.quit)
		_ = e.saver.Wait()
		closeErr := e.store.Close(ctx)
		_ = e.shutdown(ctx)
		if saveErr != nil {
			e.closeErr = fmt.Errorf("final snapshot save: %w", saveErr)
		} else if closeErr != nil {
			e.closeErr = fmt.Errorf("close store: %w", closeErr)
		}
		e.logger.Info("hibiki stopped")
	})
	return e.closeErr
}

// ── Energy profile ─────────────────────────────────────────────────────────────

// RecordEnergySample folds one energy observation (level 0-10) into the
// (hour, day) bucket's running average.
func (e *Engine) RecordEnergySample(ctx context.Context, hour, day, level int) error {
	e.mu.Lock()
	err := e.energy.RecordSample(model.EnergySample{Hour: hour, Day: day, Level: level})
	e.mu.Unlock()
	if err != nil {
		return err
	}
	telemetry.Add(ctx, e.metrics.SamplesRecorded, 1)
	e.requestSave()
	return nil
}

// EnergyProfileAt returns the learned profile for a bucket. Unsampled
// buckets return the neutral cold-start average with a zero sample size.
func (e *Engine) EnergyProfileAt(hour, day int) EnergyProfile {
	e.mu.Lock()
	p := e.energy.Profile(hour, day)
	e.mu.Unlock()
	return EnergyProfile{Hour: hour, Day: day, Average: p.Average, SampleSize: p.SampleSize}
}

// PeakWindows returns up to topN sampled buckets ordered by average energy
// descending, ties broken by hour then day.
func (e *Engine) PeakWindows(topN int) []PeakWindow {
	e.mu.Lock()
	windows := e.energy.PeakWindows(topN)
	e.mu.Unlock()
	out := make([]PeakWindow, len(windows))
	for i, w := range windows {
		out[i] = PeakWindow{Hour: w.Bucket.Hour, Day: w.Bucket.Day, Average: w.Average, SampleSize: w.SampleSize}
	}
	return out
}

// ── Time blocks ────────────────────────────────────────────────────────────────

// ScheduleBlock validates and schedules a new planned block.
func (e *Engine) ScheduleBlock(ctx context.Context, req ScheduleRequest) (TimeBlock, error) {
	e.mu.Lock()
	block, err := e.ledger.Schedule(model.TimeBlock{
		PillarID:       req.PillarID,
		Title:          req.Title,
		StartTime:      req.Start,
		EndTime:        req.End,
		EnergyRequired: model.EnergyLevel(req.Energy),
	})
	e.mu.Unlock()
	if err != nil {
		return TimeBlock{}, err
	}
	telemetry.Add(ctx, e.metrics.BlocksScheduled, 1)
	e.requestSave()
	return toPublicBlock(block), nil
}

// StartBlock moves a planned block to active.
func (e *Engine) StartBlock(ctx context.Context, id uuid.UUID) (TimeBlock, error) {
	e.mu.Lock()
	block, err := e.ledger.Start(id)
	e.mu.Unlock()
	if err != nil {
		return TimeBlock{}, err
	}
	e.requestSave()
	return toPublicBlock(block), nil
}

// CompleteBlock finishes a planned or active block. Completion feeds a
// derived energy sample back into the profile.
func (e *Engine) CompleteBlock(ctx context.Context, id uuid.UUID, notes *string) (TimeBlock, error) {
	e.mu.Lock()
	block, err := e.ledger.Complete(id, notes)
	e.mu.Unlock()
	if err != nil {
		return TimeBlock{}, err
	}
	telemetry.Add(ctx, e.metrics.BlocksCompleted, 1)
	e.requestSave()

	pub := toPublicBlock(block)
	e.fireHooks(func(ctx context.Context, h EventHook) error {
		return h.OnBlockCompleted(ctx, pub)
	})
	return pub, nil
}

// MarkBlockMissed records that a planned or active block was skipped.
func (e *Engine) MarkBlockMissed(ctx context.Context, id uuid.UUID) (TimeBlock, error) {
	e.mu.Lock()
	block, err := e.ledger.MarkMissed(id)
	e.mu.Unlock()
	if err != nil {
		return TimeBlock{}, err
	}
	telemetry.Add(ctx, e.metrics.BlocksMissed, 1)
	e.requestSave()
	return toPublicBlock(block), nil
}

// Block returns a block by ID, or ErrNotFound.
func (e *Engine) Block(id uuid.UUID) (TimeBlock, error) {
	e.mu.Lock()
	block, ok := e.ledger.Get(id)
	e.mu.Unlock()
	if !ok {
		return TimeBlock{}, fmt.Errorf("block %s: %w", id, ErrNotFound)
	}
	return toPublicBlock(block), nil
}

// DailyBlocks returns the blocks starting on date's calendar day,
// ascending by start time.
func (e *Engine) DailyBlocks(date time.Time) []TimeBlock {
	e.mu.Lock()
	blocks := e.ledger.DailyBlocksFor(date)
	e.mu.Unlock()
	out := make([]TimeBlock, len(blocks))
	for i, b := range blocks {
		out[i] = toPublicBlock(b)
	}
	return out
}

// PillarAllocation reports per-pillar planned and completed hours for
// date's calendar day. Every directory pillar gets an entry.
func (e *Engine) PillarAllocation(date time.Time) []Allocation {
	e.mu.Lock()
	allocs := e.ledger.PillarAllocation(date)
	e.mu.Unlock()
	out := make([]Allocation, len(allocs))
	for i, a := range allocs {
		out[i] = Allocation{
			Pillar:         Pillar{ID: a.Pillar.ID, Name: a.Pillar.Name, WeeklyTargetHours: a.Pillar.WeeklyTargetHours},
			PlannedHours:   a.PlannedHours,
			CompletedHours: a.CompletedHours,
			TargetHours:    a.TargetHours,
		}
	}
	return out
}

// ── Pillar health ──────────────────────────────────────────────────────────────

// RecordHealthSnapshot appends a health observation (score 0-100) for a
// pillar. Timestamps must not move backwards within a pillar's history.
func (e *Engine) RecordHealthSnapshot(ctx context.Context, pillarID string, score float64, at time.Time) error {
	e.mu.Lock()
	err := e.health.RecordSnapshot(pillarID, score, at)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.requestSave()
	return nil
}

// PillarTrend classifies a pillar's health trajectory over the given
// lookback window ending now.
func (e *Engine) PillarTrend(pillarID string, lookbackDays int) Trend {
	e.mu.Lock()
	t := e.health.Trend(pillarID, lookbackDays, e.now())
	e.mu.Unlock()
	return Trend(t)
}

// HealthHistory returns a copy of a pillar's health series.
func (e *Engine) HealthHistory(pillarID string) []HealthPoint {
	e.mu.Lock()
	points := e.health.History(pillarID)
	e.mu.Unlock()
	out := make([]HealthPoint, len(points))
	for i, p := range points {
		out[i] = HealthPoint{Score: p.Score, Timestamp: p.Timestamp}
	}
	return out
}

// OverallHealth is the mean of the latest score of every directory pillar
// that has history. No history at all reads as 0.
func (e *Engine) OverallHealth() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	pillars := e.lookup.Pillars()
	ids := make([]string, len(pillars))
	for i, p := range pillars {
		ids[i] = p.ID
	}
	return e.health.OverallHealth(ids)
}

// PillarHealthSummary returns the latest score and 14-day trend for every
// directory pillar, ordered as the directory lists them.
func (e *Engine) PillarHealthSummary() []PillarHealth {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	var out []PillarHealth
	for _, p := range e.lookup.Pillars() {
		ph := PillarHealth{PillarID: p.ID, Trend: Trend(e.health.Trend(p.ID, trendLookbackDays, now))}
		if latest, ok := e.health.Latest(p.ID); ok {
			ph.Score = latest.Score
			ph.HasData = true
		}
		out = append(out, ph)
	}
	return out
}

// ── Productivity scoring ───────────────────────────────────────────────────────

// ScoreMetrics fills in the 0-100 composite productivity score for a
// period's counters. Pure computation — no state is read or written.
func (e *Engine) ScoreMetrics(m ProductivityMetric) ProductivityMetric {
	scored := scoring.Apply(model.ProductivityMetric{
		PeriodStart:                  m.PeriodStart,
		PeriodEnd:                    m.PeriodEnd,
		TasksCreated:                 m.TasksCreated,
		TasksCompleted:               m.TasksCompleted,
		FocusTimeMinutes:             m.FocusTimeMinutes,
		DistractionEvents:            m.DistractionEvents,
		AverageCompletionTimeMinutes: m.AverageCompletionTimeMinutes,
	})
	m.ProductivityScore = scored.ProductivityScore
	return m
}

// ── Suggestions ────────────────────────────────────────────────────────────────

// GenerateSuggestions evaluates the rule set for date and returns the new
// active suggestions, ranked by confidence and truncated to the configured
// top-K. Signatures dismissed within the cooldown window are suppressed.
func (e *Engine) GenerateSuggestions(ctx context.Context, date time.Time) []Suggestion {
	e.mu.Lock()
	generated := e.suggest.Generate(date)
	e.mu.Unlock()
	telemetry.Add(ctx, e.metrics.SuggestionsGenerated, int64(len(generated)))
	e.requestSave()

	out := make([]Suggestion, len(generated))
	for i, s := range generated {
		out[i] = toPublicSuggestion(s)
	}
	if len(out) > 0 {
		pub := out
		e.fireHooks(func(ctx context.Context, h EventHook) error {
			return h.OnSuggestionsGenerated(ctx, pub)
		})
	}
	return out
}

// ActiveSuggestions returns the current undismissed suggestions in ranked order.
func (e *Engine) ActiveSuggestions() []Suggestion {
	e.mu.Lock()
	items := e.suggest.Active()
	e.mu.Unlock()
	out := make([]Suggestion, len(items))
	for i, s := range items {
		out[i] = toPublicSuggestion(s)
	}
	return out
}

// DismissSuggestion marks a suggestion dismissed, starting its cooldown.
// Idempotent; unknown IDs are a no-op.
func (e *Engine) DismissSuggestion(ctx context.Context, id uuid.UUID) {
	e.mu.Lock()
	e.suggest.Dismiss(id)
	e.mu.Unlock()
	telemetry.Add(ctx, e.metrics.SuggestionsDismissed, 1)
	e.requestSave()
}

// ── Persistence ────────────────────────────────────────────────────────────────

// Save synchronously writes the current snapshot. Mutating operations
// already schedule background saves; call this only when the caller needs
// the write confirmed (e.g. before process exit without Close).
func (e *Engine) Save(ctx context.Context) error {
	return e.persist(ctx)
}

// requestSave schedules a background save. Coalescing is deliberate: a burst
// of mutations produces one write of the latest state.
func (e *Engine) requestSave() {
	select {
	case e.saveCh <- struct{}{}:
	default:
	}
}

func (e *Engine) saveLoop() error {
	for {
		select {
		case <-e.quit:
			return nil
		case <-e.saveCh:
			if err := e.persist(context.Background()); err != nil {
				e.logger.Warn("background snapshot save failed", "error", err)
			}
		}
	}
}

func (e *Engine) persist(ctx context.Context) error {
	e.mu.Lock()
	snap := &storage.Snapshot{
		Profiles:    e.energy.Snapshot(),
		Blocks:      e.ledger.Blocks(),
		Health:      e.health.Snapshot(),
		Suggestions: e.suggest.Snapshot(),
	}
	e.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(ctx, e.cfg.SaveTimeout)
	defer cancel()
	if err := e.store.Save(saveCtx, snap); err != nil {
		telemetry.Add(ctx, e.metrics.SnapshotSaveFailures, 1)
		return err
	}
	telemetry.Add(ctx, e.metrics.SnapshotSaves, 1)
	return nil
}

// fireHooks runs fn against every registered hook in one goroutine.
// Hook failures are logged, never surfaced to the originating call.
func (e *Engine) fireHooks(fn func(context.Context, EventHook) error) {
	if len(e.hooks) == 0 {
		return
	}
	hooks := e.hooks
	logger := e.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, h := range hooks {
			if err := fn(ctx, h); err != nil {
				logger.Warn("event hook failed", "error", err)
			}
		}
	}()
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// pillarLookup satisfies ledger.PillarLookup from either a static pillar
// list or a live public PillarDirectory.
type pillarLookup struct {
	static []model.PillarInfo
	live   PillarDirectory
}

func (d *pillarLookup) Pillars() []model.PillarInfo {
	if d.live == nil {
		return d.static
	}
	pillars := d.live.Pillars()
	out := make([]model.PillarInfo, len(pillars))
	for i, p := range pillars {
		out[i] = model.PillarInfo{ID: p.ID, Name: p.Name, WeeklyTargetHours: p.WeeklyTargetHours}
	}
	return out
}

func (d *pillarLookup) Pillar(id string) (model.PillarInfo, bool) {
	for _, p := range d.Pillars() {
		if p.ID == id {
			return p, true
		}
	}
	return model.PillarInfo{}, false
}

// storeAdapter wraps a public SnapshotStore to satisfy internal
// storage.Store. Converts between public and internal snapshot shapes.
type storeAdapter struct {
	s SnapshotStore
}

func (a *storeAdapter) Load(ctx context.Context) (*storage.Snapshot, error) {
	pub, err := a.s.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := storage.Empty()
	if pub == nil {
		return snap, nil
	}
	for _, p := range pub.Profiles {
		snap.Profiles[model.Bucket{Hour: p.Hour, Day: p.Day}] = model.EnergyProfile{
			Average: p.Average, SampleSize: p.SampleSize,
		}
	}
	for _, b := range pub.Blocks {
		snap.Blocks = append(snap.Blocks, model.TimeBlock{
			ID:              b.ID,
			PillarID:        b.PillarID,
			Title:           b.Title,
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
			EnergyRequired:  model.EnergyLevel(b.EnergyRequired),
			Status:          model.BlockStatus(b.Status),
			ActualStartTime: b.ActualStartTime,
			CompletedAt:     b.CompletedAt,
			Notes:           b.Notes,
			CreatedAt:       b.CreatedAt,
		})
	}
	for pillarID, points := range pub.Health {
		for _, p := range points {
			snap.Health[pillarID] = append(snap.Health[pillarID], model.HealthPoint{
				Score: p.Score, Timestamp: p.Timestamp,
			})
		}
	}
	for _, s := range pub.Suggestions {
		snap.Suggestions = append(snap.Suggestions, model.Suggestion{
			ID:          s.ID,
			Type:        model.SuggestionType(s.Type),
			Title:       s.Title,
			Description: s.Description,
			Confidence:  s.Confidence,
			ActionData:  s.ActionData,
			Dismissed:   s.Dismissed,
			DismissedAt: s.DismissedAt,
			CreatedAt:   s.CreatedAt,
			Signature:   s.Signature,
		})
	}
	return snap, nil
}

func (a *storeAdapter) Save(ctx context.Context, snap *storage.Snapshot) error {
	pub := &Snapshot{Health: make(map[string][]HealthPoint, len(snap.Health))}
	for b, p := range snap.Profiles {
		pub.Profiles = append(pub.Profiles, EnergyProfile{
			Hour: b.Hour, Day: b.Day, Average: p.Average, SampleSize: p.SampleSize,
		})
	}
	for _, b := range snap.Blocks {
		pub.Blocks = append(pub.Blocks, toPublicBlock(b))
	}
	for pillarID, points := range snap.Health {
		out := make([]HealthPoint, len(points))
		for i, p := range points {
			out[i] = HealthPoint{Score: p.Score, Timestamp: p.Timestamp}
		}
		pub.Health[pillarID] = out
	}
	for _, s := range snap.Suggestions {
		pub.Suggestions = append(pub.Suggestions, toPublicSuggestion(s))
	}
	return a.s.Save(ctx, pub)
}

func (a *storeAdapter) Close(ctx context.Context) error {
	return a.s.Close(ctx)
}

// ── Type converters ────────────────────────────────────────────────────────────

// toPublicBlock converts an internal model.TimeBlock to the public TimeBlock.
// Lives here because this is the only file that imports both sides of the boundary.
func toPublicBlock(b model.TimeBlock) TimeBlock {
	return TimeBlock{
		ID:              b.ID,
		PillarID:        b.PillarID,
		Title:           b.Title,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		EnergyRequired:  EnergyLevel(b.EnergyRequired),
		Status:          BlockStatus(b.Status),
		ActualStartTime: b.ActualStartTime,
		CompletedAt:     b.CompletedAt,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
	}
}

// toPublicSuggestion converts an internal model.Suggestion to the public Suggestion.
func toPublicSuggestion(s model.Suggestion) Suggestion {
	return Suggestion{
		ID:          s.ID,
		Type:        SuggestionType(s.Type),
		Title:       s.Title,
		Description: s.Description,
		Confidence:  s.Confidence,
		ActionData:  s.ActionData,
		Dismissed:   s.Dismissed,
		DismissedAt: s.DismissedAt,
		CreatedAt:   s.CreatedAt,
		Signature:   s.Signature,
	}
}
