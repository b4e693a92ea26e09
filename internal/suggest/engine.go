// Package suggest generates ranked, confidence-scored scheduling
// suggestions by evaluating a fixed rule set against the energy profile,
// the time-block ledger, and the pillar health analyzer.
//
// The engine owns Suggestion entities exclusively. It reads the other
// components through narrow source interfaces and never mutates their state.
package suggest

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hibiki-app/hibiki/internal/energy"
	"github.com/hibiki-app/hibiki/internal/ledger"
	"github.com/hibiki-app/hibiki/internal/model"
)

// Defaults for the dismissal cooldown and result truncation.
const (
	DefaultCooldownDays = 7
	DefaultTopK         = 5
)

// EnergySource exposes the learned energy profile to rules.
type EnergySource interface {
	PeakWindows(topN int) []energy.PeakWindow
	Profile(hour, day int) model.EnergyProfile
}

// ScheduleSource exposes the day's blocks and allocation to rules.
type ScheduleSource interface {
	DailyBlocksFor(date time.Time) []model.TimeBlock
	PillarAllocation(date time.Time) []ledger.Allocation
}

// HealthSource exposes pillar health trends to rules.
type HealthSource interface {
	Trend(pillarID string, lookbackDays int, now time.Time) model.Trend
	Latest(pillarID string) (model.HealthPoint, bool)
}

// candidate is a rule's proposed suggestion before entity creation.
type candidate struct {
	Type        model.SuggestionType
	Title       string
	Description string
	Confidence  float64
	Target      string
	ActionData  map[string]any
}

// rule evaluates one policy against the current snapshots. Rules never
// return errors: missing or sparse data means the rule abstains by
// returning the zero candidate and false.
type rule func(e *Engine, rc ruleContext) (candidate, bool)

// ruleContext carries the per-generate snapshots shared by all rules.
type ruleContext struct {
	date        time.Time
	todays      []model.TimeBlock
	allocations []ledger.Allocation
}

// Engine evaluates rules and manages the suggestion lifecycle.
// Callers serialize access.
type Engine struct {
	energy   EnergySource
	schedule ScheduleSource
	health   HealthSource

	items []model.Suggestion
	index map[uuid.UUID]int

	cooldownDays int
	topK         int
	now          func() time.Time
	logger       *slog.Logger
	rules        []rule
}

// Config tunes the engine. Zero values select the defaults.
type Config struct {
	CooldownDays int
	TopK         int
}

// NewEngine creates a suggestion engine over the three read-only sources.
func NewEngine(es EnergySource, ss ScheduleSource, hs HealthSource, cfg Config, now func() time.Time, logger *slog.Logger) *Engine {
	if cfg.CooldownDays <= 0 {
		cfg.CooldownDays = DefaultCooldownDays
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		energy:       es,
		schedule:     ss,
		health:       hs,
		index:        make(map[uuid.UUID]int),
		cooldownDays: cfg.CooldownDays,
		topK:         cfg.TopK,
		now:          now,
		logger:       logger,
		rules:        defaultRules(),
	}
}

// Restore pre-populates the engine with persisted suggestions, preserving
// dismissal state so cooldowns survive restarts.
func Restore(suggestions []model.Suggestion, es EnergySource, ss ScheduleSource, hs HealthSource, cfg Config, now func() time.Time, logger *slog.Logger) *Engine {
	e := NewEngine(es, ss, hs, cfg, now, logger)
	for _, s := range suggestions {
		e.index[s.ID] = len(e.items)
		e.items = append(e.items, s)
	}
	return e
}

// Generate evaluates the rule set for date and returns the new active
// suggestions, ranked by confidence (stable: ties keep rule order) and
// truncated to topK.
//
// Candidates are deduplicated by signature, and signatures dismissed within
// the cooldown window are excluded even if a rule re-emits them. Previous
// undismissed suggestions are replaced by the new generation; dismissed ones
// are kept until their cooldown lapses so the suppression holds.
func (e *Engine) Generate(date time.Time) []model.Suggestion {
	now := e.now()

	var candidates []candidate
	seen := make(map[string]bool)
	rc := ruleContext{
		date:        date,
		todays:      e.schedule.DailyBlocksFor(date),
		allocations: e.schedule.PillarAllocation(date),
	}
	for _, r := range e.rules {
		c, ok := r(e, rc)
		if !ok {
			continue
		}
		sig := model.SuggestionSignature(c.Type, c.Target)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		if e.dismissedWithinCooldown(sig, now) {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if len(candidates) > e.topK {
		candidates = candidates[:e.topK]
	}

	generated := make([]model.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		action := c.ActionData
		if action == nil {
			action = map[string]any{}
		}
		action["target"] = c.Target
		generated = append(generated, model.Suggestion{
			ID:          uuid.New(),
			Type:        c.Type,
			Title:       c.Title,
			Description: c.Description,
			Confidence:  c.Confidence,
			ActionData:  action,
			CreatedAt:   now,
			Signature:   model.SuggestionSignature(c.Type, c.Target),
		})
	}

	e.replaceActive(generated, now)
	return generated
}

// Dismiss marks a suggestion dismissed. One-way and idempotent: dismissing
// twice, or an unknown ID, is a no-op — the UI may race ahead of the engine
// and that must not surface as an error.
func (e *Engine) Dismiss(id uuid.UUID) {
	i, ok := e.index[id]
	if !ok {
		return
	}
	if e.items[i].Dismissed {
		return
	}
	now := e.now()
	e.items[i].Dismissed = true
	e.items[i].DismissedAt = &now
}

// Active returns the current undismissed suggestions in ranked order.
func (e *Engine) Active() []model.Suggestion {
	var out []model.Suggestion
	for _, s := range e.items {
		if !s.Dismissed {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot returns a copy of every retained suggestion for persistence.
func (e *Engine) Snapshot() []model.Suggestion {
	return append([]model.Suggestion(nil), e.items...)
}

func (e *Engine) dismissedWithinCooldown(signature string, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -e.cooldownDays)
	for _, s := range e.items {
		if s.Signature != signature || !s.Dismissed || s.DismissedAt == nil {
			continue
		}
		if s.DismissedAt.After(cutoff) {
			return true
		}
	}
	return false
}

// replaceActive swaps the undismissed working set for the new generation.
// Dismissed suggestions stay until their cooldown lapses; anything older is
// pruned so the retained set stays bounded.
func (e *Engine) replaceActive(generated []model.Suggestion, now time.Time) {
	cutoff := now.AddDate(0, 0, -e.cooldownDays)
	kept := e.items[:0]
	for _, s := range e.items {
		if s.Dismissed && s.DismissedAt != nil && s.DismissedAt.After(cutoff) {
			kept = append(kept, s)
		}
	}
	e.items = append(kept, generated...)
	e.index = make(map[uuid.UUID]int, len(e.items))
	for i, s := range e.items {
		e.index[s.ID] = i
	}
}
