// Package ledger owns the lifecycle of scheduled time blocks and derives
// per-pillar time-allocation facts from them. Pillar identity lives outside
// the engine; the ledger only holds non-owning pillar IDs resolved through
// an injected lookup.
package ledger

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hibiki-app/hibiki/internal/model"
)

// PillarLookup resolves read-only pillar reference data.
type PillarLookup interface {
	Pillar(id string) (model.PillarInfo, bool)
	Pillars() []model.PillarInfo
}

// SampleSink receives the energy samples derived from completed blocks.
// Implemented by the energy store.
type SampleSink interface {
	RecordSample(model.EnergySample) error
}

// Ledger tracks every scheduled block by ID.
// Callers serialize access; the ledger performs no I/O.
type Ledger struct {
	blocks  map[uuid.UUID]model.TimeBlock
	pillars PillarLookup
	samples SampleSink
	now     func() time.Time
	logger  *slog.Logger
}

// New creates an empty ledger.
func New(pillars PillarLookup, samples SampleSink, now func() time.Time, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		blocks:  make(map[uuid.UUID]model.TimeBlock),
		pillars: pillars,
		samples: samples,
		now:     now,
		logger:  logger,
	}
}

// Restore creates a ledger pre-populated from persisted blocks.
func Restore(blocks []model.TimeBlock, pillars PillarLookup, samples SampleSink, now func() time.Time, logger *slog.Logger) *Ledger {
	l := New(pillars, samples, now, logger)
	for _, b := range blocks {
		l.blocks[b.ID] = b
	}
	return l
}

// Schedule validates and inserts a new block with status planned.
// A zero ID is assigned; start/end and pillar reference are validated first,
// and a failed validation leaves the ledger untouched.
func (l *Ledger) Schedule(block model.TimeBlock) (model.TimeBlock, error) {
	if err := block.Validate(); err != nil {
		return model.TimeBlock{}, err
	}
	if _, ok := l.pillars.Pillar(block.PillarID); !ok {
		return model.TimeBlock{}, model.Invalidf("pillar_id", "unknown pillar %q", block.PillarID)
	}
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	block.Status = model.StatusPlanned
	block.ActualStartTime = nil
	block.CompletedAt = nil
	block.CreatedAt = l.now()
	l.blocks[block.ID] = block
	return block, nil
}

// Start moves a planned block to active and stamps its actual start time.
func (l *Ledger) Start(blockID uuid.UUID) (model.TimeBlock, error) {
	block, ok := l.blocks[blockID]
	if !ok {
		return model.TimeBlock{}, model.Invalidf("block_id", "unknown block %s", blockID)
	}
	if block.Status != model.StatusPlanned {
		return model.TimeBlock{}, &model.InvalidStateTransitionError{
			BlockID: blockID, From: block.Status, To: model.StatusActive,
		}
	}
	now := l.now()
	block.ActualStartTime = &now
	block.Status = model.StatusActive
	l.blocks[blockID] = block
	return block, nil
}

// Complete finishes a planned or active block. As a side effect it derives
// an energy sample from the block's actual start (falling back to the
// completion time) and its required energy level, and folds it into the
// energy profile. The sample feedback is best-effort: it can only fail on
// inputs the ledger already controls, so a failure is logged, never surfaced.
func (l *Ledger) Complete(blockID uuid.UUID, notes *string) (model.TimeBlock, error) {
	block, ok := l.blocks[blockID]
	if !ok {
		return model.TimeBlock{}, model.Invalidf("block_id", "unknown block %s", blockID)
	}
	if block.Status != model.StatusPlanned && block.Status != model.StatusActive {
		return model.TimeBlock{}, &model.InvalidStateTransitionError{
			BlockID: blockID, From: block.Status, To: model.StatusCompleted,
		}
	}
	now := l.now()
	block.CompletedAt = &now
	block.Status = model.StatusCompleted
	if notes != nil {
		block.Notes = notes
	}
	l.blocks[blockID] = block

	at := now
	if block.ActualStartTime != nil {
		at = *block.ActualStartTime
	}
	sample := model.EnergySample{
		Hour:  at.Hour(),
		Day:   int(at.Weekday()),
		Level: block.EnergyRequired.SampleLevel(),
	}
	if err := l.samples.RecordSample(sample); err != nil {
		l.logger.Warn("ledger: derived sample rejected", "block_id", blockID, "error", err)
	}
	return block, nil
}

// MarkMissed records that a planned or active block was skipped.
// The policy deciding when a block counts as missed lives with the caller;
// the ledger only enforces that the transition is legal and terminal.
func (l *Ledger) MarkMissed(blockID uuid.UUID) (model.TimeBlock, error) {
	block, ok := l.blocks[blockID]
	if !ok {
		return model.TimeBlock{}, model.Invalidf("block_id", "unknown block %s", blockID)
	}
	if block.Status != model.StatusPlanned && block.Status != model.StatusActive {
		return model.TimeBlock{}, &model.InvalidStateTransitionError{
			BlockID: blockID, From: block.Status, To: model.StatusMissed,
		}
	}
	block.Status = model.StatusMissed
	l.blocks[blockID] = block
	return block, nil
}

// Get returns a block by ID.
func (l *Ledger) Get(blockID uuid.UUID) (model.TimeBlock, bool) {
	b, ok := l.blocks[blockID]
	return b, ok
}

// DailyBlocksFor returns every block whose start time falls on the calendar
// day of date (evaluated in date's location), ascending by start time.
func (l *Ledger) DailyBlocksFor(date time.Time) []model.TimeBlock {
	y, m, d := date.Date()
	var out []model.TimeBlock
	for _, b := range l.blocks {
		by, bm, bd := b.StartTime.In(date.Location()).Date()
		if by == y && bm == m && bd == d {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Allocation reports one pillar's scheduled time for a day against its
// daily share of the weekly target.
type Allocation struct {
	Pillar         model.PillarInfo
	PlannedHours   float64 // all blocks starting that day, regardless of status
	CompletedHours float64 // the completed subset
	TargetHours    float64 // weeklyTargetHours / 7
}

// PillarAllocation sums block durations per pillar for the calendar day of
// date. Every pillar in the directory gets an entry, ordered by pillar ID.
func (l *Ledger) PillarAllocation(date time.Time) []Allocation {
	byPillar := make(map[string]*Allocation)
	for _, p := range l.pillars.Pillars() {
		byPillar[p.ID] = &Allocation{Pillar: p, TargetHours: p.WeeklyTargetHours / 7}
	}
	for _, b := range l.DailyBlocksFor(date) {
		a, ok := byPillar[b.PillarID]
		if !ok {
			// Pillar removed from the directory after scheduling; skip.
			continue
		}
		hours := b.Duration().Hours()
		a.PlannedHours += hours
		if b.Status == model.StatusCompleted {
			a.CompletedHours += hours
		}
	}
	out := make([]Allocation, 0, len(byPillar))
	for _, a := range byPillar {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pillar.ID < out[j].Pillar.ID })
	return out
}

// Blocks returns a copy of every block, ascending by start time.
func (l *Ledger) Blocks() []model.TimeBlock {
	out := make([]model.TimeBlock, 0, len(l.blocks))
	for _, b := range l.blocks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
