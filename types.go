package hibiki

import (
	"time"

	"github.com/google/uuid"
)

// EnergyLevel is the qualitative energy a block demands.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// BlockStatus is the lifecycle state of a scheduled time block.
type BlockStatus string

const (
	StatusPlanned   BlockStatus = "planned"
	StatusActive    BlockStatus = "active"
	StatusCompleted BlockStatus = "completed"
	StatusMissed    BlockStatus = "missed"
)

// Trend classifies the trajectory of a pillar's health history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// SuggestionType identifies which rule produced a suggestion.
type SuggestionType string

const (
	SuggestPeakFocus       SuggestionType = "peak_focus"
	SuggestPillarDeficit   SuggestionType = "pillar_deficit"
	SuggestDecliningHealth SuggestionType = "declining_health"
	SuggestOverload        SuggestionType = "overload"
	SuggestEnergyMismatch  SuggestionType = "energy_mismatch"
)

// Pillar is the read-only reference data for a life-area pillar.
// The engine never creates or renames pillars; it references them by ID.
type Pillar struct {
	ID                string
	Name              string
	WeeklyTargetHours float64
}

// ScheduleRequest describes a block to be scheduled.
type ScheduleRequest struct {
	PillarID string
	Title    string
	Start    time.Time
	End      time.Time
	Energy   EnergyLevel
}

// TimeBlock is the public view of a scheduled block.
// It is a curated copy of internal state — safe to retain across calls.
type TimeBlock struct {
	ID              uuid.UUID
	PillarID        string
	Title           string
	StartTime       time.Time
	EndTime         time.Time
	EnergyRequired  EnergyLevel
	Status          BlockStatus
	ActualStartTime *time.Time
	CompletedAt     *time.Time
	Notes           *string
	CreatedAt       time.Time
}

// Duration returns the scheduled length of the block.
func (b TimeBlock) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// EnergyProfile is the learned energy aggregate for one
// (hour-of-day, day-of-week) bucket. A SampleSize of zero means the bucket
// has never been sampled and Average is the neutral cold-start default.
type EnergyProfile struct {
	Hour       int // 0-23
	Day        int // 0-6, Sunday = 0 (matches time.Weekday)
	Average    float64
	SampleSize int
}

// PeakWindow is one sampled bucket ranked by average energy.
type PeakWindow struct {
	Hour       int
	Day        int
	Average    float64
	SampleSize int
}

// Allocation reports one pillar's scheduled time for a day against its
// daily share of the weekly target.
type Allocation struct {
	Pillar         Pillar
	PlannedHours   float64
	CompletedHours float64
	TargetHours    float64
}

// HealthPoint is one entry in a pillar's health-score time series.
type HealthPoint struct {
	Score     float64 // 0-100
	Timestamp time.Time
}

// PillarHealth summarizes a pillar's current state.
type PillarHealth struct {
	PillarID string
	Score    float64 // latest recorded score; 0 when no history exists
	HasData  bool
	Trend    Trend
}

// ProductivityMetric is the counter set for one reporting period.
type ProductivityMetric struct {
	PeriodStart                  time.Time
	PeriodEnd                    time.Time
	TasksCreated                 int
	TasksCompleted               int
	FocusTimeMinutes             int
	DistractionEvents            int
	AverageCompletionTimeMinutes float64
	ProductivityScore            int // 0-100, filled by ScoreMetrics
}

// Suggestion is a generated scheduling recommendation.
type Suggestion struct {
	ID          uuid.UUID
	Type        SuggestionType
	Title       string
	Description string
	Confidence  float64 // 0-1
	ActionData  map[string]any
	Dismissed   bool
	DismissedAt *time.Time
	CreatedAt   time.Time
	// Signature is the dedupe/cooldown key derived from (type, target).
	// Stores must round-trip it unchanged or dismissal cooldowns break.
	Signature string
}

// Snapshot is the full persisted state of one engine instance, as handled
// by a SnapshotStore.
type Snapshot struct {
	Profiles    []EnergyProfile
	Blocks      []TimeBlock
	Health      map[string][]HealthPoint
	Suggestions []Suggestion
}
