package model

import (
	"time"

	"github.com/google/uuid"
)

// BlockStatus is the lifecycle state of a scheduled time block.
type BlockStatus string

const (
	StatusPlanned   BlockStatus = "planned"
	StatusActive    BlockStatus = "active"
	StatusCompleted BlockStatus = "completed"
	StatusMissed    BlockStatus = "missed"
)

// ValidTransition reports whether a block may move from one status to another.
// The machine only moves forward: planned -> active -> completed, with
// planned|active -> missed as a side exit. completed and missed are terminal.
func ValidTransition(from, to BlockStatus) bool {
	switch from {
	case StatusPlanned:
		return to == StatusActive || to == StatusCompleted || to == StatusMissed
	case StatusActive:
		return to == StatusCompleted || to == StatusMissed
	default:
		return false
	}
}

// EnergyLevel is the qualitative energy a block demands.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// SampleLevel maps a qualitative energy requirement onto the 0-10 sample
// scale used by the energy profile. Completing a block feeds this value back
// into the learned profile.
func (l EnergyLevel) SampleLevel() int {
	switch l {
	case EnergyLow:
		return 3
	case EnergyHigh:
		return 8
	default:
		return 5
	}
}

// ParseEnergyLevel converts user input into an EnergyLevel.
func ParseEnergyLevel(s string) (EnergyLevel, error) {
	switch EnergyLevel(s) {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return EnergyLevel(s), nil
	}
	return "", Invalidf("energy_level", "must be low, medium, or high, got %q", s)
}

// TimeBlock is a scheduled interval of work assigned to exactly one pillar.
// Immutable once completed.
type TimeBlock struct {
	ID              uuid.UUID   `json:"id"`
	PillarID        string      `json:"pillar_id"`
	Title           string      `json:"title"`
	StartTime       time.Time   `json:"start_time"`
	EndTime         time.Time   `json:"end_time"`
	EnergyRequired  EnergyLevel `json:"energy_required"`
	Status          BlockStatus `json:"status"`
	ActualStartTime *time.Time  `json:"actual_start_time,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	Notes           *string     `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Validate checks the invariants a block must satisfy before scheduling.
// Pillar existence is checked separately against the injected directory.
func (b TimeBlock) Validate() error {
	if b.PillarID == "" {
		return Invalidf("pillar_id", "is required")
	}
	if b.StartTime.IsZero() {
		return Invalidf("start_time", "is required")
	}
	if !b.EndTime.After(b.StartTime) {
		return Invalidf("end_time", "must be after start_time")
	}
	switch b.EnergyRequired {
	case EnergyLow, EnergyMedium, EnergyHigh:
	default:
		return Invalidf("energy_required", "must be low, medium, or high, got %q", b.EnergyRequired)
	}
	return nil
}

// Duration returns the scheduled length of the block.
func (b TimeBlock) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}
