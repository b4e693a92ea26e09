package model

import "time"

// PillarInfo is the read-only reference data for a life-area pillar,
// provided by an external directory. The engine never creates or renames
// pillars; it only references them by ID.
type PillarInfo struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	WeeklyTargetHours float64 `json:"weekly_target_hours"`
}

// HealthPoint is one entry in a pillar's health-score time series.
type HealthPoint struct {
	Score     float64   `json:"score"` // 0-100
	Timestamp time.Time `json:"timestamp"`
}

// ValidateHealthScore checks a health score against its scale.
func ValidateHealthScore(score float64) error {
	if score < 0 || score > 100 {
		return Invalidf("score", "must be in [0,100], got %g", score)
	}
	return nil
}

// Trend classifies the trajectory of a pillar's health history.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)
