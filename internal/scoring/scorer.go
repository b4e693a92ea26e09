// Package scoring computes the composite productivity score for a period.
// The score is a deterministic 0-100 blend of task completion, focus time,
// and distraction count — a rule-based estimator, not a learned model.
package scoring

import (
	"math"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Component weights. Completion and focus carry 40 points each,
// distractions the remaining 20.
const (
	completionWeight  = 0.40
	focusWeight       = 0.40
	distractionWeight = 0.20

	// A full focus day is 8 hours; minutes beyond it earn nothing extra.
	fullFocusMinutes = 8 * 60

	// Each distraction costs 10% of the distraction component, capped at
	// 30%. Once the cap is hit, 14 of the 20 points are still guaranteed.
	distractionPenaltyPerEvent = 0.1
	distractionPenaltyCap      = 0.3
)

// Score computes the productivity score for a metric's counters.
//
// Edge cases are intentional: zero tasks created yields a zero completion
// component (never a division error), focus time is capped at 8 hours, and
// the distraction penalty floor keeps the distraction component at or above
// 0.14 no matter how many distractions occurred.
func Score(m model.ProductivityMetric) int {
	// A period with no recorded activity at all scores zero. Without this
	// guard the untouched distraction component alone would award 20 points
	// for doing nothing.
	if m.TasksCreated == 0 && m.TasksCompleted == 0 &&
		m.FocusTimeMinutes == 0 && m.DistractionEvents == 0 {
		return 0
	}

	created := m.TasksCreated
	if created < 1 {
		created = 1
	}
	completion := float64(m.TasksCompleted) / float64(created) * completionWeight

	focusRatio := float64(m.FocusTimeMinutes) / fullFocusMinutes
	if focusRatio > 1 {
		focusRatio = 1
	}
	focus := focusRatio * focusWeight

	penalty := float64(m.DistractionEvents) * distractionPenaltyPerEvent
	if penalty > distractionPenaltyCap {
		penalty = distractionPenaltyCap
	}
	distraction := (1 - penalty) * distractionWeight

	score := int(math.Round((completion + focus + distraction) * 100))
	// Completion ratios above 1 (more completions than creations in the
	// period) could push past the scale; the score stays within 0-100.
	if score > 100 {
		score = 100
	}
	return score
}

// Apply returns a copy of the metric with ProductivityScore filled in.
func Apply(m model.ProductivityMetric) model.ProductivityMetric {
	m.ProductivityScore = Score(m)
	return m
}
