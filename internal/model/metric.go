package model

import "time"

// ProductivityMetric is the counter set for one reporting period.
// It is a value object: assembled by collaborators from ledger and focus
// data, scored by the scorer, never stored.
type ProductivityMetric struct {
	PeriodStart                  time.Time `json:"period_start"`
	PeriodEnd                    time.Time `json:"period_end"`
	TasksCreated                 int       `json:"tasks_created"`
	TasksCompleted               int       `json:"tasks_completed"`
	FocusTimeMinutes             int       `json:"focus_time_minutes"`
	DistractionEvents            int       `json:"distraction_events"`
	AverageCompletionTimeMinutes float64   `json:"average_completion_time_minutes"`
	ProductivityScore            int       `json:"productivity_score"` // 0-100, filled by the scorer
}
