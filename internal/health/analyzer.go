// Package health tracks per-pillar health-score time series and classifies
// their trend. The analyzer owns each pillar's history exclusively: entries
// are appended in timestamp order and pruned only from the head by the
// retention policy.
package health

import (
	"time"

	"github.com/hibiki-app/hibiki/internal/model"
)

// DefaultRetentionDays is how long health history is kept.
const DefaultRetentionDays = 90

// Analyzer maintains health histories for any number of pillars.
// Out-of-order snapshots are rejected, not re-sorted: history order is part
// of the persisted contract, and a rejected write has no side effects.
type Analyzer struct {
	history       map[string][]model.HealthPoint
	retentionDays int
}

// NewAnalyzer creates an empty analyzer. retentionDays <= 0 selects the
// default 90-day window.
func NewAnalyzer(retentionDays int) *Analyzer {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Analyzer{
		history:       make(map[string][]model.HealthPoint),
		retentionDays: retentionDays,
	}
}

// Restore creates an analyzer from persisted history. Each pillar's slice
// must already be ascending by timestamp; the slices are copied.
func Restore(history map[string][]model.HealthPoint, retentionDays int) *Analyzer {
	a := NewAnalyzer(retentionDays)
	for id, points := range history {
		a.history[id] = append([]model.HealthPoint(nil), points...)
	}
	return a
}

// RecordSnapshot appends a health observation for a pillar.
// The score must be in [0,100] and the timestamp must not precede the
// pillar's latest entry (equal timestamps are accepted — ascending order is
// preserved either way). On every successful write, entries older than the
// retention window relative to the new timestamp are pruned from the head.
func (a *Analyzer) RecordSnapshot(pillarID string, score float64, ts time.Time) error {
	if pillarID == "" {
		return model.Invalidf("pillar_id", "is required")
	}
	if err := model.ValidateHealthScore(score); err != nil {
		return err
	}
	points := a.history[pillarID]
	if n := len(points); n > 0 && ts.Before(points[n-1].Timestamp) {
		return &model.OutOfOrderSnapshotError{PillarID: pillarID}
	}

	points = append(points, model.HealthPoint{Score: score, Timestamp: ts})

	cutoff := ts.AddDate(0, 0, -a.retentionDays)
	firstKept := 0
	for firstKept < len(points) && points[firstKept].Timestamp.Before(cutoff) {
		firstKept++
	}
	a.history[pillarID] = points[firstKept:]
	return nil
}

// Trend classifies a pillar's trajectory over the lookback window ending at
// now. Fewer than two entries in the window reads as stable; otherwise the
// two most recent entries are compared directly. The two-point rule is
// deliberate — no smoothing.
func (a *Analyzer) Trend(pillarID string, lookbackDays int, now time.Time) model.Trend {
	cutoff := now.AddDate(0, 0, -lookbackDays)
	var window []model.HealthPoint
	for _, p := range a.history[pillarID] {
		if !p.Timestamp.Before(cutoff) && !p.Timestamp.After(now) {
			window = append(window, p)
		}
	}
	if len(window) < 2 {
		return model.TrendStable
	}
	latest := window[len(window)-1].Score
	previous := window[len(window)-2].Score
	switch {
	case latest > previous:
		return model.TrendImproving
	case latest < previous:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

// Latest returns a pillar's most recent health point, if any.
func (a *Analyzer) Latest(pillarID string) (model.HealthPoint, bool) {
	points := a.history[pillarID]
	if len(points) == 0 {
		return model.HealthPoint{}, false
	}
	return points[len(points)-1], true
}

// OverallHealth is the arithmetic mean of the latest score of each listed
// pillar. Pillars with no history are skipped; an empty result reads as 0,
// not an error — rendering "no data" is the caller's concern.
func (a *Analyzer) OverallHealth(pillarIDs []string) float64 {
	var sum float64
	var n int
	for _, id := range pillarIDs {
		if p, ok := a.Latest(id); ok {
			sum += p.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// History returns a copy of a pillar's health series.
func (a *Analyzer) History(pillarID string) []model.HealthPoint {
	return append([]model.HealthPoint(nil), a.history[pillarID]...)
}

// Snapshot returns a deep copy of all histories for persistence.
func (a *Analyzer) Snapshot() map[string][]model.HealthPoint {
	out := make(map[string][]model.HealthPoint, len(a.history))
	for id, points := range a.history {
		out[id] = append([]model.HealthPoint(nil), points...)
	}
	return out
}
