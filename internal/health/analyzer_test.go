package health_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-app/hibiki/internal/health"
	"github.com/hibiki-app/hibiki/internal/model"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func TestRecordSnapshotValidation(t *testing.T) {
	a := health.NewAnalyzer(0)

	require.NoError(t, a.RecordSnapshot("health", 70, day(0)))
	require.NoError(t, a.RecordSnapshot("health", 0, day(1)))
	require.NoError(t, a.RecordSnapshot("health", 100, day(2)))

	assert.ErrorIs(t, a.RecordSnapshot("health", 101, day(3)), model.ErrValidation)
	assert.ErrorIs(t, a.RecordSnapshot("health", -1, day(3)), model.ErrValidation)
	assert.ErrorIs(t, a.RecordSnapshot("", 50, day(3)), model.ErrValidation)
}

func TestRecordSnapshotRejectsOutOfOrder(t *testing.T) {
	a := health.NewAnalyzer(0)
	require.NoError(t, a.RecordSnapshot("health", 70, day(5)))

	err := a.RecordSnapshot("health", 80, day(4))
	require.ErrorIs(t, err, model.ErrOutOfOrderSnapshot)
	require.ErrorIs(t, err, model.ErrValidation)

	// Rejected write left no trace.
	require.Len(t, a.History("health"), 1)
	assert.Equal(t, 70.0, a.History("health")[0].Score)

	// Equal timestamps are accepted; ascending order still holds.
	require.NoError(t, a.RecordSnapshot("health", 75, day(5)))
	assert.Len(t, a.History("health"), 2)
}

func TestRetentionPrunesFromHead(t *testing.T) {
	a := health.NewAnalyzer(90)
	require.NoError(t, a.RecordSnapshot("career", 60, day(0)))
	require.NoError(t, a.RecordSnapshot("career", 65, day(30)))
	require.NoError(t, a.RecordSnapshot("career", 70, day(95))) // day(0) now older than 90 days

	got := a.History("career")
	require.Len(t, got, 2)
	assert.Equal(t, 65.0, got[0].Score)
	assert.Equal(t, 70.0, got[1].Score)
}

func TestTrendTwoPointRule(t *testing.T) {
	now := day(10)
	tests := []struct {
		name   string
		scores []float64
		want   model.Trend
	}{
		{"empty history", nil, model.TrendStable},
		{"single entry", []float64{70}, model.TrendStable},
		{"flat pair", []float64{70, 70}, model.TrendStable},
		{"rising pair", []float64{60, 80}, model.TrendImproving},
		{"falling pair", []float64{80, 60}, model.TrendDeclining},
		// Only the two most recent entries matter.
		{"dip then recovery", []float64{90, 40, 55}, model.TrendImproving},
		{"rise then slip", []float64{10, 80, 79}, model.TrendDeclining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := health.NewAnalyzer(0)
			for i, score := range tt.scores {
				require.NoError(t, a.RecordSnapshot("p", score, day(i)))
			}
			assert.Equal(t, tt.want, a.Trend("p", 30, now))
		})
	}
}

func TestTrendLookbackWindow(t *testing.T) {
	a := health.NewAnalyzer(0)
	require.NoError(t, a.RecordSnapshot("p", 90, day(0)))
	require.NoError(t, a.RecordSnapshot("p", 30, day(1)))
	require.NoError(t, a.RecordSnapshot("p", 50, day(20)))

	// Looking back 5 days from day 21 leaves one entry in the window.
	assert.Equal(t, model.TrendStable, a.Trend("p", 5, day(21)))
	// A wide window sees the last two entries: 30 -> 50.
	assert.Equal(t, model.TrendImproving, a.Trend("p", 30, day(21)))
}

func TestOverallHealth(t *testing.T) {
	a := health.NewAnalyzer(0)

	assert.Equal(t, 0.0, a.OverallHealth(nil))
	assert.Equal(t, 0.0, a.OverallHealth([]string{"health", "career"}))

	require.NoError(t, a.RecordSnapshot("health", 80, day(0)))
	require.NoError(t, a.RecordSnapshot("health", 60, day(1)))
	require.NoError(t, a.RecordSnapshot("career", 90, day(1)))

	// Mean of latest scores: (60 + 90) / 2. Pillar with no history is skipped.
	assert.InDelta(t, 75.0, a.OverallHealth([]string{"health", "career", "family"}), 1e-9)
}

func TestRestoreRoundTrip(t *testing.T) {
	a := health.NewAnalyzer(0)
	require.NoError(t, a.RecordSnapshot("health", 70, day(0)))
	require.NoError(t, a.RecordSnapshot("health", 75, day(1)))

	b := health.Restore(a.Snapshot(), 0)
	assert.Equal(t, a.History("health"), b.History("health"))

	// Restored analyzer enforces ordering against the persisted tail.
	assert.ErrorIs(t, b.RecordSnapshot("health", 80, day(0)), model.ErrOutOfOrderSnapshot)
	require.NoError(t, b.RecordSnapshot("health", 80, day(2)))
	assert.Len(t, b.History("health"), 3)
}
