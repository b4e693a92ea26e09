package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-app/hibiki/internal/energy"
	"github.com/hibiki-app/hibiki/internal/ledger"
	"github.com/hibiki-app/hibiki/internal/model"
	"github.com/hibiki-app/hibiki/internal/testutil"
)

type fakeDirectory struct {
	pillars []model.PillarInfo
}

func (d *fakeDirectory) Pillar(id string) (model.PillarInfo, bool) {
	for _, p := range d.pillars {
		if p.ID == id {
			return p, true
		}
	}
	return model.PillarInfo{}, false
}

func (d *fakeDirectory) Pillars() []model.PillarInfo { return d.pillars }

func testDirectory() *fakeDirectory {
	return &fakeDirectory{pillars: []model.PillarInfo{
		{ID: "health", Name: "Health & Wellness", WeeklyTargetHours: 7},
		{ID: "career", Name: "Career", WeeklyTargetHours: 21},
	}}
}

// Monday 2026-03-02.
var monday9 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (*ledger.Ledger, *energy.Store, *testutil.Clock) {
	t.Helper()
	store := energy.NewStore()
	clock := testutil.NewClock(monday9)
	return ledger.New(testDirectory(), store, clock.Now, testutil.TestLogger()), store, clock
}

func block(pillar string, start time.Time, dur time.Duration, lvl model.EnergyLevel) model.TimeBlock {
	return model.TimeBlock{
		PillarID:       pillar,
		Title:          "Block",
		StartTime:      start,
		EndTime:        start.Add(dur),
		EnergyRequired: lvl,
	}
}

func TestScheduleAssignsIDAndStatus(t *testing.T) {
	l, _, _ := newLedger(t)
	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.Equal(t, model.StatusPlanned, b.Status)
	assert.Equal(t, monday9, b.CreatedAt)
}

func TestScheduleRejectsInvalidBlock(t *testing.T) {
	l, _, _ := newLedger(t)

	bad := block("health", monday9, time.Hour, model.EnergyHigh)
	bad.EndTime = bad.StartTime
	_, err := l.Schedule(bad)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = l.Schedule(block("nonexistent", monday9, time.Hour, model.EnergyLow))
	require.ErrorIs(t, err, model.ErrValidation)

	// Ledger unchanged after rejections.
	assert.Empty(t, l.DailyBlocksFor(monday9))
	assert.Empty(t, l.Blocks())
}

func TestStartOnlyFromPlanned(t *testing.T) {
	l, _, clock := newLedger(t)
	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyMedium))
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	started, err := l.Start(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, started.Status)
	require.NotNil(t, started.ActualStartTime)
	assert.Equal(t, monday9.Add(5*time.Minute), *started.ActualStartTime)

	_, err = l.Start(b.ID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = l.Start(uuid.New())
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCompleteFromPlannedOrActive(t *testing.T) {
	l, _, clock := newLedger(t)

	// planned -> completed directly (start was never pressed).
	a, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyLow))
	require.NoError(t, err)
	done, err := l.Complete(a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.ActualStartTime)

	// planned -> active -> completed with notes.
	b, err := l.Schedule(block("career", monday9.Add(2*time.Hour), time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	_, err = l.Start(b.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	notes := "deep work"
	done, err = l.Complete(b.ID, &notes)
	require.NoError(t, err)
	require.NotNil(t, done.Notes)
	assert.Equal(t, "deep work", *done.Notes)

	// completed is terminal.
	_, err = l.Complete(b.ID, nil)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = l.MarkMissed(b.ID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestCompleteDerivesEnergySample(t *testing.T) {
	l, store, clock := newLedger(t)

	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	_, err = l.Start(b.ID) // actual start at 09:00 Monday
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = l.Complete(b.ID, nil)
	require.NoError(t, err)

	// high -> level 8 folded into (hour 9, Monday=1).
	p := store.Profile(9, 1)
	assert.Equal(t, 1, p.SampleSize)
	assert.InDelta(t, 8.0, p.Average, 1e-9)
}

func TestCompleteWithoutStartSamplesCompletionTime(t *testing.T) {
	l, store, clock := newLedger(t)

	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyMedium))
	require.NoError(t, err)
	clock.Advance(13 * time.Hour) // completes at 22:00 Monday
	_, err = l.Complete(b.ID, nil)
	require.NoError(t, err)

	p := store.Profile(22, 1)
	assert.Equal(t, 1, p.SampleSize)
	assert.InDelta(t, 5.0, p.Average, 1e-9)
}

func TestMarkMissed(t *testing.T) {
	l, _, _ := newLedger(t)
	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyLow))
	require.NoError(t, err)

	missed, err := l.MarkMissed(b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusMissed, missed.Status)

	// missed is terminal.
	_, err = l.Start(b.ID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	_, err = l.Complete(b.ID, nil)
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestDailyBlocksForSortsAndFilters(t *testing.T) {
	l, _, _ := newLedger(t)

	late, err := l.Schedule(block("health", monday9.Add(8*time.Hour), time.Hour, model.EnergyLow))
	require.NoError(t, err)
	early, err := l.Schedule(block("career", monday9, time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	_, err = l.Schedule(block("career", monday9.AddDate(0, 0, 1), time.Hour, model.EnergyHigh))
	require.NoError(t, err)

	got := l.DailyBlocksFor(monday9.Add(30 * time.Minute))
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}

func TestPillarAllocation(t *testing.T) {
	l, _, _ := newLedger(t)

	b1, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	_, err = l.Schedule(block("health", monday9.Add(2*time.Hour), 90*time.Minute, model.EnergyLow))
	require.NoError(t, err)
	// Next-day block must not count toward Monday.
	_, err = l.Schedule(block("health", monday9.AddDate(0, 0, 1), time.Hour, model.EnergyLow))
	require.NoError(t, err)

	_, err = l.Complete(b1.ID, nil)
	require.NoError(t, err)

	allocs := l.PillarAllocation(monday9)
	require.Len(t, allocs, 2)

	// Sorted by pillar ID: career before health.
	career, healthAlloc := allocs[0], allocs[1]
	assert.Equal(t, "career", career.Pillar.ID)
	assert.Equal(t, 0.0, career.PlannedHours)
	assert.InDelta(t, 3.0, career.TargetHours, 1e-9)

	assert.Equal(t, "health", healthAlloc.Pillar.ID)
	assert.InDelta(t, 2.5, healthAlloc.PlannedHours, 1e-9) // planned counts every status
	assert.InDelta(t, 1.0, healthAlloc.CompletedHours, 1e-9)
	assert.InDelta(t, 1.0, healthAlloc.TargetHours, 1e-9)
}

func TestRestoreKeepsLifecycleState(t *testing.T) {
	l, _, _ := newLedger(t)
	b, err := l.Schedule(block("health", monday9, time.Hour, model.EnergyHigh))
	require.NoError(t, err)
	_, err = l.Start(b.ID)
	require.NoError(t, err)

	store := energy.NewStore()
	clock := testutil.NewClock(monday9.Add(time.Hour))
	restored := ledger.Restore(l.Blocks(), testDirectory(), store, clock.Now, testutil.TestLogger())

	got, ok := restored.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusActive, got.Status)

	// Lifecycle continues where it left off.
	_, err = restored.Complete(b.ID, nil)
	require.NoError(t, err)
	_, err = restored.Complete(b.ID, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}
