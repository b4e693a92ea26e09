package hibiki_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-app/hibiki"
	"github.com/hibiki-app/hibiki/internal/testutil"
)

// monday9 is a Monday (time.Weekday == 1).
var monday9 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testPillars() []hibiki.Pillar {
	return []hibiki.Pillar{
		{ID: "health", Name: "Health & Wellness", WeeklyTargetHours: 7},
		{ID: "career", Name: "Career & Growth", WeeklyTargetHours: 21},
	}
}

func newEngine(t *testing.T, clock *testutil.Clock) *hibiki.Engine {
	t.Helper()
	eng, err := hibiki.New(
		hibiki.WithSQLitePath(":memory:"),
		hibiki.WithPillars(testPillars()),
		hibiki.WithClock(clock),
		hibiki.WithLogger(testutil.TestLogger()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return eng
}

func TestBlockLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(monday9.Add(-time.Hour))
	eng := newEngine(t, clock)

	block, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
		PillarID: "career",
		Title:    "Deep work",
		Start:    monday9,
		End:      monday9.Add(2 * time.Hour),
		Energy:   hibiki.EnergyHigh,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, block.ID)
	assert.Equal(t, hibiki.StatusPlanned, block.Status)

	clock.Set(monday9)
	block, err = eng.StartBlock(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, hibiki.StatusActive, block.Status)
	require.NotNil(t, block.ActualStartTime)

	clock.Advance(2 * time.Hour)
	notes := "good session"
	block, err = eng.CompleteBlock(ctx, block.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, hibiki.StatusCompleted, block.Status)
	require.NotNil(t, block.Notes)
	assert.Equal(t, "good session", *block.Notes)

	// Completion feeds a derived sample into the 9:00 Monday bucket:
	// a high-energy block samples level 8.
	profile := eng.EnergyProfileAt(9, 1)
	assert.Equal(t, 1, profile.SampleSize)
	assert.InDelta(t, 8.0, profile.Average, 1e-9)

	// Terminal states reject further transitions.
	_, err = eng.StartBlock(ctx, block.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, hibiki.ErrInvalidTransition)
	assert.ErrorIs(t, err, hibiki.ErrValidation)
}

func TestScheduleBlockValidation(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, testutil.NewClock(monday9))

	_, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
		PillarID: "unknown",
		Title:    "Nope",
		Start:    monday9,
		End:      monday9.Add(time.Hour),
		Energy:   hibiki.EnergyLow,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, hibiki.ErrValidation)

	_, err = eng.Block(uuid.New())
	assert.ErrorIs(t, err, hibiki.ErrNotFound)
}

func TestRecordEnergySample(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t, testutil.NewClock(monday9))

	require.NoError(t, eng.RecordEnergySample(ctx, 9, 1, 9))
	require.NoError(t, eng.RecordEnergySample(ctx, 9, 1, 7))

	profile := eng.EnergyProfileAt(9, 1)
	assert.Equal(t, 2, profile.SampleSize)
	assert.InDelta(t, 8.0, profile.Average, 1e-9)

	// Cold bucket stays neutral.
	cold := eng.EnergyProfileAt(3, 4)
	assert.Equal(t, 0, cold.SampleSize)
	assert.InDelta(t, 5.0, cold.Average, 1e-9)

	err := eng.RecordEnergySample(ctx, 24, 1, 5)
	assert.ErrorIs(t, err, hibiki.ErrValidation)
}

func TestHealthSnapshotsAndTrend(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(monday9)
	eng := newEngine(t, clock)

	require.NoError(t, eng.RecordHealthSnapshot(ctx, "career", 60, monday9.AddDate(0, 0, -2)))
	require.NoError(t, eng.RecordHealthSnapshot(ctx, "career", 80, monday9.AddDate(0, 0, -1)))

	assert.Equal(t, hibiki.TrendImproving, eng.PillarTrend("career", 14))

	// Out-of-order snapshots are rejected.
	err := eng.RecordHealthSnapshot(ctx, "career", 70, monday9.AddDate(0, 0, -5))
	require.Error(t, err)
	assert.ErrorIs(t, err, hibiki.ErrOutOfOrderSnapshot)

	// Only career has history, so the overall mean ignores health.
	assert.InDelta(t, 80.0, eng.OverallHealth(), 1e-9)

	summary := eng.PillarHealthSummary()
	require.Len(t, summary, 2)
	assert.False(t, summary[0].HasData) // health
	assert.True(t, summary[1].HasData)  // career
	assert.Equal(t, hibiki.TrendImproving, summary[1].Trend)
}

func TestScoreMetrics(t *testing.T) {
	eng := newEngine(t, testutil.NewClock(monday9))

	scored := eng.ScoreMetrics(hibiki.ProductivityMetric{
		TasksCreated:      4,
		TasksCompleted:    4,
		FocusTimeMinutes:  480,
		DistractionEvents: 0,
	})
	assert.Equal(t, 100, scored.ProductivityScore)

	zero := eng.ScoreMetrics(hibiki.ProductivityMetric{})
	assert.Equal(t, 0, zero.ProductivityScore)
}

func TestSuggestionsGenerateAndDismiss(t *testing.T) {
	ctx := context.Background()
	clock := testutil.NewClock(monday9)
	eng := newEngine(t, clock)

	// Career is far behind its 3h daily target with nothing scheduled.
	suggestions := eng.GenerateSuggestions(ctx, monday9)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, hibiki.SuggestPillarDeficit, suggestions[0].Type)

	eng.DismissSuggestion(ctx, suggestions[0].ID)
	// Dismissal is idempotent and unknown IDs are no-ops.
	eng.DismissSuggestion(ctx, suggestions[0].ID)
	eng.DismissSuggestion(ctx, uuid.New())

	// Within the cooldown the same signature is suppressed.
	regenerated := eng.GenerateSuggestions(ctx, monday9)
	for _, s := range regenerated {
		assert.NotEqual(t, suggestions[0].Type, s.Type)
	}

	// After the cooldown lapses it may come back.
	clock.Advance(8 * 24 * time.Hour)
	later := eng.GenerateSuggestions(ctx, clock.Now().Add(time.Hour))
	found := false
	for _, s := range later {
		if s.Type == hibiki.SuggestPillarDeficit {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/hibiki.db"
	clock := testutil.NewClock(monday9)

	open := func() *hibiki.Engine {
		eng, err := hibiki.New(
			hibiki.WithSQLitePath(path),
			hibiki.WithPillars(testPillars()),
			hibiki.WithClock(clock),
			hibiki.WithLogger(testutil.TestLogger()),
		)
		require.NoError(t, err)
		return eng
	}

	eng := open()
	block, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
		PillarID: "health",
		Title:    "Run",
		Start:    monday9,
		End:      monday9.Add(time.Hour),
		Energy:   hibiki.EnergyMedium,
	})
	require.NoError(t, err)
	require.NoError(t, eng.RecordEnergySample(ctx, 7, 1, 8))
	require.NoError(t, eng.RecordHealthSnapshot(ctx, "health", 72, monday9))
	require.NoError(t, eng.Close(ctx))

	reopened := open()
	defer reopened.Close(ctx)

	restored, err := reopened.Block(block.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", restored.Title)
	assert.Equal(t, hibiki.StatusPlanned, restored.Status)

	profile := reopened.EnergyProfileAt(7, 1)
	assert.Equal(t, 1, profile.SampleSize)

	history := reopened.HealthHistory("health")
	require.Len(t, history, 1)
	assert.InDelta(t, 72.0, history[0].Score, 1e-9)
}

// memStore is an in-memory SnapshotStore for exercising WithStore.
type memStore struct {
	mu   sync.Mutex
	last *hibiki.Snapshot
}

func (m *memStore) Load(ctx context.Context) (*hibiki.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, nil
}

func (m *memStore) Save(ctx context.Context, snap *hibiki.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = snap
	return nil
}

func (m *memStore) Close(ctx context.Context) error { return nil }

func TestWithStoreOverride(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	clock := testutil.NewClock(monday9)

	open := func() *hibiki.Engine {
		eng, err := hibiki.New(
			hibiki.WithStore(store),
			hibiki.WithPillars(testPillars()),
			hibiki.WithClock(clock),
			hibiki.WithLogger(testutil.TestLogger()),
		)
		require.NoError(t, err)
		return eng
	}

	eng := open()
	block, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
		PillarID: "health",
		Title:    "Stretch",
		Start:    monday9,
		End:      monday9.Add(30 * time.Minute),
		Energy:   hibiki.EnergyLow,
	})
	require.NoError(t, err)
	require.NoError(t, eng.Close(ctx))

	store.mu.Lock()
	require.NotNil(t, store.last)
	require.Len(t, store.last.Blocks, 1)
	assert.Equal(t, block.ID, store.last.Blocks[0].ID)
	store.mu.Unlock()

	// A new engine over the same store restores the block.
	reopened := open()
	defer reopened.Close(ctx)
	restored, err := reopened.Block(block.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stretch", restored.Title)
}

// recordingHook captures hook invocations for assertions.
type recordingHook struct {
	completed chan hibiki.TimeBlock
}

func (h *recordingHook) OnBlockCompleted(ctx context.Context, block hibiki.TimeBlock) error {
	h.completed <- block
	return nil
}

func (h *recordingHook) OnSuggestionsGenerated(ctx context.Context, suggestions []hibiki.Suggestion) error {
	return nil
}

func TestEventHookFiresOnCompletion(t *testing.T) {
	ctx := context.Background()
	hook := &recordingHook{completed: make(chan hibiki.TimeBlock, 1)}
	clock := testutil.NewClock(monday9)

	eng, err := hibiki.New(
		hibiki.WithSQLitePath(":memory:"),
		hibiki.WithPillars(testPillars()),
		hibiki.WithClock(clock),
		hibiki.WithLogger(testutil.TestLogger()),
		hibiki.WithEventHook(hook),
	)
	require.NoError(t, err)
	defer eng.Close(ctx)

	block, err := eng.ScheduleBlock(ctx, hibiki.ScheduleRequest{
		PillarID: "career",
		Title:    "Writing",
		Start:    monday9,
		End:      monday9.Add(time.Hour),
		Energy:   hibiki.EnergyMedium,
	})
	require.NoError(t, err)
	_, err = eng.CompleteBlock(ctx, block.ID, nil)
	require.NoError(t, err)

	select {
	case got := <-hook.completed:
		assert.Equal(t, block.ID, got.ID)
		assert.Equal(t, hibiki.StatusCompleted, got.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("hook was not invoked")
	}
}
