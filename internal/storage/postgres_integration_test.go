package storage_test

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibiki-app/hibiki/internal/model"
	"github.com/hibiki-app/hibiki/internal/storage"
	"github.com/hibiki-app/hibiki/internal/testutil"
)

// pgDSN is set by TestMain when the container starts; empty means the
// integration tests are skipped (go test -short).
var pgDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	pc := testutil.MustStartPostgres()
	pgDSN = pc.DSN
	code := m.Run()
	pc.Terminate()
	os.Exit(code)
}

func newPostgresStore(t *testing.T) *storage.PostgresStore {
	t.Helper()
	if pgDSN == "" {
		t.Skip("skipping postgres integration test in short mode")
	}
	store, err := storage.NewPostgres(context.Background(), pgDSN, testutil.TestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Blocks)

	want := testSnapshot()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Profiles, len(want.Profiles))
	assert.Len(t, got.Blocks, len(want.Blocks))
	assert.Len(t, got.Health["health"], 2)
	require.Len(t, got.Suggestions, 1)

	// Timestamps come back in the server zone; compare instants.
	assert.True(t, got.Blocks[0].StartTime.Equal(want.Blocks[0].StartTime))
	assert.Equal(t, want.Blocks[0].Status, got.Blocks[0].Status)
	assert.Equal(t, want.Suggestions[0].Signature, got.Suggestions[0].Signature)
	assert.True(t, got.Suggestions[0].Dismissed)
}

func TestPostgresSaveReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newPostgresStore(t)

	require.NoError(t, store.Save(ctx, testSnapshot()))

	second := storage.Empty()
	second.Profiles[model.Bucket{Hour: 6, Day: 3}] = model.EnergyProfile{Average: 7, SampleSize: 1}
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Profiles, 1)
	assert.Empty(t, got.Blocks)
	assert.Empty(t, got.Suggestions)
}
