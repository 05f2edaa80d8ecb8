package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/paper-discovery-service/internal/config"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, &config.StorageConfig{Path: database.MemoryPath}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := database.NewMigrator(db, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	return NewSQLiteStore(db.SQL())
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	captured := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", Entry{Papers: samplePapers(), CapturedAt: captured}))
	entry, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, samplePapers(), entry.Papers)
	assert.True(t, captured.Equal(entry.CapturedAt))

	// overwrite
	later := captured.Add(time.Hour)
	require.NoError(t, store.Set(ctx, "k", Entry{Papers: nil, CapturedAt: later}))
	entry, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, entry.Papers)
	assert.True(t, later.Equal(entry.CapturedAt))

	require.NoError(t, store.Delete(ctx, "k"))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is not an error")
}

func TestSQLiteStore_WithCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(newSQLiteStore(t), Config{Now: clock.Now}, zerolog.Nop())

	c.Put(ctx, "graph neural networks", domain.SourceTypeDOAJ, samplePapers())

	clock.Advance(time.Hour)
	papers, ok := c.Get(ctx, "Graph Neural Networks", domain.SourceTypeDOAJ)
	require.True(t, ok)
	assert.Len(t, papers, 2)

	clock.Advance(24 * time.Hour)
	_, ok = c.Get(ctx, "graph neural networks", domain.SourceTypeDOAJ)
	assert.False(t, ok)
}
