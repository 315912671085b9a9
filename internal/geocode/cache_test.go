package geocode

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahlkreis-api/internal/migrate"
	"wahlkreis-api/internal/utils"
)

func openSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()
	ctx := context.Background()
	db, err := utils.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cache", "geocode.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.EnsureSQLiteCache(ctx, db))
	return NewSQLiteCache(db)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hauptstrasse 5 muenchen", Normalize("Hauptstraße 5,  München"))
	assert.Equal(t, "a b", Normalize(" A;\tb "))
	assert.Equal(t, Key("Hauptstraße 5", "DE"), Key("hauptstrasse   5", "de"))
	assert.NotEqual(t, Key("Hauptstraße 5", "DE"), Key("Hauptstraße 5", "AT"))
	assert.Len(t, Key("x", ""), 64)
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	c := openSQLiteCache(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, Entry{Key: "k1", Lat: 52.5, Lon: 13.4, Success: true, CreatedAt: at, UpdatedAt: at}))
	e, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Success)
	assert.Equal(t, 52.5, e.Lat)
	assert.True(t, at.Equal(e.CreatedAt))

	// 成功条目不可被覆盖
	require.NoError(t, c.Put(ctx, Entry{Key: "k1", Reason: ReasonNoMatch, CreatedAt: at, UpdatedAt: at.Add(time.Hour)}))
	e, _, _ = c.Get(ctx, "k1")
	assert.True(t, e.Success)
}

func TestSQLiteCacheFailureReplacedByNewer(t *testing.T) {
	c := openSQLiteCache(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, c.Put(ctx, Entry{Key: "k2", Reason: ReasonNoMatch, CreatedAt: at, UpdatedAt: at}))
	// 相同时间的重复写入被忽略
	require.NoError(t, c.Put(ctx, Entry{Key: "k2", Reason: ReasonUnavailable, CreatedAt: at, UpdatedAt: at}))
	e, _, _ := c.Get(ctx, "k2")
	assert.Equal(t, ReasonNoMatch, e.Reason)

	later := at.Add(48 * time.Hour)
	require.NoError(t, c.Put(ctx, Entry{Key: "k2", Success: true, Lat: 1, Lon: 2, CreatedAt: at, UpdatedAt: later}))
	e, _, _ = c.Get(ctx, "k2")
	assert.True(t, e.Success)
	assert.True(t, at.Equal(e.CreatedAt))
	assert.True(t, later.Equal(e.UpdatedAt))
}

func TestChainCacheBackfillsUpperTier(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryCache(8)
	require.NoError(t, err)
	durable := openSQLiteCache(t)
	at := time.Now().UTC()
	require.NoError(t, durable.Put(ctx, Entry{Key: "k3", Success: true, Lat: 48.1, Lon: 11.5, CreatedAt: at, UpdatedAt: at}))

	chain := NewChainCache(Tier{"memory", mem}, Tier{"redis", nil}, Tier{"sqlite", durable})
	assert.Equal(t, []string{"memory", "sqlite"}, chain.Names())

	e, ok, err := chain.Get(ctx, "k3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 48.1, e.Lat)

	up, ok, _ := mem.Get(ctx, "k3")
	require.True(t, ok)
	assert.Equal(t, 11.5, up.Lon)

	require.NoError(t, chain.Put(ctx, Entry{Key: "k4", Reason: ReasonNoMatch, CreatedAt: at, UpdatedAt: at}))
	_, ok, _ = durable.Get(ctx, "k4")
	assert.True(t, ok)
}

func TestLocalThrottleSpacesCalls(t *testing.T) {
	th := NewLocalThrottle(40 * time.Millisecond)
	ctx := context.Background()
	t0 := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(t0), 75*time.Millisecond)
}

func TestLocalThrottleHonoursCancellation(t *testing.T) {
	th := NewLocalThrottle(time.Hour)
	require.NoError(t, th.Wait(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, th.Wait(ctx))
}
