//go:build integration

package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahlkreis-api/internal/testutil/containers"
	"wahlkreis-api/internal/utils"
)

// cacheContract 所有持久层共同遵守的写入语义
func cacheContract(t *testing.T, c Cache) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	_, ok, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, Entry{Key: "ok", Lat: 52.5186, Lon: 13.3761, Success: true, CreatedAt: at, UpdatedAt: at}))
	require.NoError(t, c.Put(ctx, Entry{Key: "ok", Reason: ReasonNoMatch, CreatedAt: at, UpdatedAt: at.Add(time.Hour)}))
	e, ok, err := c.Get(ctx, "ok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Success, "success entries are immutable")
	assert.InDelta(t, 52.5186, e.Lat, 1e-9)

	require.NoError(t, c.Put(ctx, Entry{Key: "fail", Reason: ReasonUnavailable, CreatedAt: at, UpdatedAt: at}))
	require.NoError(t, c.Put(ctx, Entry{Key: "fail", Reason: ReasonNoMatch, CreatedAt: at, UpdatedAt: at}))
	e, _, _ = c.Get(ctx, "fail")
	assert.Equal(t, ReasonUnavailable, e.Reason, "same timestamp does not replace")

	later := at.Add(24 * time.Hour)
	require.NoError(t, c.Put(ctx, Entry{Key: "fail", Success: true, Lat: 1, Lon: 2, CreatedAt: later, UpdatedAt: later}))
	e, _, _ = c.Get(ctx, "fail")
	assert.True(t, e.Success)
	assert.True(t, later.Equal(e.UpdatedAt))
}

func TestPostgresCacheIntegration(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	cacheContract(t, NewPostgresCache(utils.Raw(pg.DB)))
}

func TestRedisCacheIntegration(t *testing.T) {
	r := containers.NewRedisContainer(t)
	cacheContract(t, NewRedisCache(r.Client, "test:geocode:"))
}

func TestRedisThrottleAcrossInstances(t *testing.T) {
	r := containers.NewRedisContainer(t)
	ctx := context.Background()
	a := NewRedisThrottle(r.Client, "test:throttle", 150*time.Millisecond)
	b := NewRedisThrottle(r.Client, "test:throttle", 150*time.Millisecond)

	require.NoError(t, a.Wait(ctx))
	t0 := time.Now()
	require.NoError(t, b.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(t0), 100*time.Millisecond)
}
