package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahlkreis-api/internal/config"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/resolve"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("REDIS_ENABLE", "false")
	logger.Use(logger.Discard())
	return config.Config{
		GeocodeBaseURL:      "http://127.0.0.1:1",
		GeocodeTimeout:      time.Second,
		GeocodeCacheBackend: "sqlite",
		GeocodeSQLitePath:   filepath.Join(t.TempDir(), "geocode.db"),
		GeocodeMemorySize:   100,
		BoundaryFederalPath: filepath.Join("..", "geo", "testdata", "federal.geojson"),
		BoundaryStateDir:    filepath.Join("..", "geo", "testdata", "states"),
		ResolveNearestMaxKm: 2,
		CatalogBackend:      "fixture",
		CatalogFixturePath:  filepath.Join("..", "catalog", "testdata", "catalog.yaml"),
		Weights:             config.DefaultWeights(),
	}
}

func TestBuild(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Equal(t, []string{"memory", "sqlite"}, a.CacheTiers)
	assert.Nil(t, a.GeoIP)
	fed, _ := a.Index.Stats()
	assert.Positive(t, fed)

	res := a.Resolver.Resolve(context.Background(), resolve.Address{PostalCode: "10115"})
	assert.Equal(t, resolve.ConfidenceCoarse, res.Confidence)
	assert.NotEmpty(t, res.Constituencies)

	cls := a.Classifier.Classify("Zu hohe Mieten")
	assert.Equal(t, gov.LevelState, cls.InferredLevel)
}

func TestBuildFailsWithoutBoundaries(t *testing.T) {
	cfg := testConfig(t)
	cfg.BoundaryFederalPath = filepath.Join(t.TempDir(), "missing.geojson")
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeocodeCacheBackend = "memory"
	cfg.CatalogFixturePath = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.GeoIPPath = filepath.Join(t.TempDir(), "missing.mmdb")

	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, []string{"memory"}, a.CacheTiers)
	assert.Nil(t, a.GeoIP)
	res := a.Resolver.Resolve(context.Background(), resolve.Address{PostalCode: "10115"})
	assert.Empty(t, res.Constituencies)
	assert.NotEmpty(t, res.Warnings)
}
