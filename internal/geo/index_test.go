package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wahlkreis-api/internal/gov"
)

func loadTestIndex(t *testing.T) *Index {
	t.Helper()
	x, err := LoadIndex(filepath.Join("testdata", "federal.geojson"), filepath.Join("testdata", "states"), DefaultFields())
	require.NoError(t, err)
	return x
}

func TestLocateBerlinMitte(t *testing.T) {
	x := loadTestIndex(t)
	loc := x.Locate(52.5186, 13.3761)
	require.NotNil(t, loc.Federal)
	assert.Equal(t, "075", loc.Federal.Code())
	assert.Equal(t, gov.LevelFederal, loc.Federal.Level)
	assert.Equal(t, "Berlin", loc.Region())
	assert.Equal(t, "Berlin-Mitte", loc.Federal.Name)

	require.NotNil(t, loc.State)
	assert.Equal(t, gov.LevelState, loc.State.Level)
	assert.Equal(t, "002", loc.State.Code())
	assert.Equal(t, "Berlin", loc.State.Region)
}

func TestLocateOutsideCoverage(t *testing.T) {
	x := loadTestIndex(t)
	loc := x.Locate(48.8566, 2.3522) // Paris
	assert.Nil(t, loc.Federal)
	assert.Nil(t, loc.State)
	assert.Empty(t, loc.Region())
}

func TestLocateHoleBelongsToEnclave(t *testing.T) {
	x := loadTestIndex(t)
	loc := x.Locate(52.505, 13.41)
	require.NotNil(t, loc.Federal)
	assert.Equal(t, "077", loc.Federal.Code())
}

func TestLocateStringNumberAndLowercaseKeys(t *testing.T) {
	x := loadTestIndex(t)
	loc := x.Locate(52.60, 13.40)
	require.NotNil(t, loc.Federal)
	assert.Equal(t, "076", loc.Federal.Code())
	assert.Equal(t, "Berlin", loc.Federal.Region)
	assert.Nil(t, loc.State, "state layer does not cover Pankow")
}

func TestLocateMultiPolygonWithoutStateLayer(t *testing.T) {
	x := loadTestIndex(t)
	loc := x.Locate(52.32, 13.52)
	require.NotNil(t, loc.Federal)
	assert.Equal(t, "061", loc.Federal.Code())
	assert.Equal(t, "Brandenburg", loc.Region())
	assert.Nil(t, loc.State)
}

func TestLocateAtMostOneFederalID(t *testing.T) {
	x := loadTestIndex(t)
	for lat := 52.25; lat <= 52.70; lat += 0.013 {
		for lon := 12.85; lon <= 13.60; lon += 0.017 {
			hits := 0
			for i := range x.federal {
				if x.federal[i].Contains(Point{Lat: lat, Lon: lon}) {
					hits++
				}
			}
			assert.LessOrEqual(t, hits, 1, "lat=%f lon=%f", lat, lon)
			loc := x.Locate(lat, lon)
			assert.Equal(t, hits == 1, loc.Federal != nil)
		}
	}
}

func TestNearest(t *testing.T) {
	x := loadTestIndex(t)

	id, d, ok := x.Nearest(52.487, 13.35, 2)
	require.True(t, ok)
	assert.Equal(t, "075", id.Code())
	assert.Less(t, d, 0.5)

	_, _, ok = x.Nearest(52.40, 13.35, 2)
	assert.False(t, ok)

	_, _, ok = x.Nearest(48.8566, 2.3522, 2)
	assert.False(t, ok, "Paris is far outside coverage")

	_, _, ok = x.Nearest(52.487, 13.35, 0)
	assert.False(t, ok, "maxKm 0 disables the lookup")
}

func TestLoadIndexErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadIndex(filepath.Join(dir, "missing.geojson"), "", DefaultFields())
	assert.ErrorIs(t, err, gov.ErrBoundaryData)

	bad := filepath.Join(dir, "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte(`{"type":"FeatureCollection","features":[`), 0o644))
	_, err = LoadIndex(bad, "", DefaultFields())
	assert.ErrorIs(t, err, gov.ErrBoundaryData)

	noNum := filepath.Join(dir, "nonum.geojson")
	require.NoError(t, os.WriteFile(noNum, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"LAND_NAME":"Berlin"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`), 0o644))
	_, err = LoadIndex(noNum, "", DefaultFields())
	assert.ErrorIs(t, err, gov.ErrBoundaryData)

	empty := filepath.Join(dir, "empty.geojson")
	require.NoError(t, os.WriteFile(empty, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	_, err = LoadIndex(empty, "", DefaultFields())
	assert.ErrorIs(t, err, gov.ErrBoundaryData)
}

func TestLoadIndexMissingStateDirIsNotFatal(t *testing.T) {
	x, err := LoadIndex(filepath.Join("testdata", "federal.geojson"), filepath.Join(t.TempDir(), "nope"), DefaultFields())
	require.NoError(t, err)
	fed, states := x.Stats()
	assert.Equal(t, 4, fed)
	assert.Zero(t, states)
	assert.Nil(t, x.Locate(52.5186, 13.3761).State)
}

func TestGeohash(t *testing.T) {
	assert.Equal(t, "u33db", LogHash(52.5186, 13.3761))
	assert.Len(t, Geohash(0, 0, 8), 8)
}
