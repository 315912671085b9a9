package gov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistrictCode(t *testing.T) {
	assert.Equal(t, "075", DistrictID{Level: LevelFederal, Number: 75}.Code())
	assert.Equal(t, "001", DistrictID{Level: LevelState, Number: 1}.Code())
	assert.Equal(t, "DE", EUDistrict().Code())
}

func TestScopeExhaustive(t *testing.T) {
	for _, s := range AllScopes {
		assert.NotPanics(t, func() { _ = s.Level() })
		assert.NotPanics(t, func() { _ = s.DirectMandate() })
		parsed, err := ParseScope(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Panics(t, func() { _ = Scope(99).Level() })
}

func TestScopeLevels(t *testing.T) {
	assert.Equal(t, LevelFederal, ScopeFederalDistrict.Level())
	assert.Equal(t, LevelFederal, ScopeFederalList.Level())
	assert.Equal(t, LevelState, ScopeStateList.Level())
	assert.Equal(t, LevelEU, ScopeEUAtLarge.Level())
	assert.True(t, ScopeStateDistrict.DirectMandate())
	assert.False(t, ScopeEUAtLarge.DirectMandate())
}

func TestParseLevelAliases(t *testing.T) {
	for in, want := range map[string]Level{"bund": LevelFederal, "Land": LevelState, "kommune": LevelLocal, "EU": LevelEU} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("galaxy")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRestrictivenessOrder(t *testing.T) {
	assert.Greater(t, LevelLocal.Restrictiveness(), LevelState.Restrictiveness())
	assert.Greater(t, LevelState.Restrictiveness(), LevelFederal.Restrictiveness())
	assert.Greater(t, LevelFederal.Restrictiveness(), LevelEU.Restrictiveness())
}

func TestCanonicalRegion(t *testing.T) {
	assert.Equal(t, "Berlin", CanonicalRegion("BE"))
	assert.Equal(t, "Thüringen", CanonicalRegion("Thueringen"))
	assert.Equal(t, "Baden-Württemberg", CanonicalRegion(" baden-württemberg "))
	assert.Equal(t, "Atlantis", CanonicalRegion("Atlantis"))
}
