package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateForPostalCode(t *testing.T) {
	cases := map[string]string{
		"10115": "Berlin",
		"01067": "Sachsen",
		"80331": "Bayern",
		"20095": "Hamburg",
		"28195": "Bremen",
		"99084": "Thüringen",
		"70173": "Baden-Württemberg",
	}
	for plz, want := range cases {
		got, ok := StateForPostalCode(plz)
		assert.True(t, ok, plz)
		assert.Equal(t, want, got, plz)
	}
	for _, bad := range []string{"05123", "11011", "1011", "abcde", ""} {
		_, ok := StateForPostalCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestAddressGeocodable(t *testing.T) {
	assert.True(t, Address{Street: "Unter den Linden 1"}.Geocodable())
	assert.True(t, Address{Line: "Unter den Linden 1, 10117 Berlin"}.Geocodable())
	assert.False(t, Address{Line: " 10117 "}.Geocodable())
	assert.False(t, Address{PostalCode: "10117", City: "Berlin"}.Geocodable())
}

func TestAddressPostalAndQuery(t *testing.T) {
	assert.Equal(t, "10117", Address{Line: "Unter den Linden 1, 10117 Berlin"}.Postal())
	assert.Equal(t, "80331", Address{PostalCode: "80331", Line: "10117"}.Postal())
	assert.Equal(t, "", Address{Line: "Hauptstr. 123456"}.Postal())
	assert.Equal(t, "Marienplatz 1, 80331 München", Address{Street: "Marienplatz 1", PostalCode: "80331", City: "München"}.Query())
	assert.Equal(t, "Marienplatz 1", Address{Street: "Marienplatz 1"}.Query())
}

func TestAddressDomestic(t *testing.T) {
	assert.True(t, Address{}.Domestic())
	assert.True(t, Address{Country: "Deutschland"}.Domestic())
	assert.True(t, Address{Country: "de"}.Domestic())
	assert.False(t, Address{Country: "FR"}.Domestic())
	assert.Equal(t, "DE", Address{}.CountryCode())
	assert.Equal(t, "AT", Address{Country: "at"}.CountryCode())
}
