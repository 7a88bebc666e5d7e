package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_RoundsToFourDecimals(t *testing.T) {
	tests := []struct {
		name string
		in   Coordinate
		want CacheKey
	}{
		{"paris", Coordinate{Latitude: 48.856613, Longitude: 2.352222}, "48.8566,2.3522"},
		{"exact", Coordinate{Latitude: 48.8566, Longitude: 2.3522}, "48.8566,2.3522"},
		{"trailing zeros dropped", Coordinate{Latitude: 12.97, Longitude: 77.59}, "12.97,77.59"},
		{"integer", Coordinate{Latitude: 10, Longitude: -20}, "10,-20"},
		{"southern and western", Coordinate{Latitude: -33.868820, Longitude: -151.209296}, "-33.8688,-151.2093"},
		{"half away from zero", Coordinate{Latitude: 0.00005, Longitude: -0.00005}, "0.0001,-0.0001"},
		{"negative zero", Coordinate{Latitude: -0.00001, Longitude: 0}, "0,0"},
		{"out of range passes through", Coordinate{Latitude: 123.45678, Longitude: 999}, "123.4568,999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.in))
		})
	}
}

func TestKey_NearbyCoordinatesCollapse(t *testing.T) {
	base := Coordinate{Latitude: 48.85661, Longitude: 2.35221}
	near := Coordinate{Latitude: 48.85663, Longitude: 2.35224}

	assert.Equal(t, Key(base), Key(near))
}

func TestKey_Deterministic(t *testing.T) {
	c := Coordinate{Latitude: 37.774929, Longitude: -122.419416}
	first := Key(c)
	for range 10 {
		assert.Equal(t, first, Key(c))
	}
}

func TestKey_LatitudeFirst(t *testing.T) {
	assert.NotEqual(t,
		Key(Coordinate{Latitude: 1.5, Longitude: 2.5}),
		Key(Coordinate{Latitude: 2.5, Longitude: 1.5}),
	)
}

func TestFallbackKeys(t *testing.T) {
	keys := FallbackKeys(Coordinate{Latitude: 12.9716, Longitude: 77.5946})
	assert.Equal(t, []CacheKey{"12.972,77.595", "12.97,77.59"}, keys)
}
