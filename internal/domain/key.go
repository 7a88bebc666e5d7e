package domain

import (
	"math"
	"strconv"
)

// KeyPrecision is the number of decimal places kept in a CacheKey (~11 m).
const KeyPrecision = 4

// CacheKey identifies a cached place name, formatted "<lat>,<lng>".
type CacheKey string

// Key derives the cache key for c at KeyPrecision decimal places.
func Key(c Coordinate) CacheKey {
	return KeyAt(c, KeyPrecision)
}

// KeyAt derives a cache key rounded to the given number of decimal places.
// Out-of-range coordinates are not validated.
func KeyAt(c Coordinate, places int) CacheKey {
	return CacheKey(formatComponent(c.Latitude, places) + "," + formatComponent(c.Longitude, places))
}

// FallbackKeys returns progressively coarser keys (three, then two decimals)
// that hand-curated cache entries may use.
//
// A coarse key is indistinguishable from a fetched 4-decimal key whose
// trailing zeros were dropped: a photo taken exactly at (12.97, 77.59) is
// stored as "12.97,77.59", and that entry then answers every coordinate
// rounding to it at two decimals (about ±0.005°, roughly 550 m).
func FallbackKeys(c Coordinate) []CacheKey {
	keys := make([]CacheKey, 0, KeyPrecision-2)
	for places := KeyPrecision - 1; places >= 2; places-- {
		keys = append(keys, KeyAt(c, places))
	}
	return keys
}

func formatComponent(v float64, places int) string {
	scale := math.Pow(10, float64(places))
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
