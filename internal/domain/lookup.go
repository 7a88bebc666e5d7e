package domain

import "context"

// UnknownLocation is the place name reported when a lookup cannot succeed.
const UnknownLocation = "Unknown Location"

// Lookup is the outcome of resolving a coordinate to a place name.
type Lookup struct {
	Key    CacheKey
	Name   string
	Err    error
	Cached bool // true when served from the cache without network I/O
}

// Resolved builds a successful lookup.
func Resolved(key CacheKey, name string) Lookup {
	return Lookup{Key: key, Name: name}
}

// Failed builds a lookup that could not produce a name.
func Failed(key CacheKey, err error) Lookup {
	return Lookup{Key: key, Err: err}
}

// OK reports whether the lookup produced a real place name.
func (l Lookup) OK() bool { return l.Err == nil }

// NameOr returns the resolved name, or fallback when the lookup failed.
func (l Lookup) NameOr(fallback string) string {
	if !l.OK() {
		return fallback
	}
	return l.Name
}

// PlaceResolver turns a coordinate into a place name using a remote service.
type PlaceResolver interface {
	ReverseGeocode(ctx context.Context, c Coordinate) (string, error)
}

// Locator looks up the place name for a coordinate, consulting a cache first.
type Locator interface {
	Lookup(ctx context.Context, c Coordinate) Lookup
}

// MapImager builds a static map image URL for a coordinate.
type MapImager interface {
	URL(c Coordinate) string
}
