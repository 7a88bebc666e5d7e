// Package domain models geo-tagged photos and the place-name lookups that
// annotate them.
//
// # Coordinates
//
// Coordinates arrive in WGS-84 decimal degrees. DMS conversion happens
// upstream in the EXIF extraction step; by the time a [Photo] reaches this
// package its GPS block is already decimal, or absent when the camera did
// not record a fix.
//
// # Cache keys
//
// Place names are cached per [CacheKey], a precision-reduced rendering of a
// coordinate:
//
//	(48.856613, 2.352222)  →  "48.8566,2.3522"
//	(12.97,     77.59)     →  "12.97,77.59"
//
// Four decimal places is roughly 11 m on the ground, so shots taken from the
// same spot collapse onto a single entry. Components are rounded half away
// from zero and printed without padding or trailing zeros, latitude first.
// See [Key].
//
// Hand-curated cache files sometimes carry coarser keys (two or three
// decimals) for whole towns. [FallbackKeys] yields those so a lookup can fall
// back to them before going to the network.
//
// # Lookup outcomes
//
// A [Lookup] is either resolved (a real place name) or failed (an error).
// Intermediate layers keep the distinction; only the annotation boundary
// collapses a failure into the fallback name (see [UnknownLocation]).
package domain
