package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParsePhoto decodes a raw manifest entry.
func ParsePhoto(raw RawPhoto) (Photo, error) {
	var p Photo
	if err := json.Unmarshal(raw.Value, &p); err != nil {
		return Photo{}, fmt.Errorf("unmarshal photo: %w", err)
	}
	if p.File == "" {
		return Photo{}, fmt.Errorf("photo has no file name")
	}
	return p, nil
}

// AnnotatePhoto attaches a place name and map URL to a geo-tagged photo.
// Photos without GPS data are returned with LocationSource "none" and the
// locator is never consulted. A failed lookup degrades to fallback.
func AnnotatePhoto(ctx context.Context, photo Photo, locator Locator, imager MapImager, fallback string, logger *slog.Logger) Photo {
	if photo.GPS == nil {
		logger.Debug("photo has no gps info", "file", photo.File)
		photo.LocationSource = SourceNone
		return photo
	}

	photo.AnnotatedAt = clock.Now().UTC()
	if imager != nil {
		photo.MapURL = imager.URL(*photo.GPS)
	}

	if locator == nil {
		photo.Location = fallback
		photo.LocationSource = SourceFailed
		return photo
	}

	lookup := locator.Lookup(ctx, *photo.GPS)
	photo.Location = lookup.NameOr(fallback)
	switch {
	case !lookup.OK():
		photo.LocationSource = SourceFailed
	case lookup.Cached:
		photo.LocationSource = SourceCache
	default:
		photo.LocationSource = SourceRemote
	}
	return photo
}
