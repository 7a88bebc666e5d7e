package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	"github.com/couchcryptid/photo-geocache/internal/adapter/mapbox"
	"github.com/couchcryptid/photo-geocache/internal/config"
	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/geocache"
	"github.com/couchcryptid/photo-geocache/internal/observability"
)

var errNoToken = errors.New("MAPBOX_TOKEN not set, remote lookups disabled")

// offlineResolver fails every lookup so cache hits still work without a token.
type offlineResolver struct{}

func (offlineResolver) ReverseGeocode(context.Context, domain.Coordinate) (string, error) {
	return "", errNoToken
}

// newService builds the geocoding service over an already loaded store.
func newService(cfg *config.Config, store *cachefile.Store, metrics *observability.Metrics, logger *slog.Logger) *geocache.Service {
	var resolver domain.PlaceResolver = offlineResolver{}
	if cfg.GeocodingEnabled() {
		resolver = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxGeocodingURL, cfg.MapboxTimeout, metrics, logger)
	} else {
		logger.Warn("mapbox geocoding disabled, serving cache hits only")
	}
	return geocache.NewService(resolver, store, metrics, logger).WithFallback(cfg.FallbackName)
}

// newImager returns nil when no token is configured; static map URLs are
// useless without one.
func newImager(cfg *config.Config) domain.MapImager {
	if !cfg.GeocodingEnabled() {
		return nil
	}
	return mapbox.NewStaticMap(cfg.MapboxToken, cfg.MapboxStaticStyle)
}

// closeStore performs the end-of-run flush. Failures are logged, never fatal.
func closeStore(store *cachefile.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("geocache final flush failed", "path", store.Path(), "error", err)
	}
}
