// Package geocache resolves coordinates to place names through a persistent
// cache, fetching each uncached key from the remote resolver at most once.
package geocache

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Store is the durable key→name mapping backing the service.
type Store interface {
	Get(key domain.CacheKey) (string, bool)
	Put(key domain.CacheKey, name string) bool
	Commit() error
	Len() int
}

// Service combines a Store and a PlaceResolver. Failed lookups are never
// cached, so the next process run retries them.
type Service struct {
	resolver domain.PlaceResolver
	store    Store
	metrics  *observability.Metrics
	logger   *slog.Logger
	fallback string

	inflight singleflight.Group
}

// NewService wires a resolver to a store.
func NewService(resolver domain.PlaceResolver, store Store, metrics *observability.Metrics, logger *slog.Logger) *Service {
	metrics.CacheEntries.Set(float64(store.Len()))
	return &Service{
		resolver: resolver,
		store:    store,
		metrics:  metrics,
		logger:   logger,
		fallback: domain.UnknownLocation,
	}
}

// WithFallback overrides the name LocationName reports for failed lookups.
func (s *Service) WithFallback(name string) *Service {
	if name != "" {
		s.fallback = name
	}
	return s
}

// Fallback returns the name reported for failed lookups.
func (s *Service) Fallback() string { return s.fallback }

// LocationName returns the place name for c, or the fallback name when it
// cannot be resolved.
func (s *Service) LocationName(ctx context.Context, c domain.Coordinate) string {
	return s.Lookup(ctx, c).NameOr(s.fallback)
}

// Lookup returns the cached name for c, or fetches, caches and persists it.
// Concurrent lookups of the same uncached key share one fetch. A cancelled
// ctx returns a failed Lookup at once; the fetch still completes and is
// cached for the callers that remain.
func (s *Service) Lookup(ctx context.Context, c domain.Coordinate) domain.Lookup {
	key := domain.Key(c)
	if name, ok := s.cached(c, key); ok {
		s.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		l := domain.Resolved(key, name)
		l.Cached = true
		return l
	}

	// The shared fetch outlives any single caller; each caller stops
	// waiting on its own cancellation without failing the others.
	ch := s.inflight.DoChan(string(key), func() (any, error) {
		s.metrics.GeocodeCache.WithLabelValues("miss").Inc()
		return s.fetch(context.WithoutCancel(ctx), c, key), nil
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.GeocodeCache.WithLabelValues("shared").Inc()
		}
		return res.Val.(domain.Lookup) //nolint:forcetypeassert // fetch always returns domain.Lookup
	case <-ctx.Done():
		return domain.Failed(key, ctx.Err())
	}
}

// cached checks the exact key, then coarser hand-curated keys.
func (s *Service) cached(c domain.Coordinate, key domain.CacheKey) (string, bool) {
	if name, ok := s.store.Get(key); ok {
		return name, true
	}
	for _, k := range domain.FallbackKeys(c) {
		if name, ok := s.store.Get(k); ok {
			return name, true
		}
	}
	return "", false
}

func (s *Service) fetch(ctx context.Context, c domain.Coordinate, key domain.CacheKey) domain.Lookup {
	// A sequential caller may have populated the key while this one waited.
	if name, ok := s.store.Get(key); ok {
		l := domain.Resolved(key, name)
		l.Cached = true
		return l
	}

	name, err := s.resolver.ReverseGeocode(ctx, c)
	if err != nil {
		s.logger.Warn("reverse geocoding failed",
			"lat", c.Latitude,
			"lon", c.Longitude,
			"key", key,
			"error", err,
		)
		return domain.Failed(key, err)
	}

	if s.store.Put(key, name) {
		s.metrics.CacheEntries.Set(float64(s.store.Len()))
		if err := s.store.Commit(); err != nil {
			s.metrics.CacheCommits.WithLabelValues("error").Inc()
			s.logger.Error("geocache flush failed, keeping entry in memory", "key", key, "error", err)
		} else {
			s.metrics.CacheCommits.WithLabelValues("success").Inc()
		}
	}
	s.logger.Debug("place resolved", "key", key, "name", name)
	return domain.Resolved(key, name)
}
