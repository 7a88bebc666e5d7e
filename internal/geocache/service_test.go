package geocache_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/geocache"
	"github.com/couchcryptid/photo-geocache/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type countingResolver struct {
	name  string
	err   error
	calls atomic.Int64
	gate  chan struct{} // when non-nil, calls block until closed
}

func (m *countingResolver) ReverseGeocode(ctx context.Context, _ domain.Coordinate) (string, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.name, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, r domain.PlaceResolver, path string, policy cachefile.Policy) (*geocache.Service, *cachefile.Store) {
	t.Helper()
	store := cachefile.Load(path, policy, discardLogger())
	return geocache.NewService(r, store, observability.NewMetricsForTesting(), discardLogger()), store
}

func readCacheFile(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

var paris = domain.Coordinate{Latitude: 48.8566, Longitude: 2.3522}

// --- tests ---

func TestLocationName_CachedCoarseEntryNeedsNoFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"12.97,77.59":"Bengaluru, India"}`), 0o644))
	r := &countingResolver{name: "should not be used"}
	svc, _ := newService(t, r, path, cachefile.PolicyLazy)

	name := svc.LocationName(context.Background(), domain.Coordinate{Latitude: 12.9716, Longitude: 77.5946})

	assert.Equal(t, "Bengaluru, India", name)
	assert.Equal(t, int64(0), r.calls.Load())
}

func TestLocationName_FetchedRoundCoordinateAnswersNeighbourhood(t *testing.T) {
	r := &countingResolver{name: "Bengaluru, India"}
	svc, store := newService(t, r, filepath.Join(t.TempDir(), "geocache.json"), cachefile.PolicyLazy)

	// Trailing zeros drop, so this 4-decimal entry looks like a coarse one.
	assert.Equal(t, "Bengaluru, India", svc.LocationName(context.Background(), domain.Coordinate{Latitude: 12.97, Longitude: 77.59}))
	_, ok := store.Get("12.97,77.59")
	require.True(t, ok)

	l := svc.Lookup(context.Background(), domain.Coordinate{Latitude: 12.9716, Longitude: 77.5946})
	assert.True(t, l.Cached)
	assert.Equal(t, "Bengaluru, India", l.Name)
	assert.Equal(t, int64(1), r.calls.Load())

	svc.Lookup(context.Background(), domain.Coordinate{Latitude: 12.9761, Longitude: 77.5946})
	assert.Equal(t, int64(2), r.calls.Load(), "coordinates rounding elsewhere still fetch")
}

func TestLocationName_MissFetchesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_data", "geocache.json")
	r := &countingResolver{name: "Paris, France"}
	svc, _ := newService(t, r, path, cachefile.PolicyEager)

	name := svc.LocationName(context.Background(), paris)

	assert.Equal(t, "Paris, France", name)
	assert.Equal(t, map[string]string{"48.8566,2.3522": "Paris, France"}, readCacheFile(t, path))
}

func TestLocationName_LazyPersistsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")
	r := &countingResolver{name: "Paris, France"}
	svc, store := newService(t, r, path, cachefile.PolicyLazy)

	assert.Equal(t, "Paris, France", svc.LocationName(context.Background(), paris))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, store.Close())
	assert.Equal(t, map[string]string{"48.8566,2.3522": "Paris, France"}, readCacheFile(t, path))
}

func TestLookup_AtMostOneFetchForSequentialCalls(t *testing.T) {
	r := &countingResolver{name: "Paris, France"}
	svc, _ := newService(t, r, filepath.Join(t.TempDir(), "geocache.json"), cachefile.PolicyLazy)

	first := svc.Lookup(context.Background(), paris)
	require.True(t, first.OK())
	assert.False(t, first.Cached)

	for range 5 {
		l := svc.Lookup(context.Background(), domain.Coordinate{Latitude: 48.85661, Longitude: 2.35219})
		assert.True(t, l.Cached)
		assert.Equal(t, "Paris, France", l.Name)
	}
	assert.Equal(t, int64(1), r.calls.Load())
}

func TestLookup_ConcurrentCallsShareOneFetch(t *testing.T) {
	r := &countingResolver{name: "Paris, France", gate: make(chan struct{})}
	svc, _ := newService(t, r, filepath.Join(t.TempDir(), "geocache.json"), cachefile.PolicyLazy)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.Lookup, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.Lookup(context.Background(), paris)
		}()
	}
	close(r.gate)
	wg.Wait()

	assert.Equal(t, int64(1), r.calls.Load())
	for _, l := range results {
		assert.Equal(t, "Paris, France", l.Name)
	}
}

func TestLookup_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	r := &countingResolver{name: "Paris, France", gate: make(chan struct{})}
	svc, store := newService(t, r, filepath.Join(t.TempDir(), "geocache.json"), cachefile.PolicyLazy)

	ctxA, cancelA := context.WithCancel(context.Background())
	resA := make(chan domain.Lookup, 1)
	go func() { resA <- svc.Lookup(ctxA, paris) }()
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	resB := make(chan domain.Lookup, 1)
	go func() { resB <- svc.Lookup(context.Background(), paris) }()

	cancelA()
	a := <-resA
	require.False(t, a.OK())
	assert.ErrorIs(t, a.Err, context.Canceled)

	close(r.gate)
	b := <-resB
	require.True(t, b.OK(), "uncancelled caller must not see another caller's cancellation")
	assert.Equal(t, "Paris, France", b.Name)
	assert.Equal(t, int64(1), r.calls.Load())

	name, ok := store.Get("48.8566,2.3522")
	assert.True(t, ok, "the shared fetch is cached even though its first caller left")
	assert.Equal(t, "Paris, France", name)
}

func TestLookup_FailureIsNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")
	r := &countingResolver{err: errors.New("dial tcp: connection refused")}
	svc, store := newService(t, r, path, cachefile.PolicyEager)

	l := svc.Lookup(context.Background(), paris)
	require.False(t, l.OK())
	assert.Equal(t, domain.CacheKey("48.8566,2.3522"), l.Key)
	assert.Equal(t, domain.UnknownLocation, svc.LocationName(context.Background(), paris))

	_, ok := store.Get("48.8566,2.3522")
	assert.False(t, ok)
	assert.Equal(t, int64(2), r.calls.Load(), "failures are retried, not cached")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLookup_RetryInFreshProcessPopulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocache.json")

	failing, _ := newService(t, &countingResolver{err: errors.New("timeout")}, path, cachefile.PolicyEager)
	assert.Equal(t, domain.UnknownLocation, failing.LocationName(context.Background(), paris))

	working, _ := newService(t, &countingResolver{name: "Paris, France"}, path, cachefile.PolicyEager)
	assert.Equal(t, "Paris, France", working.LocationName(context.Background(), paris))
	assert.Equal(t, map[string]string{"48.8566,2.3522": "Paris, France"}, readCacheFile(t, path))
}

func TestLookup_FlushFailureStillReturnsName(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	r := &countingResolver{name: "Paris, France"}
	svc, store := newService(t, r, filepath.Join(blocker, "geocache.json"), cachefile.PolicyEager)

	assert.Equal(t, "Paris, France", svc.LocationName(context.Background(), paris))
	name, ok := store.Get("48.8566,2.3522")
	assert.True(t, ok)
	assert.Equal(t, "Paris, France", name)

	assert.Equal(t, "Paris, France", svc.LocationName(context.Background(), paris))
	assert.Equal(t, int64(1), r.calls.Load())
}

func TestLocationName_CustomFallback(t *testing.T) {
	r := &countingResolver{err: errors.New("boom")}
	svc, _ := newService(t, r, filepath.Join(t.TempDir(), "geocache.json"), cachefile.PolicyLazy)
	svc.WithFallback("Somewhere on Earth")

	assert.Equal(t, "Somewhere on Earth", svc.LocationName(context.Background(), paris))
	assert.Equal(t, "Somewhere on Earth", svc.Fallback())
}
