package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// Server exposes health, readiness, metrics, and place lookup endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /v1/location routes. fallback is reported when a lookup fails.
func NewServer(addr string, ready sharedobs.ReadinessChecker, locator domain.Locator, fallback string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/location", handleLocation(locator, fallback))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type locationResponse struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Cached   bool   `json:"cached"`
	Resolved bool   `json:"resolved"`
}

func handleLocation(locator domain.Locator, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, okLat := parseDegrees(r.URL.Query().Get("lat"))
		lng, okLng := parseDegrees(r.URL.Query().Get("lng"))
		if !okLat || !okLng {
			sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lng must be decimal degrees"})
			return
		}

		l := locator.Lookup(r.Context(), domain.Coordinate{Latitude: lat, Longitude: lng})
		sharedobs.WriteJSON(w, http.StatusOK, locationResponse{
			Key:      string(l.Key),
			Name:     l.NameOr(fallback),
			Cached:   l.Cached,
			Resolved: l.OK(),
		})
	}
}

// parseDegrees accepts finite decimal degrees only.
func parseDegrees(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
