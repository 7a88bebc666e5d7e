package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/observability"
)

// DefaultGeocodingURL is the Mapbox places endpoint used for reverse lookups.
const DefaultGeocodingURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// placeIndex selects the feature whose name is reported. Mapbox ranks the
// most specific match (usually a street address) first; the second feature
// is the locality-level name.
const placeIndex = 1

// ErrNoPlace is returned when the response lacks a usable place name.
var ErrNoPlace = errors.New("mapbox: no locality-level feature in response")

// Client implements domain.PlaceResolver using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client. An empty baseURL selects
// DefaultGeocodingURL.
func NewClient(token, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts a coordinate to a human-readable place name.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (string, error) {
	start := time.Now()
	name, err := c.reverse(ctx, coord)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", err
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return name, nil
}

func (c *Client) reverse(ctx context.Context, coord domain.Coordinate) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.reverseURL(coord), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) <= placeIndex {
		return "", fmt.Errorf("%w: got %d features", ErrNoPlace, len(mapboxResp.Features))
	}
	name := mapboxResp.Features[placeIndex].PlaceName
	if name == "" {
		return "", fmt.Errorf("%w: empty place_name", ErrNoPlace)
	}
	return name, nil
}

// reverseURL builds {base}/{lng},{lat}.json?access_token=... Mapbox uses lon,lat order.
func (c *Client) reverseURL(coord domain.Coordinate) string {
	path := formatFloat(coord.Longitude) + "," + formatFloat(coord.Latitude)
	params := url.Values{"access_token": {c.token}}
	return fmt.Sprintf("%s/%s.json?%s", c.baseURL, path, params.Encode())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
