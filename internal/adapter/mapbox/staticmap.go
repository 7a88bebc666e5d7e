package mapbox

import (
	"fmt"
	"net/url"

	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// DefaultStaticURL is the Mapbox styles endpoint for static map images.
const DefaultStaticURL = "https://api.mapbox.com/styles/v1/mapbox"

// StaticMap builds Mapbox Static Images API URLs. It never fetches the image.
type StaticMap struct {
	Token   string
	BaseURL string
	Style   string
	Zoom    float64
	Bearing float64
	Width   int
	Height  int
	Retina  bool
}

// NewStaticMap returns a builder with the defaults used for photo pages:
// outdoors style, zoom 15, north-up, 300x200 at 2x.
func NewStaticMap(token, style string) StaticMap {
	if style == "" {
		style = "outdoors-v11"
	}
	return StaticMap{
		Token:   token,
		BaseURL: DefaultStaticURL,
		Style:   style,
		Zoom:    15,
		Width:   300,
		Height:  200,
		Retina:  true,
	}
}

// URL returns the image URL centred on c.
func (s StaticMap) URL(c domain.Coordinate) string {
	size := fmt.Sprintf("%dx%d", s.Width, s.Height)
	if s.Retina {
		size += "@2x"
	}
	params := url.Values{
		"access_token": {s.Token},
		"attribution":  {"false"},
		"logo":         {"false"},
	}
	return fmt.Sprintf("%s/%s/static/%s,%s,%s,%s/%s?%s",
		s.BaseURL, s.Style,
		formatFloat(c.Longitude), formatFloat(c.Latitude),
		formatFloat(s.Zoom), formatFloat(s.Bearing),
		size, params.Encode())
}
