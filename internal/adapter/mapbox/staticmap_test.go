package mapbox

import (
	"testing"

	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStaticMap_DefaultURL(t *testing.T) {
	m := NewStaticMap("pk.abc", "")

	got := m.URL(domain.Coordinate{Latitude: 48.8566, Longitude: 2.3522})

	assert.Equal(t,
		"https://api.mapbox.com/styles/v1/mapbox/outdoors-v11/static/2.3522,48.8566,15,0/300x200@2x?access_token=pk.abc&attribution=false&logo=false",
		got,
	)
}

func TestStaticMap_CustomParameters(t *testing.T) {
	m := NewStaticMap("pk.abc", "satellite-v9")
	m.Zoom = 12.5
	m.Bearing = 45
	m.Width, m.Height = 600, 400
	m.Retina = false

	got := m.URL(domain.Coordinate{Latitude: -33.8688, Longitude: 151.2093})

	assert.Equal(t,
		"https://api.mapbox.com/styles/v1/mapbox/satellite-v9/static/151.2093,-33.8688,12.5,45/600x400?access_token=pk.abc&attribution=false&logo=false",
		got,
	)
}
