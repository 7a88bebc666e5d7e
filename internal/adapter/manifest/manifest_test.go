package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"file": "IMG_0001.jpg", "gps": {"latitude": 48.8566, "longitude": 2.3522}},
		{"file": "IMG_0002.jpg"}
	]`), 0o644))

	photos, err := Read(path)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "IMG_0001.jpg", photos[0].File)
	require.NotNil(t, photos[0].GPS)
	assert.Equal(t, 2.3522, photos[0].GPS.Longitude)
	assert.Nil(t, photos[1].GPS, "missing gps stays nil")
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"file":"not an array"}`), 0o644))
	_, err = Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode manifest")
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "photos.json")
	want := []domain.Photo{
		{
			File:           "IMG_0001.jpg",
			GPS:            &domain.Coordinate{Latitude: 48.8566, Longitude: 2.3522},
			Location:       "Paris, France",
			LocationSource: domain.SourceRemote,
			MapURL:         "https://example.test/map.png",
			AnnotatedAt:    time.Date(2024, time.May, 4, 9, 30, 0, 0, time.UTC),
		},
		{File: "IMG_0002.jpg", LocationSource: domain.SourceNone},
	}

	require.NoError(t, Write(path, want))
	got, err := Read(path)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_OmitsEmptyAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, Write(path, []domain.Photo{{File: "a.jpg"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"file":"a.jpg"}]`, string(data))
}
