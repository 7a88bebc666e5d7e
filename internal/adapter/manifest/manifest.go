// Package manifest reads and writes the JSON photo manifest exchanged with
// the EXIF extraction step of the site build.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// Read decodes a manifest: a JSON array of photo records.
func Read(path string) ([]domain.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var photos []domain.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return photos, nil
}

// Write encodes photos as an indented JSON array, creating parent
// directories as needed.
func Write(path string, photos []domain.Photo) error {
	if photos == nil {
		photos = []domain.Photo{}
	}
	data, err := json.MarshalIndent(photos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create manifest dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // site output is world-readable
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
