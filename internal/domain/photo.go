package domain

import (
	"context"
	"time"
)

// Location sources recorded on annotated photos.
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
	SourceFailed = "failed"
	SourceNone   = "none"
)

// Photo is one entry of the image manifest produced by EXIF extraction.
type Photo struct {
	File string      `json:"file"`
	GPS  *Coordinate `json:"gps,omitempty"`

	// Annotation fields.
	Location       string    `json:"location,omitempty"`
	LocationSource string    `json:"location_source,omitempty"`
	MapURL         string    `json:"map_url,omitempty"`
	AnnotatedAt    time.Time `json:"annotated_at,omitzero"`
}

// RawPhoto represents an unprocessed message from the source topic.
type RawPhoto struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
