package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// PhotoAnnotator implements Transformer by decoding a photo record and
// attaching its place name and map URL.
type PhotoAnnotator struct {
	locator  domain.Locator
	imager   domain.MapImager
	fallback string
	logger   *slog.Logger
}

// NewAnnotator creates a PhotoAnnotator. A nil imager leaves MapURL empty.
func NewAnnotator(locator domain.Locator, imager domain.MapImager, fallback string, logger *slog.Logger) *PhotoAnnotator {
	if fallback == "" {
		fallback = domain.UnknownLocation
	}
	return &PhotoAnnotator{
		locator:  locator,
		imager:   imager,
		fallback: fallback,
		logger:   logger,
	}
}

func (a *PhotoAnnotator) Transform(ctx context.Context, raw domain.RawPhoto) (domain.Photo, error) {
	photo, err := domain.ParsePhoto(raw)
	if err != nil {
		return domain.Photo{}, err
	}
	return a.Annotate(ctx, photo), nil
}

// Annotate attaches location data to an already-decoded photo.
func (a *PhotoAnnotator) Annotate(ctx context.Context, photo domain.Photo) domain.Photo {
	return domain.AnnotatePhoto(ctx, photo, a.locator, a.imager, a.fallback, a.logger)
}
