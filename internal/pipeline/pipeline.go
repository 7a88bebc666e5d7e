package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/observability"
)

const (
	initialRetryDelay = 200 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw photo records from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawPhoto, error)
}

// Transformer decodes and annotates a raw photo record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawPhoto) (domain.Photo, error)
}

// BatchLoader writes annotated photos to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, photos []domain.Photo) error
}

// Pipeline moves photo records from the source topic through the annotator
// to the sink topic, one batch at a time.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once at least one batch of photos was loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not annotated any photos yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := backoff{delay: initialRetryDelay}
	for ctx.Err() == nil {
		if !p.step(ctx, &b) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// step runs one extract-annotate-load cycle and reports whether to continue.
func (p *Pipeline) step(ctx context.Context, b *backoff) bool {
	start := time.Now()

	raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return b.wait(ctx)
	}
	if len(raws) == 0 {
		return true
	}

	p.metrics.PhotosConsumed.Add(float64(len(raws)))
	p.metrics.BatchSize.Observe(float64(len(raws)))
	b.reset()

	photos, accepted := p.annotate(ctx, raws)
	if len(photos) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, photos); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(photos))
		return b.wait(ctx)
	}
	p.metrics.PhotosProduced.Add(float64(len(photos)))
	for _, raw := range accepted {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// annotate transforms each record. Undecodable records are committed and
// dropped so one bad message cannot wedge the partition.
func (p *Pipeline) annotate(ctx context.Context, raws []domain.RawPhoto) ([]domain.Photo, []domain.RawPhoto) {
	photos := make([]domain.Photo, 0, len(raws))
	accepted := make([]domain.RawPhoto, 0, len(raws))
	sources := make(map[string]int, 4)

	for _, raw := range raws {
		photo, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("undecodable photo record, skipping",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		sources[photo.LocationSource]++
		photos = append(photos, photo)
		accepted = append(accepted, raw)
	}

	if len(photos) > 0 {
		p.logger.Debug("batch annotated",
			"photos", len(photos),
			"from_cache", sources[domain.SourceCache],
			"from_remote", sources[domain.SourceRemote],
			"failed", sources[domain.SourceFailed],
			"without_gps", sources[domain.SourceNone],
		)
	}
	return photos, accepted
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawPhoto) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff holds the delay between failed extract or load calls.
type backoff struct {
	delay time.Duration
}

func (b *backoff) reset() { b.delay = initialRetryDelay }

// wait sleeps for the current delay, then doubles it up to maxRetryDelay.
// It returns false if ctx ends first.
func (b *backoff) wait(ctx context.Context) bool {
	if !retry.SleepWithContext(ctx, b.delay) {
		return false
	}
	b.delay = retry.NextBackoff(b.delay, maxRetryDelay)
	return true
}
