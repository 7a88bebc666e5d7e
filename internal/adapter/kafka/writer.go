package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/photo-geocache/internal/config"
	"github.com/couchcryptid/photo-geocache/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces annotated photo records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes annotated photos in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, photos []domain.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(photos))
	for i := range photos {
		msg, err := serializeToMessage(photos[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Photo into a Kafka message keyed by file name.
func serializeToMessage(photo domain.Photo) (kafkago.Message, error) {
	data, err := json.Marshal(photo)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize photo: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "location_source", Value: []byte(photo.LocationSource)},
	}
	if !photo.AnnotatedAt.IsZero() {
		headers = append(headers, kafkago.Header{Key: "annotated_at", Value: []byte(photo.AnnotatedAt.Format(time.RFC3339))})
	}
	return kafkago.Message{
		Key:     []byte(photo.File),
		Value:   data,
		Headers: headers,
	}, nil
}
