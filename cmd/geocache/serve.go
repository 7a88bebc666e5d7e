package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	httpadapter "github.com/couchcryptid/photo-geocache/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/photo-geocache/internal/adapter/kafka"
	"github.com/couchcryptid/photo-geocache/internal/observability"
	"github.com/couchcryptid/photo-geocache/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Annotate photo records from Kafka and serve lookups over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.ValidateStreaming(); err != nil {
			return err
		}
		return serve(cmd.Context())
	},
}

func init() { rootCmd.AddCommand(serveCmd) }

func serve(parent context.Context) error {
	metrics := observability.NewMetrics()

	store := cachefile.Load(cfg.CachePath, cfg.CachePolicy, logger)
	defer closeStore(store, logger)

	svc := newService(cfg, store, metrics, logger)
	logger.Info("geocache ready",
		"path", store.Path(),
		"policy", store.Policy(),
		"entries", store.Len(),
		"geocoding_enabled", cfg.GeocodingEnabled(),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	annotator := pipeline.NewAnnotator(svc, newImager(cfg), cfg.FallbackName, logger)

	p := pipeline.New(reader, annotator, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, cfg.FallbackName, logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start annotation pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
