package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	"github.com/couchcryptid/photo-geocache/internal/adapter/manifest"
	"github.com/couchcryptid/photo-geocache/internal/config"
	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/observability"
	"github.com/couchcryptid/photo-geocache/internal/pipeline"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Add place names and map URLs to a photo manifest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, _ := cmd.Flags().GetString("manifest")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = in
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runAnnotate(ctx, cfg, observability.NewMetrics(), logger, in, out)
	},
}

func init() {
	annotateCmd.Flags().String("manifest", "_data/photos.json", "photo manifest produced by EXIF extraction")
	annotateCmd.Flags().String("out", "", "output path (defaults to rewriting the manifest)")
	rootCmd.AddCommand(annotateCmd)
}

// runAnnotate annotates every photo in the manifest. The cache store is
// flushed on return even when the run is interrupted.
func runAnnotate(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger, in, out string) error {
	photos, err := manifest.Read(in)
	if err != nil {
		return err
	}

	store := cachefile.Load(cfg.CachePath, cfg.CachePolicy, logger)
	defer closeStore(store, logger)

	svc := newService(cfg, store, metrics, logger)
	annotator := pipeline.NewAnnotator(svc, newImager(cfg), cfg.FallbackName, logger)

	counts := map[string]int{}
	for i := range photos {
		if err := ctx.Err(); err != nil {
			logger.Warn("annotate interrupted, manifest not written", "done", i, "total", len(photos))
			return err
		}
		photos[i] = annotator.Annotate(ctx, photos[i])
		counts[photos[i].LocationSource]++
	}

	if err := manifest.Write(out, photos); err != nil {
		return err
	}
	logger.Info("manifest annotated",
		"out", out,
		"photos", len(photos),
		"cached", counts[domain.SourceCache],
		"fetched", counts[domain.SourceRemote],
		"failed", counts[domain.SourceFailed],
		"no_gps", counts[domain.SourceNone],
	)
	return nil
}
