// Command geocache annotates geo-tagged photos with place names for the
// static site build, caching every Mapbox lookup in a JSON file that is
// committed alongside the site sources.
//
// Usage:
//
//	geocache annotate --manifest _data/photos.json
//	geocache lookup --lat 48.8566 --lng 2.3522
//	geocache staticmap --lat 48.8566 --lng 2.3522
//	geocache serve
package main

import (
	"fmt"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/photo-geocache/internal/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "geocache",
	Short:         "Cached reverse geocoding for geo-tagged photos",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		_ = godotenv.Load(envFile)

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("geocache failed", "error", err)
		os.Exit(1)
	}
}
