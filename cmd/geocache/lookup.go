package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	"github.com/couchcryptid/photo-geocache/internal/adapter/mapbox"
	"github.com/couchcryptid/photo-geocache/internal/domain"
	"github.com/couchcryptid/photo-geocache/internal/observability"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Print the cached or fetched place name for a coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		coord, err := coordinateFlags(cmd)
		if err != nil {
			return err
		}

		store := cachefile.Load(cfg.CachePath, cfg.CachePolicy, logger)
		defer closeStore(store, logger)

		svc := newService(cfg, store, observability.NewMetrics(), logger)
		l := svc.Lookup(cmd.Context(), coord)
		source := domain.SourceRemote
		switch {
		case !l.OK():
			source = domain.SourceFailed
		case l.Cached:
			source = domain.SourceCache
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", l.Key, l.NameOr(svc.Fallback()), source)
		return nil
	},
}

var staticMapCmd = &cobra.Command{
	Use:   "staticmap",
	Short: "Print the Mapbox static map image URL for a coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		coord, err := coordinateFlags(cmd)
		if err != nil {
			return err
		}
		m := mapbox.NewStaticMap(cfg.MapboxToken, cfg.MapboxStaticStyle)
		if z, _ := cmd.Flags().GetFloat64("zoom"); z > 0 {
			m.Zoom = z
		}
		m.Bearing, _ = cmd.Flags().GetFloat64("bearing")
		fmt.Fprintln(cmd.OutOrStdout(), m.URL(coord))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{lookupCmd, staticMapCmd} {
		c.Flags().Float64("lat", 0, "latitude in decimal degrees")
		c.Flags().Float64("lng", 0, "longitude in decimal degrees")
		_ = c.MarkFlagRequired("lat")
		_ = c.MarkFlagRequired("lng")
		rootCmd.AddCommand(c)
	}
	staticMapCmd.Flags().Float64("zoom", 15, "map zoom level")
	staticMapCmd.Flags().Float64("bearing", 0, "map bearing in degrees")
}

func coordinateFlags(cmd *cobra.Command) (domain.Coordinate, error) {
	lat, err := cmd.Flags().GetFloat64("lat")
	if err != nil {
		return domain.Coordinate{}, err
	}
	lng, err := cmd.Flags().GetFloat64("lng")
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Latitude: lat, Longitude: lng}, nil
}
