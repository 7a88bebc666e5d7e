package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/photo-geocache/internal/adapter/cachefile"
	"github.com/couchcryptid/photo-geocache/internal/domain"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Mapbox configuration.
	MapboxToken        string
	MapboxTimeout      time.Duration
	MapboxGeocodingURL string
	MapboxStaticStyle  string

	// Geocoding cache configuration.
	CachePath    string
	CachePolicy  cachefile.Policy
	FallbackName string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	policy, err := cachefile.ParsePolicy(sharedcfg.EnvOrDefault("GEOCACHE_POLICY", string(cachefile.PolicyLazy)))
	if err != nil {
		return nil, errors.New("invalid GEOCACHE_POLICY: " + err.Error())
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "photo-coordinates"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "annotated-photos"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "photo-geocache"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MapboxToken:        os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:      mapboxTimeout,
		MapboxGeocodingURL: os.Getenv("MAPBOX_GEOCODING_URL"),
		MapboxStaticStyle:  sharedcfg.EnvOrDefault("MAPBOX_STATIC_STYLE", "outdoors-v11"),

		CachePath:    sharedcfg.EnvOrDefault("GEOCACHE_PATH", "_data/geocache.json"),
		CachePolicy:  policy,
		FallbackName: sharedcfg.EnvOrDefault("GEOCACHE_FALLBACK_NAME", domain.UnknownLocation),
	}

	return cfg, nil
}

// ValidateStreaming checks the settings only the Kafka pipeline needs.
func (c *Config) ValidateStreaming() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	return nil
}

// GeocodingEnabled reports whether remote lookups can be made. Without a
// token the cache still answers hits; misses fall back to the default name.
func (c *Config) GeocodingEnabled() bool {
	return c.MapboxToken != ""
}
