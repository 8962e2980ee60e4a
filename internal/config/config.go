package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/temp-choropleth-service/internal/render"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	GridPath string
	ObsPath  string
	OutDir   string

	// Render carries the map options: defaults, overlaid by the
	// RENDER_CONFIG file when set, overlaid by START_DATE/END_DATE
	// when set.
	Render render.Config

	HTTPAddr        string
	ServeEnabled    bool
	ShutdownTimeout time.Duration

	// Kafka publishing configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	rc := render.DefaultConfig()
	if path := os.Getenv("RENDER_CONFIG"); path != "" {
		var err error
		rc, err = render.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("START_DATE"); v != "" {
		t, err := render.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("START_DATE: %w", err)
		}
		rc.DateRange.Start = t
	}
	if v := os.Getenv("END_DATE"); v != "" {
		t, err := render.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("END_DATE: %w", err)
		}
		rc.DateRange.End = t
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		GridPath: envOrDefault("GRID_PATH", "data/ct_grid.shp"),
		ObsPath:  envOrDefault("OBS_PATH", "data/observations.csv"),
		OutDir:   envOrDefault("OUT_DIR", "out"),

		Render: rc,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ServeEnabled:    envOrDefault("SERVE_ENABLED", "false") == "true",
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: envOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "temperature-aggregates"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	var errs []error
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty"))
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty"))
	}
	if err := cfg.Render.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envOrDefault returns the environment variable's value, or def when
// unset or empty.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
