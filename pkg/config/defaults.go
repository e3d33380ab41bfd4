package config

import (
	"strings"
	"time"

	"github.com/marmos91/volbridge/pkg/volume/backends"
)

// ApplyDefaults fills zero-valued fields with defaults. Explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	applyMetricsDefaults(&cfg.Metrics)
	applyAPIDefaults(&cfg.API)
	for i := range cfg.Shares {
		applyShareDefaults(&cfg.Shares[i])
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// applyShareDefaults only sets the backend. Volume, server and log level
// defaults are resolved at connect time so that a saved config keeps
// following them.
func applyShareDefaults(cfg *ShareConfig) {
	if cfg.Backend == "" {
		cfg.Backend = backends.Local
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
}

// GetDefaultConfig returns a configuration with every default applied and a
// single in-memory share, so that a server started without a config file
// has something to serve.
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: APIConfig{Enabled: true},
		Shares: []ShareConfig{
			{
				Name:    "scratch",
				Path:    "/export/scratch",
				Backend: backends.Memory,
				Options: map[string]any{"capacity": "1Gi"},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
