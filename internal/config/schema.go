// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for tweetcron.
package config

import "gopkg.in/yaml.v3"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Only "1" is supported.
	Version string `yaml:"version"`

	// Modules maps module IDs (e.g. "gateway.http") to their raw YAML section.
	Modules map[string]yaml.Node `yaml:"modules"`

	Logging LoggingConfig `yaml:"logging"`

	// Telemetry enables OTLP trace export when set.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`

	Security *SecurityConfig `yaml:"security,omitempty"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// TelemetryConfig configures the OTLP/HTTP trace exporter.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// SecurityConfig holds local abuse controls and audit settings.
type SecurityConfig struct {
	RateLimits RateLimitConfig `yaml:"rate_limits"`

	// AuditLog is a JSONL file receiving auth and scheduling events.
	// Empty disables the file sink.
	AuditLog string `yaml:"audit_log"`
}

// RateLimitConfig caps requests handled by this process. Zero leaves a
// kind unlimited; upstream 429s are surfaced either way.
type RateLimitConfig struct {
	AuthPerMin  int `yaml:"auth_per_min"`
	PostsPerMin int `yaml:"posts_per_min"`
}
