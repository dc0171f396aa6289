package gateway

import "time"

// Config holds HTTP gateway configuration.
type Config struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Debug adds the internal error text to error responses.
	Debug bool `yaml:"debug"`

	// MaxMediaBytes caps the multipart body of POST /tweet/media.
	MaxMediaBytes int64 `yaml:"max_media_bytes"`

	// HistoryLimit caps GET /tweets. Zero means the default.
	HistoryLimit int `yaml:"history_limit"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// Threads sleep between posts, so keep this generous.
		c.WriteTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	if c.MaxMediaBytes <= 0 {
		c.MaxMediaBytes = 5 << 20
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 100
	}
}

// AuthConfig configures bearer session checks.
type AuthConfig struct {
	// VerifyUpstream checks every access token against the upstream
	// users/me endpoint before accepting the request.
	VerifyUpstream bool `yaml:"verify_upstream"`
}
