package twitter

import (
	"fmt"
	"time"
)

const (
	defaultAPIURL      = "https://api.twitter.com"
	defaultUploadURL   = "https://upload.twitter.com"
	defaultTimeout     = "30s"
	defaultThreadDelay = "1s"
)

// Config holds the YAML configuration for the Twitter posting module.
type Config struct {
	// APIURL is the v2 API base URL.
	// Default: "https://api.twitter.com"
	APIURL string `yaml:"api_url"`

	// UploadURL is the v1.1 media upload base URL.
	// Default: "https://upload.twitter.com"
	UploadURL string `yaml:"upload_url"`

	// ClientID and ClientSecret identify the OAuth2 app for token refresh.
	// ClientSecret is only set for confidential clients.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Timeout bounds every upstream call. Default: "30s"
	Timeout string `yaml:"timeout"`

	// ThreadDelay is the pause between thread items. Default: "1s"
	ThreadDelay string `yaml:"thread_delay"`
}

func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.UploadURL == "" {
		c.UploadURL = defaultUploadURL
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
	if c.ThreadDelay == "" {
		c.ThreadDelay = defaultThreadDelay
	}
}

func (c *Config) durations() (timeout, delay time.Duration, err error) {
	timeout, err = time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	delay, err = time.ParseDuration(c.ThreadDelay)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid thread_delay %q: %w", c.ThreadDelay, err)
	}
	if delay < 0 {
		return 0, 0, fmt.Errorf("thread_delay must not be negative")
	}
	return timeout, delay, nil
}
