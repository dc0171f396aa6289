// Package twitter implements poster.Client against the X/Twitter HTTP API
// and publishes the poster.Poster service built on top of it.
package twitter

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/telemetry"
)

// Interface guards.
var (
	_ poster.Client     = (*Twitter)(nil)
	_ core.Configurable = (*Twitter)(nil)
	_ core.Provisioner  = (*Twitter)(nil)
	_ core.Validator    = (*Twitter)(nil)
)

func init() {
	core.RegisterModule(&Twitter{})
}

// Twitter talks to api.twitter.com and upload.twitter.com.
type Twitter struct {
	config Config
	client *http.Client
}

// ModuleInfo returns the module metadata for registration.
func (t *Twitter) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "poster.twitter",
		New: func() core.Module { return &Twitter{} },
	}
}

// Configure decodes the YAML configuration and applies defaults.
func (t *Twitter) Configure(node *yaml.Node) error {
	if err := node.Decode(&t.config); err != nil {
		return fmt.Errorf("twitter: decoding config: %w", err)
	}
	return nil
}

// Provision creates the HTTP client and registers the client and the
// Poster service.
func (t *Twitter) Provision(ctx *core.AppContext) error {
	t.config.defaults()

	timeout, delay, err := t.config.durations()
	if err != nil {
		return fmt.Errorf("twitter: %w", err)
	}
	t.client = &http.Client{Timeout: timeout}

	opts := []poster.Option{poster.WithThreadDelay(delay)}
	if reg, ok := core.ServiceAs[prometheus.Registerer](ctx, telemetry.MetricsService); ok {
		opts = append(opts, poster.WithMetrics(poster.NewMetrics(reg)))
	}

	if r, ok := core.ServiceAs[*security.Redactor](ctx, security.RedactorService); ok && t.config.ClientSecret != "" {
		r.AddLiteral(t.config.ClientSecret)
	}

	ctx.RegisterService(poster.ClientService, t)
	ctx.RegisterService(poster.Service, poster.New(t, opts...))
	return nil
}

// Validate checks the configured base URLs.
func (t *Twitter) Validate() error {
	for name, raw := range map[string]string{"api_url": t.config.APIURL, "upload_url": t.config.UploadURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("twitter: invalid %s: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("twitter: %s scheme must be http or https, got %q", name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("twitter: %s must include a host", name)
		}
	}
	return nil
}
