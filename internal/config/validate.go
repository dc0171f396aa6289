package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flemzord/tweetcron/internal/core"
)

// requiredNamespaces must each be served by at least one configured module.
var requiredNamespaces = []string{"gateway", "poster", "scheduler"}

// Validate checks the structural validity of a Config: the version, that
// every module ID is registered, that the required namespaces are present,
// and the logging and telemetry settings. All problems are reported at once.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, errors.New("config: at least one module must be configured"))
	}

	present := make(map[string]bool)
	for id := range cfg.Modules {
		if _, ok := core.GetModule(id); !ok {
			errs = append(errs, fmt.Errorf("config: unknown module %q", id))
			continue
		}
		present[core.ModuleID(id).Namespace()] = true
	}
	if len(cfg.Modules) > 0 {
		for _, ns := range requiredNamespaces {
			if !present[ns] {
				errs = append(errs, fmt.Errorf("config: no %q module configured", ns))
			}
		}
	}

	errs = append(errs, validateLogging(cfg.Logging)...)
	errs = append(errs, validateTelemetry(cfg.Telemetry)...)
	errs = append(errs, validateSecurity(cfg.Security)...)

	return errors.Join(errs...)
}

func validateLogging(l LoggingConfig) []error {
	var errs []error
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: logging.level %q is not one of debug, info, warn, error", l.Level))
	}
	switch l.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: logging.format %q is not one of text, json", l.Format))
	}
	return errs
}

func validateTelemetry(t *TelemetryConfig) []error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.Endpoint == "" {
		errs = append(errs, errors.New("config: telemetry.endpoint is required when telemetry is set"))
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("config: telemetry.sample_ratio %v must be within [0, 1]", t.SampleRatio))
	}
	return errs
}

func validateSecurity(sec *SecurityConfig) []error {
	if sec == nil {
		return nil
	}
	var errs []error
	if sec.RateLimits.AuthPerMin < 0 {
		errs = append(errs, errors.New("config: security.rate_limits.auth_per_min must not be negative"))
	}
	if sec.RateLimits.PostsPerMin < 0 {
		errs = append(errs, errors.New("config: security.rate_limits.posts_per_min must not be negative"))
	}
	return errs
}
