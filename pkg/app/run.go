// Package app provides the entry point shared by the tweetcron commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/flemzord/tweetcron/internal/config"
	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/credential"
	"github.com/flemzord/tweetcron/internal/events"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/store"
	"github.com/flemzord/tweetcron/internal/telemetry"
)

const pruneInterval = time.Minute

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// DataDir overrides the default persistent data directory.
	DataDir string

	// LogLevel overrides logging.level from the config file when set.
	LogLevel string

	// Stderr receives log output. Defaults to os.Stderr.
	Stderr io.Writer
}

// Run loads configuration, starts all modules, and blocks until SIGINT or
// SIGTERM is received.
func Run(params RunParams) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, params)
}

// RunContext is Run with an explicit lifetime: modules are stopped when ctx
// is done.
func RunContext(ctx context.Context, params RunParams) error {
	rt, err := setup(params)
	if err != nil {
		return err
	}
	defer rt.close()

	shutdownTracing, err := telemetry.SetupTracing(ctx, rt.cfg.Telemetry, params.Version)
	if err != nil {
		rt.app.Close()
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			rt.logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	rt.logger.Info("tweetcron starting",
		"version", params.Version,
		"commit", params.Commit,
		"config", rt.cfgPath,
		"data_dir", rt.dataDir,
	)

	if rt.limiter.Enabled() {
		go pruneLimiter(ctx, rt.limiter)
	}
	return rt.app.Run(ctx)
}

// Check loads and validates the configuration, provisions every module
// without starting it, and returns the module IDs in load order.
func Check(params RunParams) ([]string, error) {
	rt, err := setup(params)
	if err != nil {
		return nil, err
	}
	defer rt.close()
	defer rt.app.Close()

	ids := make([]string, 0, len(rt.app.Modules()))
	for _, id := range rt.app.Modules() {
		ids = append(ids, string(id))
	}
	return ids, nil
}

// runtime is a provisioned but not yet started application.
type runtime struct {
	cfg     *config.Config
	cfgPath string
	dataDir string
	logger  *slog.Logger
	limiter *security.RateLimiter
	app     *core.App
	closers []func() error
}

func (rt *runtime) close() {
	for _, c := range slices.Backward(rt.closers) {
		_ = c()
	}
}

func setup(params RunParams) (*runtime, error) {
	rt := &runtime{cfgPath: params.ConfigPath}
	if rt.cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		rt.cfgPath = resolved
	}

	cfg, err := config.Load(rt.cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	rt.cfg = cfg

	redactor := security.NewRedactor()
	rt.logger, err = NewLogger(cfg.Logging, params.LogLevel, params.Stderr, redactor)
	if err != nil {
		return nil, err
	}

	auditCfg := security.AuditLoggerConfig{Redactor: redactor}
	var limits config.RateLimitConfig
	if cfg.Security != nil {
		limits = cfg.Security.RateLimits
		if cfg.Security.AuditLog != "" {
			f, err := os.OpenFile(cfg.Security.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return nil, fmt.Errorf("opening audit log: %w", err)
			}
			rt.closers = append(rt.closers, f.Close)
			auditCfg.Writer = f
		}
	}
	rt.limiter = security.NewRateLimiter(security.RateLimitConfig{
		AuthPerMin:  limits.AuthPerMin,
		PostsPerMin: limits.PostsPerMin,
	})

	rt.dataDir = params.DataDir
	if rt.dataDir == "" {
		rt.dataDir = DefaultDataDir()
	}

	appCtx := core.NewAppContext(rt.logger, rt.dataDir)
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	// Process-wide services. A configured store module replaces the
	// in-memory one during Provision.
	appCtx.RegisterService(credential.Service, credential.NewStore())
	appCtx.RegisterService(events.Service, events.NewHub(rt.logger))
	appCtx.RegisterService(telemetry.MetricsService, telemetry.NewRegistry())
	appCtx.RegisterService(store.Service, store.Store(store.NewMemory()))
	appCtx.RegisterService(security.RedactorService, redactor)
	appCtx.RegisterService(security.AuditService, security.NewAuditLogger(auditCfg))
	appCtx.RegisterService(security.RateLimiterService, rt.limiter)

	rt.app = core.NewApp(appCtx)
	if err := rt.app.LoadModules(config.Resolve(cfg)); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

// NewLogger builds the process logger: a text or JSON handler on w, wrapped
// so that every record passes through redactor. override, when non-empty,
// takes precedence over cfg.Level.
func NewLogger(cfg config.LoggingConfig, override string, w io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if name := strings.TrimSpace(firstNonEmpty(override, cfg.Level)); name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", name, err)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pruneLimiter(ctx context.Context, rl *security.RateLimiter) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/tweetcron/tweetcron.yaml → ~/.config/tweetcron/tweetcron.yaml → ./tweetcron.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "tweetcron", "tweetcron.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "tweetcron", "tweetcron.yaml"))
	}

	candidates = append(candidates, "tweetcron.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultDataDir returns the default persistent data directory.
// Uses $XDG_DATA_HOME/tweetcron if set, otherwise ~/.local/share/tweetcron.
func DefaultDataDir() string {
	if dir, ok := os.LookupEnv("XDG_DATA_HOME"); ok && dir != "" {
		return filepath.Join(dir, "tweetcron")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tweetcron")
}
