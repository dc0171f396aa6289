package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/credential"
	"github.com/flemzord/tweetcron/internal/events"
	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/store"
	"github.com/flemzord/tweetcron/internal/telemetry"
	"github.com/flemzord/tweetcron/internal/tweet"
)

func init() {
	core.RegisterModule(&Gateway{})
}

// Interface guards.
var (
	_ core.Configurable = (*Gateway)(nil)
	_ core.Provisioner  = (*Gateway)(nil)
	_ core.Validator    = (*Gateway)(nil)
	_ core.Starter      = (*Gateway)(nil)
	_ core.Stopper      = (*Gateway)(nil)
)

// Gateway is the HTTP gateway module. It serves the tweet, schedule and
// user endpoints plus health, metrics and the events WebSocket. It is a
// leaf module; nothing imports it.
type Gateway struct {
	config Config
	logger *slog.Logger
	server *http.Server
	addr   string

	// baseCtx is cancelled on Stop so long-lived WebSocket streams end.
	baseCtx context.Context
	cancel  context.CancelFunc

	creds     *credential.Store
	scheduler *tweet.Scheduler
	cleaner   *tweet.Cleaner
	poster    *poster.Poster

	// Optional.
	store    store.Store
	hub      *events.Hub
	gatherer prometheus.Gatherer
	metrics  *Metrics
	redactor *security.Redactor
	audit    *security.AuditLogger
	limiter  *security.RateLimiter
}

// ModuleInfo implements core.Module.
func (g *Gateway) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "gateway.http",
		New: func() core.Module { return &Gateway{} },
	}
}

// Configure implements core.Configurable.
func (g *Gateway) Configure(node *yaml.Node) error {
	if err := node.Decode(&g.config); err != nil {
		return fmt.Errorf("gateway: decoding config: %w", err)
	}
	g.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The gateway loads after the
// store, poster and scheduler modules, so their services are resolved here.
func (g *Gateway) Provision(ctx *core.AppContext) error {
	g.config.defaults()
	g.logger = ctx.Logger

	var missing []error
	var ok bool
	if g.creds, ok = core.ServiceAs[*credential.Store](ctx, credential.Service); !ok {
		missing = append(missing, fmt.Errorf("gateway: service %q not available", credential.Service))
	}
	if g.poster, ok = core.ServiceAs[*poster.Poster](ctx, poster.Service); !ok {
		missing = append(missing, fmt.Errorf("gateway: service %q not available", poster.Service))
	}
	if g.scheduler, ok = core.ServiceAs[*tweet.Scheduler](ctx, tweet.SchedulerService); !ok {
		missing = append(missing, fmt.Errorf("gateway: service %q not available", tweet.SchedulerService))
	}
	if g.cleaner, ok = core.ServiceAs[*tweet.Cleaner](ctx, tweet.CleanerService); !ok {
		missing = append(missing, fmt.Errorf("gateway: service %q not available", tweet.CleanerService))
	}
	if g.store, ok = core.ServiceAs[store.Store](ctx, store.Service); !ok {
		missing = append(missing, fmt.Errorf("gateway: service %q not available", store.Service))
	}
	if err := errors.Join(missing...); err != nil {
		return err
	}

	// Optional services. Missing ones degrade the matching endpoints.
	g.hub, _ = core.ServiceAs[*events.Hub](ctx, events.Service)
	g.redactor, _ = core.ServiceAs[*security.Redactor](ctx, security.RedactorService)
	g.audit, _ = core.ServiceAs[*security.AuditLogger](ctx, security.AuditService)
	g.limiter, _ = core.ServiceAs[*security.RateLimiter](ctx, security.RateLimiterService)
	if reg, ok := core.ServiceAs[*prometheus.Registry](ctx, telemetry.MetricsService); ok {
		g.gatherer = reg
		g.metrics = NewMetrics(reg)
	}
	return nil
}

// Validate implements core.Validator.
func (g *Gateway) Validate() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return fmt.Errorf("gateway: invalid bind address %q: %w", g.config.Bind, err)
	}
	return nil
}

// Start implements core.Starter.
func (g *Gateway) Start() error {
	g.baseCtx, g.cancel = context.WithCancel(context.Background())

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		g.cancel()
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	g.addr = ln.Addr().String()
	go func() {
		g.logger.Info("gateway listening", "addr", g.addr)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop implements core.Stopper. Graceful shutdown with configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	g.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
