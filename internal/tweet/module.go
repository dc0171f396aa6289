package tweet

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/credential"
	"github.com/flemzord/tweetcron/internal/cron"
	"github.com/flemzord/tweetcron/internal/events"
	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/store"
	"github.com/flemzord/tweetcron/internal/telemetry"
)

// Service names published by the scheduler module.
const (
	SchedulerService = "scheduler.tweets"
	CleanerService   = "scheduler.cleaner"
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

// ModuleConfig is the YAML section of scheduler.tweets.
type ModuleConfig struct {
	// Timezone is the IANA zone cron expressions are evaluated in.
	// Empty means the process local zone.
	Timezone string `yaml:"timezone"`
}

// Module runs the cron engine and publishes the Scheduler and Cleaner.
type Module struct {
	config    ModuleConfig
	engine    *cron.Scheduler
	scheduler *Scheduler
	cleaner   *Cleaner
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "scheduler.tweets",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("scheduler: decoding config: %w", err)
	}
	return nil
}

// Provision resolves the credential store and the poster, and builds the
// scheduler. The tweet history, event hub and metrics registry are used
// when present.
func (m *Module) Provision(ctx *core.AppContext) error {
	loc := time.Local
	if m.config.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(m.config.Timezone); err != nil {
			return fmt.Errorf("scheduler: invalid timezone %q: %w", m.config.Timezone, err)
		}
	}

	creds, ok := core.ServiceAs[*credential.Store](ctx, credential.Service)
	if !ok {
		return fmt.Errorf("scheduler: service %q not available", credential.Service)
	}
	p, ok := core.ServiceAs[*poster.Poster](ctx, poster.Service)
	if !ok {
		return fmt.Errorf("scheduler: service %q not available", poster.Service)
	}

	m.engine = cron.NewScheduler(ctx.Logger, cron.WithLocation(loc))

	opts := []Option{WithLogger(ctx.Logger)}
	if h, ok := core.ServiceAs[store.Store](ctx, store.Service); ok {
		opts = append(opts, WithHistory(h))
	}
	if hub, ok := core.ServiceAs[*events.Hub](ctx, events.Service); ok {
		opts = append(opts, WithEvents(hub))
	}
	if reg, ok := core.ServiceAs[prometheus.Registerer](ctx, telemetry.MetricsService); ok {
		opts = append(opts, WithMetrics(NewMetrics(reg, m.engine.Len)))
	}

	m.scheduler = NewScheduler(m.engine, creds, p, opts...)
	m.cleaner = NewCleaner(m.scheduler, creds, ctx.Logger)

	ctx.RegisterService(SchedulerService, m.scheduler)
	ctx.RegisterService(CleanerService, m.cleaner)
	return nil
}

// Start implements core.Starter.
func (m *Module) Start() error {
	return m.engine.Start()
}

// Stop implements core.Stopper. In-flight firings get until ctx expires.
func (m *Module) Stop(ctx context.Context) error {
	return m.engine.Stop(ctx)
}
