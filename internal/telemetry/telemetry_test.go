package telemetry

import (
	"context"
	"testing"

	"github.com/flemzord/tweetcron/internal/config"
)

func TestNewRegistry_GathersRuntimeMetrics(t *testing.T) {
	t.Parallel()

	families, err := NewRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("go_goroutines not exported")
	}
}

func TestSetupTracing_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*config.TelemetryConfig{nil, {}} {
		shutdown, err := SetupTracing(context.Background(), cfg, "test")
		if err != nil {
			t.Fatalf("SetupTracing: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}
}
