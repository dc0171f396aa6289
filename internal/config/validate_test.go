package config

import (
	"strings"
	"testing"

	"github.com/flemzord/tweetcron/internal/core"
	"gopkg.in/yaml.v3"
)

// stubModule is a basic module for testing.
type stubModule struct {
	id string
}

func (m *stubModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID(m.id),
		New: func() core.Module { return &stubModule{id: m.id} },
	}
}

// registerStack registers one stub per required namespace, suffixed with the
// test name so registrations from different tests never collide.
func registerStack(t *testing.T) map[string]yaml.Node {
	t.Helper()
	mods := make(map[string]yaml.Node)
	for _, ns := range requiredNamespaces {
		id := ns + "." + t.Name()
		core.RegisterModule(&stubModule{id: id})
		mods[id] = yaml.Node{}
	}
	return mods
}

func TestValidate_Valid(t *testing.T) {
	cfg := &Config{Version: "1", Modules: registerStack(t)}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingVersion(t *testing.T) {
	cfg := &Config{Modules: registerStack(t)}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "version field is required") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	cfg := &Config{Version: "2", Modules: registerStack(t)}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), `unsupported version "2"`) {
		t.Fatalf("expected unsupported version error, got %v", err)
	}
}

func TestValidate_EmptyModules(t *testing.T) {
	err := Validate(&Config{Version: "1"})
	if err == nil || !strings.Contains(err.Error(), "at least one module") {
		t.Fatalf("expected empty modules error, got %v", err)
	}
}

func TestValidate_UnknownModule(t *testing.T) {
	mods := registerStack(t)
	mods["store.nope"] = yaml.Node{}

	err := Validate(&Config{Version: "1", Modules: mods})
	if err == nil || !strings.Contains(err.Error(), `unknown module "store.nope"`) {
		t.Fatalf("expected unknown module error, got %v", err)
	}
}

func TestValidate_MissingRequiredNamespace(t *testing.T) {
	mods := registerStack(t)
	delete(mods, "poster."+t.Name())

	err := Validate(&Config{Version: "1", Modules: mods})
	if err == nil || !strings.Contains(err.Error(), `no "poster" module configured`) {
		t.Fatalf("expected missing namespace error, got %v", err)
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := &Config{
		Modules:   registerStack(t),
		Logging:   LoggingConfig{Level: "loud", Format: "xml"},
		Telemetry: &TelemetryConfig{SampleRatio: 2},
		Security:  &SecurityConfig{RateLimits: RateLimitConfig{AuthPerMin: -1}},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{
		"version field is required",
		"logging.level",
		"logging.format",
		"telemetry.endpoint",
		"sample_ratio",
		"auth_per_min",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}
