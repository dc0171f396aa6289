package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TWEETCRON_TEST_TOKEN", "abc")

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "bind: 127.0.0.1", "bind: 127.0.0.1", false},
		{"set", "token: ${TWEETCRON_TEST_TOKEN}", "token: abc", false},
		{"default unused", "token: ${TWEETCRON_TEST_TOKEN:-x}", "token: abc", false},
		{"default used", "bind: ${TWEETCRON_TEST_UNSET:-:8080}", "bind: :8080", false},
		{"unresolved", "token: ${TWEETCRON_TEST_UNSET}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnv([]byte(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "TWEETCRON_DOTENV_BIND=0.0.0.0:9999\n")
	t.Cleanup(func() { _ = os.Unsetenv("TWEETCRON_DOTENV_BIND") })

	path := filepath.Join(dir, "tweetcron.yaml")
	writeFile(t, path, `version: "1"
logging:
  level: debug
modules:
  gateway.http:
    bind: ${TWEETCRON_DOTENV_BIND}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}

	node, ok := cfg.Modules["gateway.http"]
	if !ok {
		t.Fatal("gateway.http section missing")
	}
	var section struct {
		Bind string `yaml:"bind"`
	}
	if err := node.Decode(&section); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if section.Bind != "0.0.0.0:9999" {
		t.Errorf("Bind = %q, want value from .env", section.Bind)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolve_LoadOrder(t *testing.T) {
	t.Parallel()

	cfg := &Config{Modules: map[string]yaml.Node{
		"gateway.http":     {},
		"scheduler.tweets": {},
		"poster.twitter":   {},
		"store.sqlite":     {},
		"extra.thing":      {},
	}}

	got := Resolve(cfg)
	want := []string{"store.sqlite", "poster.twitter", "scheduler.tweets", "gateway.http", "extra.thing"}
	if !slices.Equal(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
