package twitter

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tweetcron/internal/core"
	"github.com/flemzord/tweetcron/internal/poster"
)

func TestModuleInfo(t *testing.T) {
	t.Parallel()

	info := (&Twitter{}).ModuleInfo()
	if info.ID != "poster.twitter" {
		t.Errorf("ID = %q, want %q", info.ID, "poster.twitter")
	}
	if _, ok := info.New().(*Twitter); !ok {
		t.Errorf("New() returned %T, want *Twitter", info.New())
	}
}

func TestConfigureAndProvision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "defaults applied",
			yaml: `client_id: abc`,
			check: func(t *testing.T, c Config) {
				t.Helper()
				if c.APIURL != defaultAPIURL {
					t.Errorf("APIURL = %q", c.APIURL)
				}
				if c.UploadURL != defaultUploadURL {
					t.Errorf("UploadURL = %q", c.UploadURL)
				}
				if c.ThreadDelay != "1s" {
					t.Errorf("ThreadDelay = %q", c.ThreadDelay)
				}
			},
		},
		{
			name: "custom values",
			yaml: `
api_url: http://localhost:9000
upload_url: http://localhost:9001
timeout: 5s
thread_delay: 0s
`,
			check: func(t *testing.T, c Config) {
				t.Helper()
				if c.APIURL != "http://localhost:9000" {
					t.Errorf("APIURL = %q", c.APIURL)
				}
				if c.Timeout != "5s" {
					t.Errorf("Timeout = %q", c.Timeout)
				}
			},
		},
		{
			name:    "bad timeout",
			yaml:    `timeout: soon`,
			wantErr: true,
		},
		{
			name:    "negative delay",
			yaml:    `thread_delay: -1s`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var node yaml.Node
			if err := yaml.Unmarshal([]byte(tt.yaml), &node); err != nil {
				t.Fatal(err)
			}
			tw := &Twitter{}
			if err := tw.Configure(node.Content[0]); err != nil {
				t.Fatalf("Configure: %v", err)
			}

			appCtx := core.NewAppContext(nil, t.TempDir())
			err := tw.Provision(appCtx)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Provision: %v", err)
			}
			if err := tw.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			tt.check(t, tw.config)

			if _, ok := core.ServiceAs[*poster.Poster](appCtx, poster.Service); !ok {
				t.Error("poster service not registered")
			}
			if _, ok := core.ServiceAs[poster.Client](appCtx, poster.ClientService); !ok {
				t.Error("poster client not registered")
			}
		})
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	t.Parallel()

	tw := &Twitter{config: Config{APIURL: "ftp://x", UploadURL: defaultUploadURL}}
	if err := tw.Validate(); err == nil {
		t.Error("expected error for ftp scheme")
	}
	tw = &Twitter{config: Config{APIURL: defaultAPIURL, UploadURL: "https://"}}
	if err := tw.Validate(); err == nil {
		t.Error("expected error for missing host")
	}
}
