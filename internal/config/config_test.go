package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
run:
  detail_workers: 6
  max_listing_pages: 5
  task_timeout_seconds: 30
browser:
  user_agent: jobsift-test
  max_tabs: 2
  nav_timeout_seconds: 20
  headless: false
fetcher:
  enabled: false
detector:
  min_html_bytes: 4096
  selectors: ['[data-cy="jobTitle"]']
sink:
  mode: postgres
  postgres:
    dsn: postgres://localhost/jobs
    table: scraped_jobs
artifacts:
  mode: gcs
  gcs_bucket: jobsift-debug
pubsub:
  project_id: acme-proj
  topic: job-records
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Run.DetailWorkers != 6 || cfg.Run.MaxListingPages != 5 {
		t.Fatalf("expected run overrides to apply: %+v", cfg.Run)
	}
	if cfg.Browser.UserAgent != "jobsift-test" || cfg.Browser.Headless {
		t.Fatalf("expected browser overrides to apply: %+v", cfg.Browser)
	}
	if cfg.Fetcher.Enabled {
		t.Fatal("expected fetcher to be disabled")
	}
	if cfg.Sink.Mode != SinkPostgres || cfg.Sink.Postgres.Table != "scraped_jobs" {
		t.Fatalf("expected postgres sink overrides: %+v", cfg.Sink)
	}
	if cfg.Artifacts.Mode != ArtifactsGCS || cfg.Artifacts.GCSBucket != "jobsift-debug" {
		t.Fatalf("expected gcs artifact overrides: %+v", cfg.Artifacts)
	}
	if cfg.PubSub.Topic != "job-records" {
		t.Fatalf("expected pubsub topic, got %q", cfg.PubSub.Topic)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
	if got := cfg.Run.TaskTimeout(); got != 30*time.Second {
		t.Fatalf("expected task timeout 30s, got %v", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sink.Mode != SinkJSONL || cfg.Sink.JSONL.Path == "" {
		t.Fatalf("expected jsonl sink defaults: %+v", cfg.Sink)
	}
	if cfg.Run.DetailWorkers != 4 {
		t.Fatalf("expected 4 detail workers, got %d", cfg.Run.DetailWorkers)
	}
	if !cfg.Browser.Headless {
		t.Fatal("expected headless browsing by default")
	}
	if got := cfg.Run.DetailDelay(); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms detail delay, got %v", got)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		Run:       RunConfig{DetailWorkers: 4},
		Browser:   BrowserConfig{MaxTabs: 2},
		Sink:      SinkConfig{Mode: SinkJSONL, JSONL: JSONLSinkConfig{Path: "out.jsonl"}},
		Artifacts: ArtifactsConfig{Mode: ArtifactsNone},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "invalid workers",
			cfg: func() Config {
				c := base
				c.Run.DetailWorkers = 0
				return c
			}(),
			want: "run.detail_workers",
		},
		{
			name: "invalid tabs",
			cfg: func() Config {
				c := base
				c.Browser.MaxTabs = 0
				return c
			}(),
			want: "browser.max_tabs",
		},
		{
			name: "unknown sink mode",
			cfg: func() Config {
				c := base
				c.Sink.Mode = "kafka"
				return c
			}(),
			want: "sink.mode",
		},
		{
			name: "postgres sink missing dsn",
			cfg: func() Config {
				c := base
				c.Sink = SinkConfig{Mode: SinkPostgres}
				return c
			}(),
			want: "sink.postgres.dsn",
		},
		{
			name: "gcs artifacts missing bucket",
			cfg: func() Config {
				c := base
				c.Artifacts = ArtifactsConfig{Mode: ArtifactsGCS}
				return c
			}(),
			want: "artifacts.gcs_bucket",
		},
		{
			name: "pubsub topic without project",
			cfg: func() Config {
				c := base
				c.PubSub.Topic = "records"
				return c
			}(),
			want: "pubsub.project_id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
