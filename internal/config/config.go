// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Run       RunConfig       `mapstructure:"run"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Progress  ProgressConfig  `mapstructure:"progress"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RunConfig governs the listing/detail pipeline.
type RunConfig struct {
	DetailWorkers    int    `mapstructure:"detail_workers"`
	MaxListingPages  int    `mapstructure:"max_listing_pages"`
	MaxScrollPasses  int    `mapstructure:"max_scroll_passes"`
	ScrollStep       int    `mapstructure:"scroll_step"`
	ScrollSettleMs   int    `mapstructure:"scroll_settle_ms"`
	MarkerTimeoutSec int    `mapstructure:"marker_timeout_seconds"`
	TaskTimeoutSec   int    `mapstructure:"task_timeout_seconds"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	DetailDelayMs    int    `mapstructure:"detail_delay_ms"`
	ArtifactPrefix   string `mapstructure:"artifact_prefix"`
}

// BrowserConfig configures the shared browser runtime.
type BrowserConfig struct {
	UserAgent     string  `mapstructure:"user_agent"`
	MaxTabs       int     `mapstructure:"max_tabs"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS     float64 `mapstructure:"domain_qps"`
	Headless      bool    `mapstructure:"headless"`
	WindowWidth   int     `mapstructure:"window_width"`
	WindowHeight  int     `mapstructure:"window_height"`
}

// FetcherConfig configures the static probe client.
type FetcherConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TimeoutSec int  `mapstructure:"timeout_seconds"`
}

// DetectorConfig tunes the render-promotion heuristic.
type DetectorConfig struct {
	MinHTMLBytes int      `mapstructure:"min_html_bytes"`
	Selectors    []string `mapstructure:"selectors"`
	Keywords     []string `mapstructure:"keywords"`
}

// SinkConfig selects and configures the record sink.
type SinkConfig struct {
	Mode     string             `mapstructure:"mode"`
	JSONL    JSONLSinkConfig    `mapstructure:"jsonl"`
	Postgres PostgresSinkConfig `mapstructure:"postgres"`
}

// JSONLSinkConfig configures the append-only file sink.
type JSONLSinkConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresSinkConfig controls access to the relational record table.
type PostgresSinkConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArtifactsConfig selects where debug artifacts land.
type ArtifactsConfig struct {
	Mode      string `mapstructure:"mode"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for per-record completion events.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ProgressConfig toggles progress sinks.
type ProgressConfig struct {
	LogEvents     bool   `mapstructure:"log_events"`
	PostgresTable string `mapstructure:"postgres_table"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Sink modes.
const (
	SinkJSONL    = "jsonl"
	SinkPostgres = "postgres"
)

// Artifact modes.
const (
	ArtifactsNone  = "none"
	ArtifactsLocal = "local"
	ArtifactsGCS   = "gcs"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("JOBSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("run.detail_workers", 4)
	v.SetDefault("run.max_listing_pages", 20)
	v.SetDefault("run.max_scroll_passes", 12)
	v.SetDefault("run.scroll_step", 1600)
	v.SetDefault("run.scroll_settle_ms", 600)
	v.SetDefault("run.marker_timeout_seconds", 10)
	v.SetDefault("run.task_timeout_seconds", 45)
	v.SetDefault("run.max_attempts", 3)
	v.SetDefault("run.detail_delay_ms", 500)
	v.SetDefault("run.artifact_prefix", "debug")
	v.SetDefault("browser.user_agent", "jobsift/0.1")
	v.SetDefault("browser.max_tabs", 4)
	v.SetDefault("browser.nav_timeout_seconds", 25)
	v.SetDefault("browser.domain_qps", 1.0)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("fetcher.enabled", true)
	v.SetDefault("fetcher.timeout_seconds", 15)
	v.SetDefault("detector.min_html_bytes", 2048)
	v.SetDefault("detector.keywords", []string{"enable javascript", "loading..."})
	v.SetDefault("sink.mode", SinkJSONL)
	v.SetDefault("sink.jsonl.path", "records.jsonl")
	v.SetDefault("sink.postgres.table", "job_records")
	v.SetDefault("artifacts.mode", ArtifactsLocal)
	v.SetDefault("artifacts.local_dir", "artifacts")
	v.SetDefault("logging.development", true)
	v.SetDefault("progress.log_events", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Run.DetailWorkers <= 0 {
		return fmt.Errorf("run.detail_workers must be > 0")
	}
	if c.Browser.MaxTabs <= 0 {
		return fmt.Errorf("browser.max_tabs must be > 0")
	}
	switch c.Sink.Mode {
	case SinkJSONL:
		if c.Sink.JSONL.Path == "" {
			return fmt.Errorf("sink.jsonl.path must be set")
		}
	case SinkPostgres:
		if c.Sink.Postgres.DSN == "" {
			return fmt.Errorf("sink.postgres.dsn must be set")
		}
	default:
		return fmt.Errorf("unknown sink.mode %q", c.Sink.Mode)
	}
	switch c.Artifacts.Mode {
	case ArtifactsNone:
	case ArtifactsLocal:
		if c.Artifacts.LocalDir == "" {
			return fmt.Errorf("artifacts.local_dir must be set")
		}
	case ArtifactsGCS:
		if c.Artifacts.GCSBucket == "" {
			return fmt.Errorf("artifacts.gcs_bucket must be set")
		}
	default:
		return fmt.Errorf("unknown artifacts.mode %q", c.Artifacts.Mode)
	}
	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when a topic is configured")
	}
	return nil
}

// NavTimeout converts the browser navigation budget into a duration.
func (c BrowserConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSec) * time.Second
}

// FetchTimeout converts the static probe budget into a duration.
func (c FetcherConfig) FetchTimeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ScrollSettle converts the per-pass scroll wait into a duration.
func (c RunConfig) ScrollSettle() time.Duration {
	return time.Duration(c.ScrollSettleMs) * time.Millisecond
}

// MarkerTimeout converts the listing marker wait into a duration.
func (c RunConfig) MarkerTimeout() time.Duration {
	return time.Duration(c.MarkerTimeoutSec) * time.Second
}

// TaskTimeout converts the per-attempt detail budget into a duration.
func (c RunConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSec) * time.Second
}

// DetailDelay converts the politeness pause into a duration.
func (c RunConfig) DetailDelay() time.Duration {
	return time.Duration(c.DetailDelayMs) * time.Millisecond
}
