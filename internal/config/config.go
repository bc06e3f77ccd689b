// Package config loads and validates processor configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all processor configuration knobs loaded via Viper.
type Config struct {
	Processing ProcessingConfig `mapstructure:"processing"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	AI         AIConfig         `mapstructure:"ai"`
	Notes      NotesConfig      `mapstructure:"notes"`
	History    HistoryConfig    `mapstructure:"history"`
	Events     EventsConfig     `mapstructure:"events"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ProcessingConfig governs the run loop.
type ProcessingConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxItems    int `mapstructure:"max_items"`
}

// FetchConfig configures the content extraction tiers.
type FetchConfig struct {
	TimeoutSeconds  int            `mapstructure:"timeout_seconds"`
	UserAgent       string         `mapstructure:"user_agent"`
	MinContentChars int            `mapstructure:"min_content_chars"`
	Reader          ReaderConfig   `mapstructure:"reader"`
	Headless        HeadlessConfig `mapstructure:"headless"`
}

// ReaderConfig configures the reader-proxy tier.
type ReaderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HeadlessConfig configures the browser rendering tier.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// AIConfig configures the summarization client.
type AIConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	MaxContentChars   int     `mapstructure:"max_content_chars"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxRetries        int     `mapstructure:"max_retries"`
	BackoffBaseSec    int     `mapstructure:"backoff_base_seconds"`
}

// NotesConfig sets the note destination.
type NotesConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// HistoryConfig selects and configures the dedup history backend.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// EventsConfig holds Pub/Sub metadata for note-created notifications.
type EventsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. Environment variables use the
// NOTEPRESS prefix with dots replaced by underscores, for example
// NOTEPRESS_AI_API_KEY.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NOTEPRESS")
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
	v.SetDefault("processing.concurrency", 3)
	v.SetDefault("processing.max_items", 0)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.user_agent", "notepress/0.1 (+https://github.com/clipfeed/notepress)")
	v.SetDefault("fetch.min_content_chars", 200)
	v.SetDefault("fetch.reader.enabled", true)
	v.SetDefault("fetch.reader.endpoint", "https://r.jina.ai")
	v.SetDefault("fetch.headless.enabled", false)
	v.SetDefault("fetch.headless.max_parallel", 1)
	v.SetDefault("fetch.headless.nav_timeout_seconds", 25)
	// Keys without a meaningful default still need registering so
	// AutomaticEnv values survive Unmarshal.
	v.SetDefault("ai.api_key", "")
	v.SetDefault("history.dsn", "")
	v.SetDefault("notes.gcs_bucket", "")
	v.SetDefault("notes.gcs_prefix", "")
	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic_name", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 1024)
	v.SetDefault("ai.max_content_chars", 15000)
	v.SetDefault("ai.requests_per_second", 1.0)
	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.backoff_base_seconds", 2)
	v.SetDefault("notes.dir", "notes")
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.path", "processed_articles.json")
	v.SetDefault("history.table", "processed_articles")
	v.SetDefault("events.enabled", false)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if c.Processing.Concurrency <= 0 {
		return fmt.Errorf("processing.concurrency must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MinContentChars < 0 {
		return fmt.Errorf("fetch.min_content_chars must be >= 0")
	}
	if c.Fetch.Reader.Enabled && c.Fetch.Reader.Endpoint == "" {
		return fmt.Errorf("fetch.reader.endpoint must be set when the reader tier is enabled")
	}
	if c.Fetch.Headless.Enabled && c.Fetch.Headless.MaxParallel <= 0 {
		return fmt.Errorf("fetch.headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.History.Backend {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("history.path must be set for the file backend")
		}
	case "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("history.backend must be file or postgres, got %q", c.History.Backend)
	}
	if c.Events.Enabled && (c.Events.ProjectID == "" || c.Events.TopicName == "") {
		return fmt.Errorf("events.project_id and events.topic_name must be set when events are enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// FetchTimeout returns the per-request fetch budget as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// BackoffBase returns the summarization retry base delay as a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.AI.BackoffBaseSec) * time.Second
}
