// Package config defines the configuration of the decision engine and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

// Config is the root configuration. Fields are populated from a TOML or YAML
// file and then optionally overridden by TRADEALGO_* environment variables.
type Config struct {
	Mode       string          `toml:"mode" yaml:"mode"`
	LogLevel   string          `toml:"log_level" yaml:"log_level"`
	Run        RunConfig       `toml:"run" yaml:"run"`
	Feed       FeedConfig      `toml:"feed" yaml:"feed"`
	Sink       SinkConfig      `toml:"sink" yaml:"sink"`
	Postgres   PostgresConfig  `toml:"postgres" yaml:"postgres"`
	Redis      RedisConfig     `toml:"redis" yaml:"redis"`
	S3         S3Config        `toml:"s3" yaml:"s3"`
	Metrics    MetricsConfig   `toml:"metrics" yaml:"metrics"`
	API        APIConfig       `toml:"api" yaml:"api"`
	Notify     NotifyConfig    `toml:"notify" yaml:"notify"`
	Strategies strategy.Params `toml:"strategies" yaml:"strategies"`
}

// RunConfig selects what is traded. Every strategy runs on every symbol.
type RunConfig struct {
	Symbols    []string `toml:"symbols" yaml:"symbols"`
	Strategies []string `toml:"strategies" yaml:"strategies"`
	Capacity   int      `toml:"capacity" yaml:"capacity"`
	RunID      string   `toml:"run_id" yaml:"run_id"` // generated when empty
}

// Feed kinds.
const (
	FeedCSV       = "csv"
	FeedS3        = "s3"
	FeedPostgres  = "postgres"
	FeedWebsocket = "websocket"
)

// FeedConfig picks the bar source. Path and Key may contain "{symbol}".
type FeedConfig struct {
	Kind      string `toml:"kind" yaml:"kind"`
	Path      string `toml:"path" yaml:"path"`
	Key       string `toml:"key" yaml:"key"`
	URL       string `toml:"url" yaml:"url"`
	Timeframe string `toml:"timeframe" yaml:"timeframe"`
	Since     string `toml:"since" yaml:"since"` // RFC3339, postgres feed only
	Until     string `toml:"until" yaml:"until"`
}

// ForSymbol expands "{symbol}" in s.
func ForSymbol(s, symbol string) string {
	return strings.ReplaceAll(s, "{symbol}", symbol)
}

// Window parses Since and Until. Empty values give zero times.
func (f FeedConfig) Window() (since, until time.Time, err error) {
	if f.Since != "" {
		if since, err = time.Parse(time.RFC3339, f.Since); err != nil {
			return since, until, fmt.Errorf("feed.since: %w", err)
		}
	}
	if f.Until != "" {
		if until, err = time.Parse(time.RFC3339, f.Until); err != nil {
			return since, until, fmt.Errorf("feed.until: %w", err)
		}
	}
	return since, until, nil
}

// SinkConfig selects where intents go. The log sink is always on.
type SinkConfig struct {
	Journal       string `toml:"journal" yaml:"journal"` // JSONL path, "{run_id}" expanded
	Postgres      bool   `toml:"postgres" yaml:"postgres"`
	Redis         bool   `toml:"redis" yaml:"redis"`
	RedisStream   string `toml:"redis_stream" yaml:"redis_stream"`
	UploadJournal bool   `toml:"upload_journal" yaml:"upload_journal"`
	ArchivePrefix string `toml:"archive_prefix" yaml:"archive_prefix"`
	RecordRuns    bool   `toml:"record_runs" yaml:"record_runs"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn" yaml:"dsn"`
	Host          string `toml:"host" yaml:"host"`
	Port          int    `toml:"port" yaml:"port"`
	Database      string `toml:"database" yaml:"database"`
	User          string `toml:"user" yaml:"user"`
	Password      string `toml:"password" yaml:"password"`
	SSLMode       string `toml:"ssl_mode" yaml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns" yaml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns" yaml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations" yaml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr" yaml:"addr"`
	Password   string `toml:"password" yaml:"password"`
	DB         int    `toml:"db" yaml:"db"`
	PoolSize   int    `toml:"pool_size" yaml:"pool_size"`
	MaxRetries int    `toml:"max_retries" yaml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled" yaml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint" yaml:"endpoint"`
	Region         string `toml:"region" yaml:"region"`
	Bucket         string `toml:"bucket" yaml:"bucket"`
	AccessKey      string `toml:"access_key" yaml:"access_key"`
	SecretKey      string `toml:"secret_key" yaml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl" yaml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style" yaml:"force_path_style"`
}

// MetricsConfig holds the prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// APIConfig holds the status API. An empty Addr disables it.
type APIConfig struct {
	Addr   string `toml:"addr" yaml:"addr"`
	APIKey string `toml:"api_key" yaml:"api_key"`
}

// NotifyConfig holds chat alert settings. Events lists intent actions and
// "run"; empty means all.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token" yaml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id" yaml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url" yaml:"discord_webhook_url"`
	Events            []string `toml:"events" yaml:"events"`
}

// Defaults returns a Config populated with the stock values.
func Defaults() Config {
	return Config{
		Mode:     "backtest",
		LogLevel: "info",
		Run: RunConfig{
			Strategies: []string{strategy.NameBreakout},
			Capacity:   5000,
		},
		Feed: FeedConfig{
			Kind:      FeedCSV,
			Path:      "data/{symbol}.csv",
			Timeframe: "1m",
		},
		Sink: SinkConfig{
			RedisStream:   "tradealgo:intents",
			ArchivePrefix: "tradealgo",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "tradealgo",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "tradealgo-data",
			ForcePathStyle: true,
		},
		Strategies: strategy.DefaultParams(),
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"backtest": true,
	"stream":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validFeeds = map[string]bool{
	FeedCSV:       true,
	FeedS3:        true,
	FeedPostgres:  true,
	FeedWebsocket: true,
}

var validEvents = map[string]bool{
	"open_long":  true,
	"open_short": true,
	"add_layer":  true,
	"close":      true,
	"run":        true,
}

// NeedsPostgres reports whether any enabled component uses the database.
func (c *Config) NeedsPostgres() bool {
	return c.Feed.Kind == FeedPostgres || c.Sink.Postgres || c.Sink.RecordRuns
}

// NeedsS3 reports whether any enabled component uses object storage.
func (c *Config) NeedsS3() bool {
	return c.Feed.Kind == FeedS3 || c.Sink.UploadJournal
}

// Validate checks Config for invalid or missing values and returns a combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: backtest, stream)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Run
	if len(c.Run.Symbols) == 0 {
		errs = append(errs, "run: symbols must not be empty")
	}
	if len(c.Run.Strategies) == 0 {
		errs = append(errs, "run: strategies must not be empty")
	}
	for _, err := range c.Strategies.Validate(c.Run.Strategies) {
		for _, line := range strings.Split(err.Error(), "\n") {
			errs = append(errs, "strategies: "+line)
		}
	}
	if need := c.Strategies.MaxWindow(c.Run.Strategies); c.Run.Capacity < need {
		errs = append(errs, fmt.Sprintf("run: capacity %d is smaller than the longest strategy window %d", c.Run.Capacity, need))
	}

	// Feed
	if !validFeeds[c.Feed.Kind] {
		errs = append(errs, fmt.Sprintf("feed: unknown kind %q (valid: csv, s3, postgres, websocket)", c.Feed.Kind))
	}
	switch c.Feed.Kind {
	case FeedCSV:
		if c.Feed.Path == "" {
			errs = append(errs, "feed: path is required for csv")
		}
	case FeedS3:
		if c.Feed.Key == "" {
			errs = append(errs, "feed: key is required for s3")
		}
	case FeedWebsocket:
		if c.Feed.URL == "" {
			errs = append(errs, "feed: url is required for websocket")
		}
	}
	if mode == "stream" && c.Feed.Kind != FeedWebsocket {
		errs = append(errs, "feed: stream mode requires the websocket feed")
	}
	if _, _, err := c.Feed.Window(); err != nil {
		errs = append(errs, err.Error())
	}

	// Sinks and their backends
	if c.Sink.UploadJournal && c.Sink.Journal == "" {
		errs = append(errs, "sink: upload_journal requires a journal path")
	}
	if c.NeedsPostgres() && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}
	if c.Sink.Redis && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.NeedsS3() {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, e := range c.Notify.Events {
		if !validEvents[strings.TrimSpace(e)] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q", e))
		}
	}
	if c.API.Addr != "" && c.API.Addr == c.Metrics.Addr {
		errs = append(errs, "api: addr must differ from metrics.addr (the api already serves /metrics)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
