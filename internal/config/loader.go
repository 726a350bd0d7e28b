package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load merges the file at path (TOML, or YAML for .yaml/.yml) over the
// defaults, then applies TRADEALGO_* environment overrides. An empty path
// skips the file. The result is NOT validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides overwrites fields whose TRADEALGO_* variable is set and
// non-empty. Secrets are expected to arrive this way.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Mode, "TRADEALGO_MODE")
	setStr(&cfg.LogLevel, "TRADEALGO_LOG_LEVEL")

	// ── Run ──
	setStringSlice(&cfg.Run.Symbols, "TRADEALGO_RUN_SYMBOLS")
	setStringSlice(&cfg.Run.Strategies, "TRADEALGO_RUN_STRATEGIES")
	setInt(&cfg.Run.Capacity, "TRADEALGO_RUN_CAPACITY")
	setStr(&cfg.Run.RunID, "TRADEALGO_RUN_ID")

	// ── Feed ──
	setStr(&cfg.Feed.Kind, "TRADEALGO_FEED_KIND")
	setStr(&cfg.Feed.Path, "TRADEALGO_FEED_PATH")
	setStr(&cfg.Feed.Key, "TRADEALGO_FEED_KEY")
	setStr(&cfg.Feed.URL, "TRADEALGO_FEED_URL")
	setStr(&cfg.Feed.Timeframe, "TRADEALGO_FEED_TIMEFRAME")
	setStr(&cfg.Feed.Since, "TRADEALGO_FEED_SINCE")
	setStr(&cfg.Feed.Until, "TRADEALGO_FEED_UNTIL")

	// ── Sink ──
	setStr(&cfg.Sink.Journal, "TRADEALGO_SINK_JOURNAL")
	setBool(&cfg.Sink.Postgres, "TRADEALGO_SINK_POSTGRES")
	setBool(&cfg.Sink.Redis, "TRADEALGO_SINK_REDIS")
	setStr(&cfg.Sink.RedisStream, "TRADEALGO_SINK_REDIS_STREAM")
	setBool(&cfg.Sink.UploadJournal, "TRADEALGO_SINK_UPLOAD_JOURNAL")
	setBool(&cfg.Sink.RecordRuns, "TRADEALGO_SINK_RECORD_RUNS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TRADEALGO_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "TRADEALGO_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRADEALGO_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRADEALGO_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRADEALGO_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRADEALGO_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRADEALGO_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRADEALGO_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRADEALGO_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRADEALGO_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRADEALGO_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADEALGO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADEALGO_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADEALGO_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADEALGO_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADEALGO_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TRADEALGO_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADEALGO_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADEALGO_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADEALGO_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADEALGO_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADEALGO_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADEALGO_S3_FORCE_PATH_STYLE")

	// ── Metrics ──
	setStr(&cfg.Metrics.Addr, "TRADEALGO_METRICS_ADDR")

	// ── API ──
	setStr(&cfg.API.Addr, "TRADEALGO_API_ADDR")
	setStr(&cfg.API.APIKey, "TRADEALGO_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADEALGO_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRADEALGO_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADEALGO_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRADEALGO_NOTIFY_EVENTS")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
