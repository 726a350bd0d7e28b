package config

import (
	"strings"
	"testing"

	"github.com/jackleZac/trading-algorithm/internal/session"
	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

func TestDefaultsAreValidOnceSymbolsAreSet(t *testing.T) {
	cfg := Defaults()
	cfg.Run.Symbols = []string{"XAUUSD"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load("testdata/config.toml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %q", cfg.LogLevel)
	}
	if len(cfg.Run.Symbols) != 2 || cfg.Run.Symbols[1] != "EURUSD" {
		t.Fatalf("expected two symbols, got %v", cfg.Run.Symbols)
	}
	if cfg.Run.Capacity != 2000 {
		t.Fatalf("expected capacity 2000, got %d", cfg.Run.Capacity)
	}
	b := cfg.Strategies.Breakout
	if b.BaseLayerSize != 0.02 || b.MaxLayers != 4 {
		t.Fatalf("expected breakout overrides, got %+v", b)
	}
	if len(b.Sessions) != 1 || b.Sessions[0] != (session.Band{Start: 7, End: 15}) {
		t.Fatalf("expected one 7-15 session, got %v", b.Sessions)
	}
	// Fields absent from the file keep their defaults.
	def := strategy.DefaultParams()
	if cfg.Strategies.SRTrend.EMAFast != 10 || cfg.Strategies.SRTrend.EMASlow != def.SRTrend.EMASlow {
		t.Fatalf("expected ema_fast 10 and default ema_slow, got %+v", cfg.Strategies.SRTrend)
	}
	if cfg.Postgres.Port != 5432 {
		t.Fatalf("expected default postgres port, got %d", cfg.Postgres.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load("testdata/config.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "stream" || cfg.Feed.Kind != FeedWebsocket {
		t.Fatalf("expected stream over websocket, got %q/%q", cfg.Mode, cfg.Feed.Kind)
	}
	if !cfg.Sink.Redis || cfg.Sink.RedisStream != "bars:intents" {
		t.Fatalf("expected redis sink on bars:intents, got %+v", cfg.Sink)
	}
	lv := cfg.Strategies.DualMode.Levels
	if len(lv) != 2 || lv[1].Timeframe != "15m" || lv[1].Period != 10 {
		t.Fatalf("expected two level sources, got %+v", lv)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/nope.toml"); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADEALGO_RUN_SYMBOLS", "GBPUSD, USDJPY ,")
	t.Setenv("TRADEALGO_RUN_CAPACITY", "750")
	t.Setenv("TRADEALGO_SINK_POSTGRES", "true")
	t.Setenv("TRADEALGO_POSTGRES_PASSWORD", "s3cret")
	t.Setenv("TRADEALGO_REDIS_DB", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Run.Symbols) != 2 || cfg.Run.Symbols[1] != "USDJPY" {
		t.Fatalf("expected trimmed symbols, got %v", cfg.Run.Symbols)
	}
	if cfg.Run.Capacity != 750 || !cfg.Sink.Postgres || cfg.Postgres.Password != "s3cret" {
		t.Fatalf("expected env overrides applied, got %+v", cfg)
	}
	if cfg.Redis.DB != 0 {
		t.Fatalf("expected unparsable int to be ignored, got %d", cfg.Redis.DB)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "paper"
	cfg.Run.Strategies = []string{strategy.NameSRTrend, "grid"}
	cfg.Run.Capacity = 10
	cfg.Feed.Kind = FeedS3
	cfg.Sink.UploadJournal = true
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "config validation failed:") {
		t.Fatalf("expected combined message, got %q", msg)
	}
	for _, want := range []string{
		`unknown mode "paper"`,
		"run: symbols must not be empty",
		`strategy "grid" is not registered`,
		"capacity 10 is smaller",
		"feed: key is required for s3",
		"upload_journal requires a journal path",
		"s3: bucket must not be empty",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in:\n%s", want, msg)
		}
	}
}

func TestValidateStreamNeedsWebsocket(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "stream"
	cfg.Run.Symbols = []string{"XAUUSD"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "stream mode requires the websocket feed") {
		t.Fatalf("expected stream/websocket error, got %v", err)
	}
}

func TestFeedWindow(t *testing.T) {
	f := FeedConfig{Since: "2024-03-04T00:00:00Z"}
	since, until, err := f.Window()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if since.Day() != 4 || !until.IsZero() {
		t.Fatalf("expected since parsed and until zero, got %v %v", since, until)
	}
	f.Until = "yesterday"
	if _, _, err := f.Window(); err == nil {
		t.Fatal("expected error for bad until")
	}
}

func TestForSymbol(t *testing.T) {
	if got := ForSymbol("bars/{symbol}/1m.csv", "XAUUSD"); got != "bars/XAUUSD/1m.csv" {
		t.Fatalf("expected expanded key, got %q", got)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Run.Symbols = []string{"XAUUSD"}
	cfg.Postgres.Password = "pw"
	cfg.S3.SecretKey = "sk"

	r := cfg.Redacted()
	if r.Postgres.Password != "***" || r.S3.SecretKey != "***" {
		t.Fatalf("expected secrets masked, got %q %q", r.Postgres.Password, r.S3.SecretKey)
	}
	if r.Redis.Password != "" {
		t.Fatalf("expected empty secret left empty, got %q", r.Redis.Password)
	}
	if cfg.Postgres.Password != "pw" {
		t.Fatal("expected original untouched")
	}
	r.Run.Symbols[0] = "EURUSD"
	if cfg.Run.Symbols[0] != "XAUUSD" {
		t.Fatal("expected symbols copied")
	}
}
