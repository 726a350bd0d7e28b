package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jackleZac/trading-algorithm/internal/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "tradealgo",
	Short: "Bar-driven trading strategy decision engine",
	Long: `tradealgo evaluates OHLC bars with breakout, support/resistance, moving
average and Bollinger band strategies and emits trade intents to a journal,
PostgreSQL, a Redis stream or the log.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("TRADEALGO_CONFIG"), "path to a TOML or YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
}

// parseLevel maps a config level name onto slog; unknown names give info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads the configuration, applies mutate and validates the
// result. The returned logger honours the configured level.
func loadConfig(mutate func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if mutate != nil {
		mutate(cfg)
	}
	logger := newLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration loaded", slog.Any("config", cfg.Redacted()))
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
