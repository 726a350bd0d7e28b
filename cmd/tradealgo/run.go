package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackleZac/trading-algorithm/internal/app"
	"github.com/jackleZac/trading-algorithm/internal/config"
)

var (
	runSymbols    []string
	runStrategies []string
	runID         string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the configured strategies",
	Long: `Replay historical bars from a CSV file, an S3 object or the bars table.

Examples:
  # Breakout and sr_trend over two CSV files
  tradealgo backtest -c config.toml --symbols XAUUSD,EURUSD --strategies breakout,sr_trend`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode("backtest")
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Evaluate live bars from a websocket relay until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode("stream")
	},
}

func init() {
	for _, c := range []*cobra.Command{backtestCmd, streamCmd} {
		c.Flags().StringSliceVar(&runSymbols, "symbols", nil, "symbols to evaluate (overrides run.symbols)")
		c.Flags().StringSliceVar(&runStrategies, "strategies", nil, "strategy variants (overrides run.strategies)")
		c.Flags().StringVar(&runID, "run-id", "", "run identifier stamped on every intent")
		rootCmd.AddCommand(c)
	}
}

func runMode(mode string) error {
	cfg, logger, err := loadConfig(func(c *config.Config) {
		c.Mode = mode
		if len(runSymbols) > 0 {
			c.Run.Symbols = runSymbols
		}
		if len(runStrategies) > 0 {
			c.Run.Strategies = runStrategies
		}
		if runID != "" {
			c.Run.RunID = runID
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	application := app.New(cfg, logger)
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("application exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("tradealgo stopped")
	return nil
}
