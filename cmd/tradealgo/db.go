package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackleZac/trading-algorithm/internal/app"
	"github.com/jackleZac/trading-algorithm/internal/config"
	"github.com/jackleZac/trading-algorithm/internal/feed"
	"github.com/jackleZac/trading-algorithm/internal/store/postgres"
)

var (
	importSymbol    string
	importTimeframe string
	importFile      string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded SQL migrations",
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a CSV bar file into the bars table",
	Long: `Load a CSV bar file (Date,Open,High,Low,Close) into the bars table.
Bars already stored for the same symbol, timeframe and time are skipped.

Examples:
  tradealgo import --symbol XAUUSD --timeframe 1m --file data/XAUUSD.csv`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSymbol, "symbol", "", "symbol the bars belong to")
	importCmd.Flags().StringVar(&importTimeframe, "timeframe", "1m", "timeframe label stored with the bars")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV file to import")
	_ = importCmd.MarkFlagRequired("symbol")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(migrateCmd, importCmd)
}

// dbConfig loads a configuration that only needs the database section. Run
// settings are not required for these commands.
func dbConfig() (*config.Config, *slog.Logger, error) {
	return loadConfig(func(c *config.Config) {
		if len(c.Run.Symbols) == 0 {
			c.Run.Symbols = []string{"-"}
		}
	})
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := dbConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client, err := postgres.New(ctx, app.PostgresConfig(cfg.Postgres))
	if err != nil {
		return err
	}
	defer client.Close()

	applied, err := client.RunMigrations(ctx)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", slog.Any("applied", applied))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := dbConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client, err := postgres.New(ctx, app.PostgresConfig(cfg.Postgres))
	if err != nil {
		return err
	}
	defer client.Close()
	if cfg.Postgres.RunMigrations {
		if _, err := client.RunMigrations(ctx); err != nil {
			return err
		}
	}

	src, err := feed.OpenCSV(importFile)
	if err != nil {
		return err
	}
	defer src.Close()

	st, err := app.ImportBars(ctx, postgres.NewBarStore(client.Pool()), src, importSymbol, importTimeframe, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: read %d bars, inserted %d\n", importSymbol, st.Read, st.Inserted)
	return nil
}
