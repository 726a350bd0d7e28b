package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/feed"
)

// importBatch is the number of bars sent per InsertBatch call.
const importBatch = 1000

// ImportStats reports the outcome of an import.
type ImportStats struct {
	Read     int64
	Inserted int64
}

// ImportBars copies every bar of src into store under symbol and timeframe.
// Bars already stored are skipped by the store. A malformed bar aborts the
// import after the preceding batches have been written.
func ImportBars(ctx context.Context, store domain.BarStore, src feed.Source, symbol, timeframe string, logger *slog.Logger) (ImportStats, error) {
	logger = logger.With(slog.String("component", "import"), slog.String("symbol", symbol))

	var st ImportStats
	batch := make([]domain.Bar, 0, importBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := store.InsertBatch(ctx, symbol, timeframe, batch)
		st.Inserted += n
		if err != nil {
			return fmt.Errorf("app: import %s: %w", symbol, err)
		}
		logger.Debug("batch stored", slog.Int("bars", len(batch)), slog.Int64("inserted", n))
		batch = batch[:0]
		return nil
	}

	for {
		b, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil {
			err = b.Validate()
		}
		if err != nil {
			if ferr := flush(); ferr != nil {
				return st, ferr
			}
			return st, fmt.Errorf("app: import %s bar %d: %w", symbol, st.Read+1, err)
		}
		st.Read++
		batch = append(batch, b)
		if len(batch) == importBatch {
			if err := flush(); err != nil {
				return st, err
			}
		}
	}
	if err := flush(); err != nil {
		return st, err
	}
	logger.Info("import finished", slog.Int64("read", st.Read), slog.Int64("inserted", st.Inserted))
	return st, nil
}
