package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// BarStore persists historical bars per symbol and timeframe.
type BarStore interface {
	InsertBatch(ctx context.Context, symbol, timeframe string, bars []Bar) (int64, error)
	ListBars(ctx context.Context, symbol, timeframe string, opts ListOpts) ([]Bar, error)
	LastTime(ctx context.Context, symbol, timeframe string) (time.Time, error)
}

// IntentStore persists emitted trade intents.
type IntentStore interface {
	Insert(ctx context.Context, intent TradeIntent) error
	ListByRun(ctx context.Context, runID string, opts ListOpts) ([]TradeIntent, error)
}

// RunStore records run lifecycle rows.
type RunStore interface {
	Start(ctx context.Context, run Run) error
	Finish(ctx context.Context, run Run) error
	GetByID(ctx context.Context, id string) (Run, error)
}
