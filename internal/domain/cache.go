package domain

import "context"

// IntentBus hands intents to an out-of-process execution engine.
type IntentBus interface {
	Publish(ctx context.Context, intent TradeIntent) error
	Read(ctx context.Context, lastID string, count int64) ([]TradeIntent, string, error)
}
