package strategy

import (
	"context"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// Strategy is one decision engine instance bound to a single symbol. It owns
// its indicators and position; instances are never shared.
type Strategy interface {
	Name() string

	// OnBar evaluates the current bar of bars, which the caller has already
	// appended. It returns the intents decided for this bar, usually none.
	OnBar(ctx context.Context, bars *series.Series) ([]domain.TradeIntent, error)

	// Flatten closes any open position at the end of a run.
	Flatten(bars *series.Series) []domain.TradeIntent

	// Position returns a copy of the current position.
	Position() domain.Position

	// LayerSize returns the size the next layer would be opened with.
	LayerSize() float64
}

// Identity names the instance a strategy emits intents for.
type Identity struct {
	Symbol string
}
