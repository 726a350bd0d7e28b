package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/indicator"
	"github.com/jackleZac/trading-algorithm/internal/series"
	"github.com/jackleZac/trading-algorithm/internal/session"
)

// NameBreakout identifies the triangle breakout strategy.
const NameBreakout = "breakout"

// Breakout enters when the close clears a triangle trendline by the buffer,
// confirmed by an engulfing candle in the same direction and by range
// volatility. Each qualifying bar adds a layer until MaxLayers. Layers are
// sized by a martingale that grows after stop-outs.
type Breakout struct {
	p      BreakoutParams
	gate   session.Gate
	tri    *indicator.Triangle
	vol    *indicator.Volatility
	eng    *indicator.Engulfing
	sizer  *Martingale
	book   book
	logger *slog.Logger
}

// NewBreakout creates a Breakout instance for id.Symbol.
func NewBreakout(id Identity, p BreakoutParams, logger *slog.Logger) *Breakout {
	return &Breakout{
		p:      p,
		gate:   session.NewGate(p.Sessions...),
		tri:    indicator.NewTriangle(p.TriangleLookback, p.BreakoutBuffer),
		vol:    indicator.NewVolatility(p.VolatilityPeriod),
		eng:    indicator.NewEngulfing(),
		sizer:  NewMartingale(p.BaseLayerSize, p.MartingaleMultiplier, p.MaxLayers),
		book:   newBook(NameBreakout, id.Symbol),
		logger: logger.With(slog.String("strategy", NameBreakout), slog.String("symbol", id.Symbol)),
	}
}

// Name returns the strategy identifier.
func (b *Breakout) Name() string { return NameBreakout }

// LayerSize returns the size the next layer would be opened with.
func (b *Breakout) LayerSize() float64 { return b.sizer.Size() }

// Position returns a copy of the current position.
func (b *Breakout) Position() domain.Position { return b.book.position() }

// OnBar evaluates exits first and entries after.
func (b *Breakout) OnBar(_ context.Context, bars *series.Series) ([]domain.TradeIntent, error) {
	indicator.UpdateAll(bars, b.tri, b.vol, b.eng)
	cur, ok := bars.Last()
	if !ok || !b.gate.InSession(cur.Time) {
		return nil, nil
	}

	if intent, hit, win := b.book.exit(cur); hit {
		if win {
			b.sizer.OnWin()
		} else {
			b.sizer.OnLoss()
		}
		b.logger.Info("breakout exit",
			slog.String("reason", intent.Reason),
			slog.Float64("close", cur.Close),
			slog.Float64("next_layer_size", b.sizer.Size()),
		)
		return []domain.TradeIntent{intent}, nil
	}

	upper, lower, vol := b.tri.Upper(), b.tri.Lower(), b.vol.Current()
	if !indicator.Defined(upper, lower, vol) || !indicator.Ready(b.eng) {
		return nil, nil
	}
	volOK := vol >= b.p.VolatilityThreshold

	if b.book.canEnter(domain.SideLong, b.p.MaxLayers) && volOK &&
		cur.Close > upper+b.p.BreakoutBuffer && b.eng.Bullish() {
		return []domain.TradeIntent{b.enter(domain.SideLong, cur, upper)}, nil
	}
	if b.book.canEnter(domain.SideShort, b.p.MaxLayers) && volOK &&
		cur.Close < lower-b.p.BreakoutBuffer && b.eng.Bearish() {
		return []domain.TradeIntent{b.enter(domain.SideShort, cur, lower)}, nil
	}
	return nil, nil
}

func (b *Breakout) enter(side domain.Side, cur domain.Bar, line float64) domain.TradeIntent {
	stop, take := fixedStopTake(side, cur.Close, b.p.SLPips, b.p.TPPips)
	reason := fmt.Sprintf("triangle %s breakout: close=%.5f line=%.5f", side, cur.Close, line)
	intent := b.book.enter(side, b.sizer.Size(), cur.Close, stop, take, cur.Time, reason)
	b.logger.Info("breakout entry",
		slog.String("action", string(intent.Action)),
		slog.Int("layer", intent.Layer),
		slog.Float64("size", intent.Size),
		slog.Float64("close", cur.Close),
		slog.Float64("stop_loss", stop),
		slog.Float64("take_profit", take),
	)
	return intent
}

// Flatten closes any open position on the last bar. Layer size is left as is.
func (b *Breakout) Flatten(bars *series.Series) []domain.TradeIntent {
	return b.book.closeOut(bars, "end of run")
}
