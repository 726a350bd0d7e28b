package strategy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/indicator"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// NameEMABollinger identifies the EMA trend with Bollinger band strategy.
const NameEMABollinger = "ema_bollinger"

// EMABollinger goes long when the fast EMA is above the slow EMA and the
// close is below the lower band, and exits when the close rises above the
// upper band or the trend flips. Long only.
type EMABollinger struct {
	p      EMABollingerParams
	fast   *indicator.MovingAverage
	slow   *indicator.MovingAverage
	bands  *indicator.Bollinger
	book   book
	logger *slog.Logger
}

// NewEMABollinger creates an EMABollinger instance.
func NewEMABollinger(id Identity, p EMABollingerParams, logger *slog.Logger) *EMABollinger {
	return &EMABollinger{
		p:      p,
		fast:   indicator.NewMovingAverage(p.EMAFast, indicator.MAExponential),
		slow:   indicator.NewMovingAverage(p.EMASlow, indicator.MAExponential),
		bands:  indicator.NewBollinger(p.BBPeriod, p.BBDev),
		book:   newBook(NameEMABollinger, id.Symbol),
		logger: logger.With(slog.String("strategy", NameEMABollinger), slog.String("symbol", id.Symbol)),
	}
}

// Name returns the strategy identifier.
func (e *EMABollinger) Name() string { return NameEMABollinger }

// Position returns a copy of the current position.
func (e *EMABollinger) Position() domain.Position { return e.book.position() }

func (e *EMABollinger) LayerSize() float64 { return e.p.Size }

// OnBar evaluates the band exit while long and the entry while flat.
func (e *EMABollinger) OnBar(_ context.Context, bars *series.Series) ([]domain.TradeIntent, error) {
	indicator.UpdateAll(bars, e.fast, e.slow, e.bands)
	cur, ok := bars.Last()
	if !ok {
		return nil, nil
	}
	fast, slow := e.fast.Current(), e.slow.Current()
	top, mid, bot := e.bands.Value(indicator.LineTop), e.bands.Value(indicator.LineMid), e.bands.Value(indicator.LineBot)
	if !indicator.Defined(fast, slow, top, mid, bot) {
		return nil, nil
	}

	if !e.book.pos.Flat() {
		if cur.Close > top || fast < slow {
			intent, _ := e.book.flatten(cur.Close, cur.Time, fmt.Sprintf("close=%.5f top=%.5f fast=%.5f slow=%.5f", cur.Close, top, fast, slow))
			e.logger.Info("ema_bollinger exit", slog.Float64("close", cur.Close))
			return []domain.TradeIntent{intent}, nil
		}
		return nil, nil
	}

	if fast > slow && cur.Close < bot {
		// Take at the upper band, stop one half-width (mid - bot) under the lower band.
		stop, take := bot-(mid-bot), top
		intent := e.book.enter(domain.SideLong, e.p.Size, cur.Close, stop, take, cur.Time,
			fmt.Sprintf("close=%.5f below bot=%.5f with fast=%.5f > slow=%.5f", cur.Close, bot, fast, slow))
		e.logger.Info("ema_bollinger entry", slog.Float64("close", cur.Close), slog.Float64("bot", bot))
		return []domain.TradeIntent{intent}, nil
	}
	return nil, nil
}

// Flatten closes any open position.
func (e *EMABollinger) Flatten(bars *series.Series) []domain.TradeIntent {
	return e.book.closeOut(bars, "end of run")
}
