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

// NameMASR identifies the moving average plus support/resistance strategy.
const NameMASR = "ma_sr"

// MASR buys a close above the SMA that breaks the previous bar's resistance
// and sells a close below the SMA that breaks the previous bar's support.
// Stops and takes are ATR multiples from the entry close.
type MASR struct {
	p      MASRParams
	gate   session.Gate
	ma     *indicator.MovingAverage
	sr     *indicator.SupportResistance
	atr    *indicator.ATR
	book   book
	logger *slog.Logger
}

// NewMASR creates a MASR instance.
func NewMASR(id Identity, p MASRParams, logger *slog.Logger) *MASR {
	return &MASR{
		p:      p,
		gate:   session.NewGate(p.Sessions...),
		ma:     indicator.NewMovingAverage(p.MAPeriod, indicator.MASimple),
		sr:     indicator.NewSupportResistance(p.SRPeriod),
		atr:    indicator.NewATR(p.ATRPeriod, p.SLMult, p.TPMult),
		book:   newBook(NameMASR, id.Symbol),
		logger: logger.With(slog.String("strategy", NameMASR), slog.String("symbol", id.Symbol)),
	}
}

// Name returns the strategy identifier.
func (m *MASR) Name() string { return NameMASR }

// Position returns a copy of the current position.
func (m *MASR) Position() domain.Position { return m.book.position() }

// LayerSize returns the fixed position size.
func (m *MASR) LayerSize() float64 { return m.p.Size }

// OnBar holds a single layer at a time.
func (m *MASR) OnBar(_ context.Context, bars *series.Series) ([]domain.TradeIntent, error) {
	indicator.UpdateAll(bars, m.ma, m.sr, m.atr)
	cur, ok := bars.Last()
	if !ok || !m.gate.InSession(cur.Time) {
		return nil, nil
	}
	if intent, hit, _ := m.book.exit(cur); hit {
		m.logger.Info("ma_sr exit", slog.String("reason", intent.Reason), slog.Float64("close", cur.Close))
		return []domain.TradeIntent{intent}, nil
	}
	if !m.book.pos.Flat() {
		return nil, nil
	}

	ma := m.ma.Current()
	res, sup := m.sr.Value(indicator.LinePrevResistance), m.sr.Value(indicator.LinePrevSupport)
	if !indicator.Defined(ma, res, sup) {
		return nil, nil
	}
	var side domain.Side
	switch {
	case cur.Close > ma && cur.Close > res:
		side = domain.SideLong
	case cur.Close < ma && cur.Close < sup:
		side = domain.SideShort
	default:
		return nil, nil
	}
	stop, take, ok := m.atr.StopTake(cur.Close, side)
	if !ok {
		return nil, nil
	}
	reason := fmt.Sprintf("%s: close=%.5f sma=%.5f prev_resistance=%.5f prev_support=%.5f", side, cur.Close, ma, res, sup)
	intent := m.book.enter(side, m.p.Size, cur.Close, stop, take, cur.Time, reason)
	m.logger.Info("ma_sr entry",
		slog.String("action", string(intent.Action)),
		slog.Float64("close", cur.Close),
		slog.Float64("stop_loss", stop),
		slog.Float64("take_profit", take),
	)
	return []domain.TradeIntent{intent}, nil
}

// Flatten closes any open position.
func (m *MASR) Flatten(bars *series.Series) []domain.TradeIntent {
	return m.book.closeOut(bars, "end of run")
}
