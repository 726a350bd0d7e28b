package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/indicator"
	"github.com/jackleZac/trading-algorithm/internal/levels"
	"github.com/jackleZac/trading-algorithm/internal/series"
	"github.com/jackleZac/trading-algorithm/internal/session"
)

// NameSRTrend identifies the multi-timeframe S/R trend strategy.
const NameSRTrend = "sr_trend"

// SRTrend trades near multi-timeframe support/resistance levels in the
// direction of the EMA trend, confirmed by an engulfing candle. Every
// qualifying level on a bar adds a layer until MaxLayers.
type SRTrend struct {
	p      SRTrendParams
	gate   session.Gate
	fast   *indicator.MovingAverage
	slow   *indicator.MovingAverage
	eng    *indicator.Engulfing
	levels *levels.Aggregator
	book   book
	logger *slog.Logger
}

// NewSRTrend creates an SRTrend instance. capacity bounds the resampled level
// series.
func NewSRTrend(id Identity, p SRTrendParams, capacity int, logger *slog.Logger) (*SRTrend, error) {
	specs, err := LevelSpecs(p.Levels)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", NameSRTrend, err)
	}
	return &SRTrend{
		p:      p,
		gate:   session.NewGate(p.Sessions...),
		fast:   indicator.NewMovingAverage(p.EMAFast, indicator.MAExponential),
		slow:   indicator.NewMovingAverage(p.EMASlow, indicator.MAExponential),
		eng:    indicator.NewEngulfing(),
		levels: levels.New(specs, capacity),
		book:   newBook(NameSRTrend, id.Symbol),
		logger: logger.With(slog.String("strategy", NameSRTrend), slog.String("symbol", id.Symbol)),
	}, nil
}

// Name returns the strategy identifier.
func (s *SRTrend) Name() string { return NameSRTrend }

// Position returns a copy of the current position.
func (s *SRTrend) Position() domain.Position { return s.book.position() }

// LayerSize returns the configured per-layer size.
func (s *SRTrend) LayerSize() float64 { return s.p.LayerSize }

// OnBar evaluates exits, then resistance levels for longs and support levels
// for shorts.
func (s *SRTrend) OnBar(_ context.Context, bars *series.Series) ([]domain.TradeIntent, error) {
	indicator.UpdateAll(bars, s.fast, s.slow, s.eng)
	if err := s.levels.Observe(bars); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", NameSRTrend, err)
	}
	cur, ok := bars.Last()
	if !ok || !s.gate.InSession(cur.Time) {
		return nil, nil
	}

	if intent, hit, _ := s.book.exit(cur); hit {
		s.logger.Info("sr_trend exit", slog.String("reason", intent.Reason), slog.Float64("close", cur.Close))
		return []domain.TradeIntent{intent}, nil
	}

	fast, slow := s.fast.Current(), s.slow.Current()
	if !indicator.Defined(fast, slow) || !indicator.Ready(s.eng) {
		return nil, nil
	}
	resistances, supports := s.levels.Collect(bars)

	var out []domain.TradeIntent
	if s.eng.Bullish() && fast > slow {
		out = s.scan(out, domain.SideLong, cur, resistances)
	}
	if len(out) == 0 && s.eng.Bearish() && fast < slow {
		out = s.scan(out, domain.SideShort, cur, supports)
	}
	return out, nil
}

// scan adds one layer per level within tolerance of the close.
func (s *SRTrend) scan(out []domain.TradeIntent, side domain.Side, cur domain.Bar, lvls []domain.Level) []domain.TradeIntent {
	for _, lvl := range lvls {
		if !s.book.canEnter(side, s.p.MaxLayers) {
			break
		}
		if math.Abs(cur.Close-lvl.Price) > s.p.ProximityTolerance {
			continue
		}
		stop, take := fixedStopTake(side, cur.Close, s.p.SLPips, s.p.TPPips)
		reason := fmt.Sprintf("%s near %s %s%d %.5f", side, lvl.Source, lvl.Kind, lvl.Slot, lvl.Price)
		intent := s.book.enter(side, s.p.LayerSize, cur.Close, stop, take, cur.Time, reason)
		s.logger.Info("sr_trend entry",
			slog.String("action", string(intent.Action)),
			slog.Int("layer", intent.Layer),
			slog.Float64("level", lvl.Price),
			slog.Float64("close", cur.Close),
		)
		out = append(out, intent)
	}
	return out
}

// Flatten closes any open position and clears the layer count.
func (s *SRTrend) Flatten(bars *series.Series) []domain.TradeIntent {
	return s.book.closeOut(bars, "end of run")
}
