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

// NameDualMode identifies the ATR-filtered breakout and bounce strategy.
const NameDualMode = "dual_mode"

// DualMode trades each candidate level two ways: a breakout when the close
// clears it by the buffer, and a bounce when the close sits within tolerance
// on the favorable side. Both need engulfing confirmation and an ATR of at
// least ATRMultiplier.
type DualMode struct {
	p      DualModeParams
	gate   session.Gate
	atr    *indicator.ATR
	eng    *indicator.Engulfing
	levels *levels.Aggregator
	book   book
	logger *slog.Logger
}

// NewDualMode creates a DualMode instance.
func NewDualMode(id Identity, p DualModeParams, capacity int, logger *slog.Logger) (*DualMode, error) {
	specs, err := LevelSpecs(p.Levels)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", NameDualMode, err)
	}
	return &DualMode{
		p:      p,
		gate:   session.NewGate(p.Sessions...),
		atr:    indicator.NewATR(p.ATRPeriod, 0, 0),
		eng:    indicator.NewEngulfing(),
		levels: levels.New(specs, capacity),
		book:   newBook(NameDualMode, id.Symbol),
		logger: logger.With(slog.String("strategy", NameDualMode), slog.String("symbol", id.Symbol)),
	}, nil
}

// Name returns the strategy identifier.
func (d *DualMode) Name() string { return NameDualMode }

// Position returns a copy of the current position.
func (d *DualMode) Position() domain.Position { return d.book.position() }

func (d *DualMode) LayerSize() float64 { return d.p.LayerSize }

type entryMode string

const (
	modeBreakout entryMode = "breakout"
	modeBounce   entryMode = "bounce"
)

// OnBar evaluates exits, then long breakouts and bounces, then shorts.
func (d *DualMode) OnBar(_ context.Context, bars *series.Series) ([]domain.TradeIntent, error) {
	indicator.UpdateAll(bars, d.atr, d.eng)
	if err := d.levels.Observe(bars); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", NameDualMode, err)
	}
	cur, ok := bars.Last()
	if !ok || !d.gate.InSession(cur.Time) {
		return nil, nil
	}

	if intent, hit, _ := d.book.exit(cur); hit {
		d.logger.Info("dual_mode exit", slog.String("reason", intent.Reason), slog.Float64("close", cur.Close))
		return []domain.TradeIntent{intent}, nil
	}

	atr := d.atr.Current()
	if math.IsNaN(atr) || atr < d.p.ATRMultiplier || !indicator.Ready(d.eng) {
		return nil, nil
	}
	resistances, supports := d.levels.Collect(bars)
	c := cur.Close
	tol, buf := d.p.ProximityTolerance, d.p.BreakoutBuffer

	var out []domain.TradeIntent
	if d.eng.Bullish() {
		out = d.scan(out, domain.SideLong, modeBreakout, cur, resistances, func(r float64) bool { return c > r+buf })
		out = d.scan(out, domain.SideLong, modeBounce, cur, supports, func(s float64) bool { return math.Abs(c-s) <= tol && c > s })
	}
	if d.eng.Bearish() {
		out = d.scan(out, domain.SideShort, modeBreakout, cur, supports, func(s float64) bool { return c < s-buf })
		out = d.scan(out, domain.SideShort, modeBounce, cur, resistances, func(r float64) bool { return math.Abs(c-r) <= tol && c < r })
	}
	return out, nil
}

func (d *DualMode) scan(out []domain.TradeIntent, side domain.Side, mode entryMode, cur domain.Bar,
	lvls []domain.Level, qualifies func(level float64) bool) []domain.TradeIntent {
	for _, lvl := range lvls {
		if !d.book.canEnter(side, d.p.MaxLayers) {
			break
		}
		if !qualifies(lvl.Price) {
			continue
		}
		stop, take := fixedStopTake(side, cur.Close, d.p.SLPips, d.p.TPPips)
		reason := fmt.Sprintf("%s %s at %s %s%d %.5f", side, mode, lvl.Source, lvl.Kind, lvl.Slot, lvl.Price)
		intent := d.book.enter(side, d.p.LayerSize, cur.Close, stop, take, cur.Time, reason)
		d.logger.Info("dual_mode entry",
			slog.String("mode", string(mode)),
			slog.String("action", string(intent.Action)),
			slog.Int("layer", intent.Layer),
			slog.Float64("level", lvl.Price),
			slog.Float64("atr", d.atr.Current()),
		)
		out = append(out, intent)
	}
	return out
}

// Flatten closes any open position.
func (d *DualMode) Flatten(bars *series.Series) []domain.TradeIntent {
	return d.book.closeOut(bars, "end of run")
}
