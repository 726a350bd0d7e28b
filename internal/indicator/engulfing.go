package indicator

import (
	"math"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

const (
	LineBullish = "bullish"
	LineBearish = "bearish"
)

// Engulfing flags two-candle engulfing patterns, 1 when present and 0 when not.
type Engulfing struct {
	bullish, bearish float64
	t                tracker
}

// NewEngulfing creates an engulfing pattern detector.
func NewEngulfing() *Engulfing {
	return &Engulfing{bullish: math.NaN(), bearish: math.NaN()}
}

func (e *Engulfing) Name() string    { return "engulfing" }
func (e *Engulfing) MinPeriod() int  { return 2 }
func (e *Engulfing) Lines() []string { return []string{LineBullish, LineBearish} }

func (e *Engulfing) Update(s *series.Series) {
	if !e.t.fresh(s) {
		return
	}
	curr, err := s.Lookback(0)
	if err != nil {
		e.bullish, e.bearish = math.NaN(), math.NaN()
		return
	}
	prev, err := s.Lookback(1)
	if err != nil {
		e.bullish, e.bearish = math.NaN(), math.NaN()
		return
	}
	e.bullish = boolLine(BullishEngulfing(prev, curr))
	e.bearish = boolLine(BearishEngulfing(prev, curr))
}

func (e *Engulfing) Value(line string) float64 {
	switch line {
	case LineBullish:
		return e.bullish
	case LineBearish:
		return e.bearish
	}
	return math.NaN()
}

// Bullish reports a bullish engulfing on the current bar.
func (e *Engulfing) Bullish() bool { return e.bullish == 1 }

// Bearish reports a bearish engulfing on the current bar.
func (e *Engulfing) Bearish() bool { return e.bearish == 1 }

// BullishEngulfing reports whether curr is a bullish candle whose body
// strictly contains the body of prev.
func BullishEngulfing(prev, curr domain.Bar) bool {
	return curr.Close > curr.Open && curr.Open < prev.Close && curr.Close > prev.Open
}

// BearishEngulfing is the mirror of BullishEngulfing.
func BearishEngulfing(prev, curr domain.Bar) bool {
	return curr.Close < curr.Open && curr.Open > prev.Close && curr.Close < prev.Open
}
