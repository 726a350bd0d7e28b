package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

const (
	LineResistance     = "resistance"
	LineSupport        = "support"
	LinePrevResistance = "prev_resistance"
	LinePrevSupport    = "prev_support"
)

// SupportResistance tracks the rolling highest high and lowest low.
type SupportResistance struct {
	period                      int
	resistance, support         float64
	prevResistance, prevSupport float64
	t                           tracker
}

// NewSupportResistance creates a single-level support/resistance indicator.
func NewSupportResistance(period int) *SupportResistance {
	nan := math.NaN()
	return &SupportResistance{period: period, resistance: nan, support: nan, prevResistance: nan, prevSupport: nan}
}

func (sr *SupportResistance) Name() string   { return fmt.Sprintf("sr(%d)", sr.period) }
func (sr *SupportResistance) MinPeriod() int { return sr.period }
func (sr *SupportResistance) Lines() []string {
	return []string{LineResistance, LineSupport, LinePrevResistance, LinePrevSupport}
}

func (sr *SupportResistance) Update(s *series.Series) {
	if !sr.t.fresh(s) {
		return
	}
	nan := math.NaN()
	sr.resistance, sr.support, sr.prevResistance, sr.prevSupport = nan, nan, nan, nan
	if s.Count() < int64(sr.period) {
		return
	}
	sr.resistance = last(talib.Max(s.Highs(sr.period), sr.period))
	sr.support = last(talib.Min(s.Lows(sr.period), sr.period))
	if hs := s.Highs(sr.period + 1); hs != nil {
		sr.prevResistance = last(talib.Max(hs[:sr.period], sr.period))
		sr.prevSupport = last(talib.Min(s.Lows(sr.period + 1)[:sr.period], sr.period))
	}
}

func (sr *SupportResistance) Value(line string) float64 {
	switch line {
	case LineResistance:
		return sr.resistance
	case LineSupport:
		return sr.support
	case LinePrevResistance:
		return sr.prevResistance
	case LinePrevSupport:
		return sr.prevSupport
	}
	return math.NaN()
}
