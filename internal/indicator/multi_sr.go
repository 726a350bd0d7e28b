package indicator

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

// Multi support/resistance lines, ranked 1 (strongest) to 3.
const (
	LineResistance1 = "resistance1"
	LineResistance2 = "resistance2"
	LineResistance3 = "resistance3"
	LineSupport1    = "support1"
	LineSupport2    = "support2"
	LineSupport3    = "support3"
)

// MultiSlots is the number of resistance and support levels reported.
const MultiSlots = 3

var (
	resistanceLines = [MultiSlots]string{LineResistance1, LineResistance2, LineResistance3}
	supportLines    = [MultiSlots]string{LineSupport1, LineSupport2, LineSupport3}
)

// MultiSupportResistance ranks the raw highs and lows of the trailing window.
// Resistance k is the k-th highest high and support k the k-th lowest low.
// Levels are bar extremes, not swing pivots, so slots can sit on nearly the
// same price.
type MultiSupportResistance struct {
	period      int
	resistances [MultiSlots]float64
	supports    [MultiSlots]float64
	t           tracker
}

// NewMultiSupportResistance creates the indicator over period bars.
func NewMultiSupportResistance(period int) *MultiSupportResistance {
	m := &MultiSupportResistance{period: period}
	m.reset()
	return m
}

func (m *MultiSupportResistance) Name() string   { return fmt.Sprintf("multi_sr(%d)", m.period) }
func (m *MultiSupportResistance) MinPeriod() int { return m.period }
func (m *MultiSupportResistance) Lines() []string {
	return append(resistanceLines[:], supportLines[:]...)
}

func (m *MultiSupportResistance) reset() {
	for i := range MultiSlots {
		m.resistances[i] = math.NaN()
		m.supports[i] = math.NaN()
	}
}

func (m *MultiSupportResistance) Update(s *series.Series) {
	if !m.t.fresh(s) {
		return
	}
	m.reset()
	if s.Count() < int64(m.period) {
		return
	}
	highs := s.Highs(m.period)
	lows := s.Lows(m.period)
	if highs == nil {
		return
	}
	slices.SortFunc(highs, func(a, b float64) int { return cmp.Compare(b, a) })
	slices.Sort(lows)
	for i := 0; i < MultiSlots && i < len(highs); i++ {
		m.resistances[i] = highs[i]
		m.supports[i] = lows[i]
	}
}

func (m *MultiSupportResistance) Value(line string) float64 {
	for i := range MultiSlots {
		if line == resistanceLines[i] {
			return m.resistances[i]
		}
		if line == supportLines[i] {
			return m.supports[i]
		}
	}
	return math.NaN()
}

// Resistances returns the three resistance slots, NaN where undefined.
func (m *MultiSupportResistance) Resistances() [MultiSlots]float64 { return m.resistances }

// Supports returns the three support slots, NaN where undefined.
func (m *MultiSupportResistance) Supports() [MultiSlots]float64 { return m.supports }
