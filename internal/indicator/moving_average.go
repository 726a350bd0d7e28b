package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

// MAKind selects the averaging method.
type MAKind string

const (
	MASimple      MAKind = "sma"
	MAExponential MAKind = "ema"
)

// LineMA is the single output of MovingAverage.
const LineMA = "ma"

// MovingAverage is a simple or exponential average of closes.
type MovingAverage struct {
	period int
	kind   MAKind
	k      float64
	value  float64
	seeded bool
	t      tracker
}

// NewMovingAverage creates a moving average. Unknown kinds fall back to sma.
func NewMovingAverage(period int, kind MAKind) *MovingAverage {
	if kind != MAExponential {
		kind = MASimple
	}
	return &MovingAverage{
		period: period,
		kind:   kind,
		k:      2 / float64(period+1),
		value:  math.NaN(),
	}
}

func (m *MovingAverage) Name() string    { return fmt.Sprintf("%s(%d)", m.kind, m.period) }
func (m *MovingAverage) MinPeriod() int  { return m.period }
func (m *MovingAverage) Lines() []string { return []string{LineMA} }

func (m *MovingAverage) Update(s *series.Series) {
	if !m.t.fresh(s) {
		return
	}
	if s.Count() < int64(m.period) {
		m.value = math.NaN()
		return
	}
	if m.kind == MASimple {
		m.value = last(talib.Sma(s.Closes(m.period), m.period))
		return
	}
	cur, _ := s.Last()
	switch {
	case !m.seeded && s.Count() == int64(m.period):
		m.value = last(talib.Sma(s.Closes(m.period), m.period))
		m.seeded = true
	case !m.seeded:
		// Attached to a series that already has history.
		m.value = last(talib.Ema(s.Closes(s.Len()), m.period))
		m.seeded = true
	default:
		m.value += m.k * (cur.Close - m.value)
	}
}

func (m *MovingAverage) Value(line string) float64 {
	if line != LineMA {
		return math.NaN()
	}
	return m.value
}

// Current returns the average for the current bar.
func (m *MovingAverage) Current() float64 { return m.value }
