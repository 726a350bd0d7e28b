package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

// LineVolatility is the range standard deviation output.
const LineVolatility = "volatility"

// Volatility is the population standard deviation of bar ranges.
type Volatility struct {
	period int
	value  float64
	t      tracker
}

// NewVolatility creates a range volatility indicator.
func NewVolatility(period int) *Volatility {
	return &Volatility{period: period, value: math.NaN()}
}

func (v *Volatility) Name() string    { return fmt.Sprintf("volatility(%d)", v.period) }
func (v *Volatility) MinPeriod() int  { return v.period }
func (v *Volatility) Lines() []string { return []string{LineVolatility} }

func (v *Volatility) Update(s *series.Series) {
	if !v.t.fresh(s) {
		return
	}
	w := s.Window(v.period)
	if w == nil || s.Count() < int64(v.period) {
		v.value = math.NaN()
		return
	}
	ranges := make([]float64, len(w))
	for i, b := range w {
		ranges[i] = b.Range()
	}
	v.value = last(talib.StdDev(ranges, v.period, 1))
}

func (v *Volatility) Value(line string) float64 {
	if line != LineVolatility {
		return math.NaN()
	}
	return v.value
}

// Current returns the volatility for the current bar.
func (v *Volatility) Current() float64 { return v.value }
