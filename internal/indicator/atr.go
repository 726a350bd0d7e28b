package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// LineATR is the average true range output.
const LineATR = "atr"

// ATR is the mean true range over period bars together with the multipliers
// used to derive stop-loss and take-profit prices at entry time.
type ATR struct {
	period int
	slMult float64
	tpMult float64
	value  float64
	t      tracker
}

// NewATR creates an ATR stop/take calculator.
func NewATR(period int, slMult, tpMult float64) *ATR {
	return &ATR{period: period, slMult: slMult, tpMult: tpMult, value: math.NaN()}
}

func (a *ATR) Name() string { return fmt.Sprintf("atr(%d)", a.period) }

// MinPeriod includes the extra bar whose close seeds the first true range.
func (a *ATR) MinPeriod() int  { return a.period + 1 }
func (a *ATR) Lines() []string { return []string{LineATR} }

func (a *ATR) Update(s *series.Series) {
	if !a.t.fresh(s) {
		return
	}
	n := a.period + 1
	if s.Count() < int64(n) {
		a.value = math.NaN()
		return
	}
	tr := talib.TRange(s.Highs(n), s.Lows(n), s.Closes(n))
	a.value = last(talib.Sma(tr[1:], a.period))
}

func (a *ATR) Value(line string) float64 {
	if line != LineATR {
		return math.NaN()
	}
	return a.value
}

// Current returns the ATR for the current bar.
func (a *ATR) Current() float64 { return a.value }

// StopTake returns the stop-loss and take-profit for a position entered at
// entry in direction side. ok is false while the ATR is undefined or side is
// flat.
func (a *ATR) StopTake(entry float64, side domain.Side) (stop, take float64, ok bool) {
	sign := side.Sign()
	if math.IsNaN(a.value) || sign == 0 {
		return 0, 0, false
	}
	stop = entry - sign*a.value*a.slMult
	take = entry + sign*a.value*a.tpMult
	return stop, take, true
}
