package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

const (
	LineUpper    = "upper"
	LineLower    = "lower"
	LineBreakout = "breakout"
)

// Triangle fits least-squares trendlines to the highs and lows of the
// trailing lookback bars and extrapolates them to the current bar. Breakout
// is +1 or -1 when the lines converge and the close clears the upper or lower
// line by more than the buffer, 0 otherwise.
type Triangle struct {
	lookback     int
	buffer       float64
	upper, lower float64
	breakout     float64
	converging   bool
	t            tracker
}

// NewTriangle creates a triangle breakout detector.
func NewTriangle(lookback int, breakoutBuffer float64) *Triangle {
	nan := math.NaN()
	return &Triangle{lookback: lookback, buffer: breakoutBuffer, upper: nan, lower: nan, breakout: nan}
}

func (tr *Triangle) Name() string    { return fmt.Sprintf("triangle(%d)", tr.lookback) }
func (tr *Triangle) MinPeriod() int  { return tr.lookback + 1 }
func (tr *Triangle) Lines() []string { return []string{LineUpper, LineLower, LineBreakout} }

func (tr *Triangle) Update(s *series.Series) {
	if !tr.t.fresh(s) {
		return
	}
	nan := math.NaN()
	tr.upper, tr.lower, tr.breakout, tr.converging = nan, nan, nan, false
	if s.Count() < int64(tr.MinPeriod()) {
		return
	}
	highs := s.Highs(tr.lookback)
	lows := s.Lows(tr.lookback)
	if highs == nil {
		return
	}
	tr.upper = last(talib.LinearReg(highs, tr.lookback))
	tr.lower = last(talib.LinearReg(lows, tr.lookback))

	tr.converging = tr.upper-tr.lower < highs[0]-lows[0]
	cur, _ := s.Last()
	tr.breakout = 0
	if tr.converging {
		switch {
		case cur.Close > tr.upper+tr.buffer:
			tr.breakout = 1
		case cur.Close < tr.lower-tr.buffer:
			tr.breakout = -1
		}
	}
}

func (tr *Triangle) Value(line string) float64 {
	switch line {
	case LineUpper:
		return tr.upper
	case LineLower:
		return tr.lower
	case LineBreakout:
		return tr.breakout
	}
	return math.NaN()
}

// Upper returns the extrapolated upper trendline.
func (tr *Triangle) Upper() float64 { return tr.upper }

// Lower returns the extrapolated lower trendline.
func (tr *Triangle) Lower() float64 { return tr.lower }

// Converging reports whether the trendline spread narrowed over the window.
func (tr *Triangle) Converging() bool { return tr.converging }
