package indicator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

const (
	LineTop = "top"
	LineMid = "mid"
	LineBot = "bot"
)

// Bollinger bands around a simple moving average of closes.
type Bollinger struct {
	period        int
	dev           float64
	top, mid, bot float64
	t             tracker
}

// NewBollinger creates Bollinger bands with dev standard deviations.
func NewBollinger(period int, dev float64) *Bollinger {
	nan := math.NaN()
	return &Bollinger{period: period, dev: dev, top: nan, mid: nan, bot: nan}
}

func (b *Bollinger) Name() string    { return fmt.Sprintf("bbands(%d,%.1f)", b.period, b.dev) }
func (b *Bollinger) MinPeriod() int  { return b.period }
func (b *Bollinger) Lines() []string { return []string{LineTop, LineMid, LineBot} }

func (b *Bollinger) Update(s *series.Series) {
	if !b.t.fresh(s) {
		return
	}
	nan := math.NaN()
	b.top, b.mid, b.bot = nan, nan, nan
	closes := s.Closes(b.period)
	if closes == nil || s.Count() < int64(b.period) {
		return
	}
	upper, middle, lower := talib.BBands(closes, b.period, b.dev, b.dev, talib.SMA)
	b.top, b.mid, b.bot = last(upper), last(middle), last(lower)
}

func (b *Bollinger) Value(line string) float64 {
	switch line {
	case LineTop:
		return b.top
	case LineMid:
		return b.mid
	case LineBot:
		return b.bot
	}
	return math.NaN()
}
