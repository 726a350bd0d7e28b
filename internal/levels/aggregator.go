// Package levels merges support/resistance candidates from multi-timeframe
// indicators into flat lists.
package levels

import (
	"fmt"
	"math"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/indicator"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// Spec configures one level source. Timeframe zero reads the base series
// directly; a positive timeframe resamples base bars first.
type Spec struct {
	Timeframe time.Duration
	Period    int
}

// Label names the source timeframe, "base" for the base series.
func (s Spec) Label() string {
	if s.Timeframe <= 0 {
		return "base"
	}
	return s.Timeframe.String()
}

type source struct {
	spec      Spec
	resampler *series.Resampler
	bars      *series.Series
	msr       *indicator.MultiSupportResistance
}

// Aggregator owns one MultiSupportResistance per source and the resampled
// series feeding it.
type Aggregator struct {
	sources []*source
}

// New creates an Aggregator. capacity bounds each resampled series.
func New(specs []Spec, capacity int) *Aggregator {
	a := &Aggregator{}
	for _, sp := range specs {
		src := &source{spec: sp, msr: indicator.NewMultiSupportResistance(sp.Period)}
		if sp.Timeframe > 0 {
			src.resampler = series.NewResampler(sp.Timeframe)
			src.bars = series.New(max(capacity, sp.Period))
		}
		a.sources = append(a.sources, src)
	}
	return a
}

// Observe advances every source with the current bar of base.
func (a *Aggregator) Observe(base *series.Series) error {
	cur, ok := base.Last()
	if !ok {
		return nil
	}
	for _, src := range a.sources {
		if src.resampler == nil {
			src.msr.Update(base)
			continue
		}
		done, completed := src.resampler.Add(cur)
		if !completed {
			continue
		}
		if err := src.bars.Append(done); err != nil {
			return fmt.Errorf("levels: %s: %w", src.spec.Label(), err)
		}
		src.msr.Update(src.bars)
	}
	return nil
}

func (src *source) observed(base *series.Series) int64 {
	if src.bars == nil {
		return base.Count()
	}
	return src.bars.Count()
}

// Collect returns the defined resistance and support levels of every warm
// source, in configuration order and slot order. Overlapping levels from
// different sources are all kept.
func (a *Aggregator) Collect(base *series.Series) (resistances, supports []domain.Level) {
	for _, src := range a.sources {
		if src.observed(base) < int64(src.spec.Period) {
			continue
		}
		label := src.spec.Label()
		res, sup := src.msr.Resistances(), src.msr.Supports()
		for i := range indicator.MultiSlots {
			if !math.IsNaN(res[i]) {
				resistances = append(resistances, domain.Level{Price: res[i], Kind: domain.LevelResistance, Source: label, Slot: i + 1})
			}
			if !math.IsNaN(sup[i]) {
				supports = append(supports, domain.Level{Price: sup[i], Kind: domain.LevelSupport, Source: label, Slot: i + 1})
			}
		}
	}
	return resistances, supports
}

// Prices extracts the prices of levels.
func Prices(levels []domain.Level) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.Price
	}
	return out
}
