// Package indicator implements the rolling computations strategies read each
// bar. Every indicator reports NaN for all of its lines until it has observed
// MinPeriod bars; after that each line is a pure function of the trailing
// window.
package indicator

import (
	"math"

	"github.com/jackleZac/trading-algorithm/internal/series"
)

// Indicator produces named numeric outputs for the current bar.
type Indicator interface {
	// Name returns a label such as "sma(50)".
	Name() string

	// MinPeriod returns the number of bars required before lines are defined.
	MinPeriod() int

	// Update recomputes the outputs for the current bar of s. It must be
	// called once per appended bar; repeated calls for the same bar are no-ops.
	Update(s *series.Series)

	// Value returns the named line for the current bar, NaN when undefined
	// or when line is unknown.
	Value(line string) float64

	// Lines lists the names accepted by Value.
	Lines() []string
}

// Ready reports whether every line of ind is defined.
func Ready(ind Indicator) bool {
	for _, l := range ind.Lines() {
		if math.IsNaN(ind.Value(l)) {
			return false
		}
	}
	return true
}

// UpdateAll advances each indicator with the current bar of s.
func UpdateAll(s *series.Series, inds ...Indicator) {
	for _, ind := range inds {
		ind.Update(s)
	}
}

// Defined reports whether every value is a number.
func Defined(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return xs[len(xs)-1]
}

func boolLine(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// tracker skips updates for a bar already seen.
type tracker struct {
	seen int64
}

func (t *tracker) fresh(s *series.Series) bool {
	if s.Count() == t.seen {
		return false
	}
	t.seen = s.Count()
	return true
}
