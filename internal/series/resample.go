package series

import (
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// Resampler folds base bars into fixed-duration buckets aligned with
// time.Truncate. A bucket is emitted only once it is complete, which is
// observed when the first bar of a later bucket arrives.
type Resampler struct {
	interval time.Duration
	current  domain.Bar
	open     bool
}

// NewResampler creates a Resampler for the given bucket width.
func NewResampler(interval time.Duration) *Resampler {
	return &Resampler{interval: interval}
}

// Interval returns the bucket width.
func (r *Resampler) Interval() time.Duration { return r.interval }

// Add folds bar into the current bucket. It returns the completed bucket and
// true when bar starts a new one.
func (r *Resampler) Add(bar domain.Bar) (domain.Bar, bool) {
	start := bar.Time.UTC().Truncate(r.interval)
	if !r.open {
		r.begin(start, bar)
		return domain.Bar{}, false
	}
	if start.Equal(r.current.Time) {
		r.current.High = max(r.current.High, bar.High)
		r.current.Low = min(r.current.Low, bar.Low)
		r.current.Close = bar.Close
		return domain.Bar{}, false
	}
	done := r.current
	r.begin(start, bar)
	return done, true
}

func (r *Resampler) begin(start time.Time, bar domain.Bar) {
	r.current = domain.Bar{Time: start, Open: bar.Open, High: bar.High, Low: bar.Low, Close: bar.Close}
	r.open = true
}
