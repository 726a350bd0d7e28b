// Package series holds the append-only bar stream consumed by indicators and
// strategies.
package series

import (
	"fmt"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// DefaultCapacity is the number of bars retained when no capacity is given.
const DefaultCapacity = 5000

// Series is an append-only, strictly time-ordered sequence of bars. Only the
// most recent Capacity bars are retained for lookback; Count reports every bar
// ever appended. A Series is not safe for concurrent use.
type Series struct {
	bars     []domain.Bar
	capacity int
	count    int64
}

// New creates a Series that retains up to capacity bars.
func New(capacity int) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		bars:     make([]domain.Bar, 0, min(capacity, 1024)),
		capacity: capacity,
	}
}

// Append validates bar and adds it as the new current bar.
func (s *Series) Append(bar domain.Bar) error {
	if err := bar.Validate(); err != nil {
		return fmt.Errorf("series: append: %w", err)
	}
	if n := len(s.bars); n > 0 && !bar.Time.After(s.bars[n-1].Time) {
		return fmt.Errorf("series: append %s after %s: %w",
			bar.Time.Format("2006-01-02 15:04:05"), s.bars[n-1].Time.Format("2006-01-02 15:04:05"),
			domain.ErrOutOfOrderBar)
	}
	bar.Time = bar.Time.UTC()
	s.bars = append(s.bars, bar)
	s.count++
	if len(s.bars) > 2*s.capacity {
		kept := make([]domain.Bar, s.capacity, 2*s.capacity)
		copy(kept, s.bars[len(s.bars)-s.capacity:])
		s.bars = kept
	}
	return nil
}

// retained returns the window of bars visible to lookback.
func (s *Series) retained() []domain.Bar {
	if len(s.bars) > s.capacity {
		return s.bars[len(s.bars)-s.capacity:]
	}
	return s.bars
}

// Len returns the number of bars available for lookback.
func (s *Series) Len() int { return len(s.retained()) }

// Count returns the total number of bars appended.
func (s *Series) Count() int64 { return s.count }

// Capacity returns the retention bound.
func (s *Series) Capacity() int { return s.capacity }

// Lookback returns the bar offset bars before the current one (0 = current).
func (s *Series) Lookback(offset int) (domain.Bar, error) {
	r := s.retained()
	if offset < 0 || offset >= len(r) {
		return domain.Bar{}, fmt.Errorf("series: lookback %d of %d: %w", offset, len(r), domain.ErrInsufficientHistory)
	}
	return r[len(r)-1-offset], nil
}

// Last returns the current bar and false when the series is empty.
func (s *Series) Last() (domain.Bar, bool) {
	if len(s.bars) == 0 {
		return domain.Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Window returns the trailing n bars oldest-first, or nil when fewer than n
// are retained. The returned slice must not be modified.
func (s *Series) Window(n int) []domain.Bar {
	r := s.retained()
	if n <= 0 || n > len(r) {
		return nil
	}
	return r[len(r)-n:]
}

// Highs returns the trailing n highs oldest-first.
func (s *Series) Highs(n int) []float64 {
	return s.field(n, func(b domain.Bar) float64 { return b.High })
}

// Lows returns the trailing n lows oldest-first.
func (s *Series) Lows(n int) []float64 {
	return s.field(n, func(b domain.Bar) float64 { return b.Low })
}

// Closes returns the trailing n closes oldest-first.
func (s *Series) Closes(n int) []float64 {
	return s.field(n, func(b domain.Bar) float64 { return b.Close })
}

func (s *Series) field(n int, get func(domain.Bar) float64) []float64 {
	w := s.Window(n)
	if w == nil {
		return nil
	}
	out := make([]float64, len(w))
	for i, b := range w {
		out[i] = get(b)
	}
	return out
}
