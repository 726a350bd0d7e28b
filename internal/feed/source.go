// Package feed provides bar sources: CSV files, object storage, the bar
// table and a websocket relay.
package feed

import (
	"context"
	"errors"
	"io"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// Source is a forward-only sequence of bars. Next returns io.EOF after the
// last bar.
type Source interface {
	Next(ctx context.Context) (domain.Bar, error)
}

// SliceSource replays bars from memory.
type SliceSource struct {
	bars []domain.Bar
	pos  int
}

// NewSliceSource creates a source over bars. The slice is not copied.
func NewSliceSource(bars []domain.Bar) *SliceSource {
	return &SliceSource{bars: bars}
}

// Next returns the next bar or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (domain.Bar, error) {
	if err := ctx.Err(); err != nil {
		return domain.Bar{}, err
	}
	if s.pos >= len(s.bars) {
		return domain.Bar{}, io.EOF
	}
	b := s.bars[s.pos]
	s.pos++
	return b, nil
}

// Drain reads src to the end.
func Drain(ctx context.Context, src Source) ([]domain.Bar, error) {
	var out []domain.Bar
	for {
		b, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
}

// Close closes src when it holds resources.
func Close(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
