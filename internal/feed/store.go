package feed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

const defaultPageSize = 1000

// StoreSource pages bars for one symbol and timeframe out of a BarStore in
// time order.
type StoreSource struct {
	store     domain.BarStore
	symbol    string
	timeframe string
	since     *time.Time
	until     *time.Time
	pageSize  int
	page      []domain.Bar
	pos       int
	done      bool
}

// NewStoreSource creates a source over bars in (since, until]. Nil bounds are open.
func NewStoreSource(store domain.BarStore, symbol, timeframe string, since, until *time.Time) *StoreSource {
	return &StoreSource{
		store:     store,
		symbol:    symbol,
		timeframe: timeframe,
		since:     since,
		until:     until,
		pageSize:  defaultPageSize,
	}
}

// Next returns the next stored bar, fetching a new page when needed.
func (s *StoreSource) Next(ctx context.Context) (domain.Bar, error) {
	if s.pos >= len(s.page) {
		if s.done {
			return domain.Bar{}, io.EOF
		}
		page, err := s.store.ListBars(ctx, s.symbol, s.timeframe, domain.ListOpts{
			Limit: s.pageSize,
			Since: s.since,
			Until: s.until,
		})
		if err != nil {
			return domain.Bar{}, fmt.Errorf("feed/store: list %s %s: %w", s.symbol, s.timeframe, err)
		}
		if len(page) < s.pageSize {
			s.done = true
		}
		if len(page) == 0 {
			return domain.Bar{}, io.EOF
		}
		last := page[len(page)-1].Time
		s.since = &last
		s.page, s.pos = page, 0
	}
	b := s.page[s.pos]
	s.pos++
	return b, nil
}
