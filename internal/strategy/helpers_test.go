package strategy

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bar(start time.Time, i int, o, h, l, c float64) domain.Bar {
	return domain.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c}
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// replay appends every bar and collects the intents the strategy emits.
func replay(t *testing.T, s Strategy, bars *series.Series, in []domain.Bar) []domain.TradeIntent {
	t.Helper()
	var out []domain.TradeIntent
	for _, b := range in {
		if err := bars.Append(b); err != nil {
			t.Fatalf("append %v: %v", b.Time, err)
		}
		intents, err := s.OnBar(context.Background(), bars)
		if err != nil {
			t.Fatalf("on bar %v: %v", b.Time, err)
		}
		out = append(out, intents...)
	}
	return out
}

// triangleBreakoutBars builds 100 one-minute bars with flat highs at 101 and
// rising lows, ending in a bullish engulfing close of 102 that clears the
// upper trendline. Every earlier bar closes under the trendline.
func triangleBreakoutBars(start time.Time) []domain.Bar {
	out := make([]domain.Bar, 0, 100)
	for i := range 98 {
		low := 95 + 0.04*float64(i)
		out = append(out, bar(start, i, low+0.5, 101, low, low+1))
	}
	out = append(out, bar(start, 98, 100.6, 101, 98.92, 100.2))
	out = append(out, bar(start, 99, 100.1, 102, 98.96, 102))
	return out
}

// mirror reflects every price around pivot, turning a long setup into the
// equivalent short one.
func mirror(in []domain.Bar, pivot float64) []domain.Bar {
	out := make([]domain.Bar, len(in))
	for i, b := range in {
		b.Open, b.Close = 2*pivot-b.Open, 2*pivot-b.Close
		b.High, b.Low = 2*pivot-b.Low, 2*pivot-b.High
		out[i] = b
	}
	return out
}
