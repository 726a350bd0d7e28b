package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLC observation for a fixed interval. Time is the bar open in UTC.
type Bar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Range returns High minus Low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Bullish reports whether the candle closed above its open.
func (b Bar) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the candle closed below its open.
func (b Bar) Bearish() bool { return b.Close < b.Open }

// Validate checks that all prices are finite and that High and Low bound the body.
func (b Bar) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidBar)
	}
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite price at %s", ErrInvalidBar, b.Time.Format(time.RFC3339))
		}
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("%w: high %.5f below body at %s", ErrInvalidBar, b.High, b.Time.Format(time.RFC3339))
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w: low %.5f above body at %s", ErrInvalidBar, b.Low, b.Time.Format(time.RFC3339))
	}
	return nil
}
