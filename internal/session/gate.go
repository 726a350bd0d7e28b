// Package session decides whether a bar's timestamp falls inside the
// configured trading hours.
package session

import (
	"fmt"
	"time"
)

// Band is a half-open range of UTC hours [Start, End). Start > End wraps
// past midnight.
type Band struct {
	Start int `toml:"start" yaml:"start"`
	End   int `toml:"end" yaml:"end"`
}

// Contains reports whether hour lies in the band.
func (b Band) Contains(hour int) bool {
	if b.Start <= b.End {
		return hour >= b.Start && hour < b.End
	}
	return hour >= b.Start || hour < b.End
}

// Validate checks that both bounds are hours of the day.
func (b Band) Validate() error {
	if b.Start < 0 || b.Start > 23 || b.End < 0 || b.End > 24 {
		return fmt.Errorf("session band [%d, %d) outside 0..24", b.Start, b.End)
	}
	if b.Start == b.End {
		return fmt.Errorf("session band [%d, %d) is empty", b.Start, b.End)
	}
	return nil
}

func (b Band) String() string { return fmt.Sprintf("%02d-%02d", b.Start, b.End) }

var (
	// London is the London cash session.
	London = Band{Start: 8, End: 16}
	// LondonNewYork is the London/New York overlap.
	LondonNewYork = Band{Start: 13, End: 17}
)

// Gate admits bars whose UTC hour falls in any band. A Gate with no bands
// admits every bar.
type Gate struct {
	bands []Band
}

// NewGate creates a gate over bands.
func NewGate(bands ...Band) Gate {
	return Gate{bands: append([]Band(nil), bands...)}
}

// InSession reports trading eligibility for a bar stamped ts.
func (g Gate) InSession(ts time.Time) bool {
	if len(g.bands) == 0 {
		return true
	}
	hour := ts.UTC().Hour()
	for _, b := range g.bands {
		if b.Contains(hour) {
			return true
		}
	}
	return false
}

// Bands returns a copy of the configured bands.
func (g Gate) Bands() []Band { return append([]Band(nil), g.bands...) }
