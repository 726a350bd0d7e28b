package domain

// Side of a position.
type Side string

const (
	SideFlat  Side = "flat"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Sign returns +1 for long, -1 for short and 0 for flat.
func (s Side) Sign() float64 {
	switch s {
	case SideLong:
		return 1
	case SideShort:
		return -1
	}
	return 0
}

// Position is the strategy's own model of its exposure. It is never shared
// between strategy instances.
type Position struct {
	Side       Side
	Size       float64
	Entries    []float64
	StopLoss   float64
	TakeProfit float64
	Layers     int
}

// Flat reports whether no exposure is held.
func (p Position) Flat() bool { return p.Side == SideFlat || p.Side == "" }

// AvgEntry returns the mean entry price over layers, or 0 when flat.
func (p Position) AvgEntry() float64 {
	if len(p.Entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range p.Entries {
		sum += e
	}
	return sum / float64(len(p.Entries))
}
