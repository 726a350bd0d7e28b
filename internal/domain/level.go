package domain

// LevelKind tags a price as support or resistance.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a candidate price recomputed every bar and never persisted.
type Level struct {
	Price  float64
	Kind   LevelKind
	Source string // timeframe label of the producing indicator
	Slot   int    // 1..3 rank within the source
}
