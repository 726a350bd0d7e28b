package strategy

import "math"

// Martingale sizes layers, growing the size after a losing exit up to
// base·mult^(maxLayers-1) and resetting it after a winning one.
type Martingale struct {
	base float64
	mult float64
	cap  float64
	size float64
}

// NewMartingale creates a sizer starting at base.
func NewMartingale(base, mult float64, maxLayers int) *Martingale {
	return &Martingale{
		base: base,
		mult: mult,
		cap:  base * math.Pow(mult, float64(max(maxLayers-1, 0))),
		size: base,
	}
}

// Size returns the size of the next layer.
func (m *Martingale) Size() float64 { return m.size }

// OnLoss grows the layer size.
func (m *Martingale) OnLoss() { m.size = math.Min(m.size*m.mult, m.cap) }

// OnWin resets the layer size to base.
func (m *Martingale) OnWin() { m.size = m.base }
