package strategy

import (
	"math"
	"testing"
)

func TestMartingaleGrowsToCapAndResets(t *testing.T) {
	m := NewMartingale(0.01, 2, 5)
	for n := 1; n <= 6; n++ {
		m.OnLoss()
		want := math.Min(0.01*math.Pow(2, float64(n)), 0.16)
		if !approx(m.Size(), want, 1e-12) {
			t.Fatalf("after %d losses: expected %v, got %v", n, want, m.Size())
		}
	}
	m.OnWin()
	if m.Size() != 0.01 {
		t.Fatalf("expected reset to 0.01 after a win, got %v", m.Size())
	}
}

func TestMartingaleMultiplierOneIsFlat(t *testing.T) {
	m := NewMartingale(0.5, 1, 3)
	m.OnLoss()
	m.OnLoss()
	if m.Size() != 0.5 {
		t.Fatalf("expected 0.5, got %v", m.Size())
	}
}
