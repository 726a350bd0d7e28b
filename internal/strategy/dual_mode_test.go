package strategy

import (
	"strings"
	"testing"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

func dualModeParams() DualModeParams {
	return DualModeParams{
		LayerSize:          0.01,
		MaxLayers:          3,
		SLPips:             0.5,
		TPPips:             1.0,
		ATRPeriod:          2,
		ATRMultiplier:      0.1,
		BreakoutBuffer:     0.1,
		ProximityTolerance: 0.15,
		Levels:             []LevelSource{{Period: 3}},
	}
}

func newTestDualMode(t *testing.T, p DualModeParams) *DualMode {
	t.Helper()
	d, err := NewDualMode(Identity{Symbol: "GBPUSD"}, p, 100, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return d
}

// Bar 3 engulfs bar 2 and closes 10.9, clearing both 10.6 resistance slots by
// more than the buffer but not the 11.0 slot.
func dualModeBreakoutBars() []domain.Bar {
	return []domain.Bar{
		bar(t0, 0, 10.0, 10.5, 9.8, 10.3),
		bar(t0, 1, 10.3, 10.6, 10.0, 10.4),
		bar(t0, 2, 10.4, 10.6, 10.1, 10.2),
		bar(t0, 3, 10.1, 11.0, 10.0, 10.9),
	}
}

func TestDualModeLongBreakout(t *testing.T) {
	d := newTestDualMode(t, dualModeParams())
	intents := replay(t, d, series.New(100), dualModeBreakoutBars())
	if len(intents) != 2 {
		t.Fatalf("expected 2 breakout layers, got %d: %+v", len(intents), intents)
	}
	if intents[0].Action != domain.ActionOpenLong || intents[1].Action != domain.ActionAddLayer {
		t.Fatalf("unexpected actions %s, %s", intents[0].Action, intents[1].Action)
	}
	for _, in := range intents {
		if !strings.Contains(in.Reason, "breakout") {
			t.Fatalf("expected breakout reason, got %q", in.Reason)
		}
	}
}

func TestDualModeLongBounce(t *testing.T) {
	d := newTestDualMode(t, dualModeParams())
	bars := []domain.Bar{
		bar(t0, 0, 10.6, 10.8, 10.4, 10.7),
		bar(t0, 1, 10.7, 10.9, 10.6, 10.8),
		bar(t0, 2, 10.55, 10.8, 10.5, 10.5),
		bar(t0, 3, 10.45, 10.9, 10.4, 10.7),
	}
	intents := replay(t, d, series.New(100), bars)
	if len(intents) != 1 {
		t.Fatalf("expected one bounce entry, got %d: %+v", len(intents), intents)
	}
	if intents[0].Action != domain.ActionOpenLong || !strings.Contains(intents[0].Reason, "bounce") {
		t.Fatalf("unexpected intent %+v", intents[0])
	}
}

func TestDualModeATRFilter(t *testing.T) {
	p := dualModeParams()
	p.ATRMultiplier = 10
	d := newTestDualMode(t, p)
	if intents := replay(t, d, series.New(100), dualModeBreakoutBars()); len(intents) != 0 {
		t.Fatalf("expected the atr filter to block entries, got %+v", intents)
	}
}

func TestDualModeShortBreakout(t *testing.T) {
	d := newTestDualMode(t, dualModeParams())
	intents := replay(t, d, series.New(100), mirror(dualModeBreakoutBars(), 10.5))
	if len(intents) != 2 {
		t.Fatalf("expected 2 breakout layers, got %d: %+v", len(intents), intents)
	}
	if intents[0].Action != domain.ActionOpenShort || intents[1].Action != domain.ActionAddLayer {
		t.Fatalf("unexpected actions %s, %s", intents[0].Action, intents[1].Action)
	}
	for _, in := range intents {
		if in.Side != domain.SideShort || !strings.Contains(in.Reason, "breakout") {
			t.Fatalf("expected short breakout, got %s %q", in.Side, in.Reason)
		}
	}
}

func TestDualModeShortBounce(t *testing.T) {
	d := newTestDualMode(t, dualModeParams())
	bars := mirror([]domain.Bar{
		bar(t0, 0, 10.6, 10.8, 10.4, 10.7),
		bar(t0, 1, 10.7, 10.9, 10.6, 10.8),
		bar(t0, 2, 10.55, 10.8, 10.5, 10.5),
		bar(t0, 3, 10.45, 10.9, 10.4, 10.7),
	}, 10.5)
	intents := replay(t, d, series.New(100), bars)
	if len(intents) != 1 {
		t.Fatalf("expected one bounce entry, got %d: %+v", len(intents), intents)
	}
	if intents[0].Action != domain.ActionOpenShort || !strings.Contains(intents[0].Reason, "bounce") {
		t.Fatalf("unexpected intent %+v", intents[0])
	}
}
