package strategy

import (
	"strings"
	"testing"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

func srTrendParams(maxLayers int) SRTrendParams {
	return SRTrendParams{
		LayerSize:          0.01,
		MaxLayers:          maxLayers,
		SLPips:             0.5,
		TPPips:             1.0,
		EMAFast:            2,
		EMASlow:            4,
		ProximityTolerance: 0.2,
		Levels:             []LevelSource{{Period: 4}},
	}
}

// srTrendBars rises, dips on bar 3 and closes bar 4 with a bullish engulfing
// at 11.3, within tolerance of all three resistance slots (11.4, 11.3, 11.2).
func srTrendBars() []domain.Bar {
	return []domain.Bar{
		bar(t0, 0, 10.0, 10.5, 9.5, 10.2),
		bar(t0, 1, 10.2, 10.8, 10.0, 10.6),
		bar(t0, 2, 10.6, 11.2, 10.4, 11.0),
		bar(t0, 3, 11.2, 11.3, 10.8, 10.9),
		bar(t0, 4, 10.8, 11.4, 10.7, 11.3),
	}
}

func TestSRTrendLayersEveryQualifyingResistance(t *testing.T) {
	s, err := NewSRTrend(Identity{Symbol: "EURUSD"}, srTrendParams(3), 100, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bars := series.New(100)
	intents := replay(t, s, bars, srTrendBars())

	want := []domain.IntentAction{domain.ActionOpenLong, domain.ActionAddLayer, domain.ActionAddLayer}
	if len(intents) != len(want) {
		t.Fatalf("expected %d intents, got %d: %+v", len(want), len(intents), intents)
	}
	for i, a := range want {
		if intents[i].Action != a || intents[i].Layer != i+1 {
			t.Fatalf("intent %d: expected %s layer %d, got %s layer %d", i, a, i+1, intents[i].Action, intents[i].Layer)
		}
	}
	if pos := s.Position(); pos.Layers != 3 || !approx(pos.Size, 0.03, 1e-12) {
		t.Fatalf("unexpected position %+v", pos)
	}

	exit := replay(t, s, bars, []domain.Bar{bar(t0, 5, 11.3, 12.5, 11.2, 12.4)})
	if len(exit) != 1 || exit[0].Action != domain.ActionClose || exit[0].Reason != "take profit" {
		t.Fatalf("expected take profit close, got %+v", exit)
	}
	if !approx(exit[0].Size, 0.03, 1e-12) {
		t.Fatalf("expected the whole position closed, got size %v", exit[0].Size)
	}
}

func TestSRTrendStopsAtMaxLayers(t *testing.T) {
	s, err := NewSRTrend(Identity{Symbol: "EURUSD"}, srTrendParams(2), 100, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	intents := replay(t, s, series.New(100), srTrendBars())
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents at max_layers=2, got %d", len(intents))
	}
}

func TestSRTrendRejectsBadTimeframe(t *testing.T) {
	p := srTrendParams(3)
	p.Levels = []LevelSource{{Timeframe: "fortnight", Period: 4}}
	if _, err := NewSRTrend(Identity{Symbol: "EURUSD"}, p, 100, discardLogger()); err == nil {
		t.Fatalf("expected an error for an unparsable timeframe")
	}
}

func TestSRTrendLayersEveryQualifyingSupportShort(t *testing.T) {
	s, err := NewSRTrend(Identity{Symbol: "EURUSD"}, srTrendParams(3), 100, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	bars := series.New(100)
	intents := replay(t, s, bars, mirror(srTrendBars(), 11))

	want := []domain.IntentAction{domain.ActionOpenShort, domain.ActionAddLayer, domain.ActionAddLayer}
	if len(intents) != len(want) {
		t.Fatalf("expected %d intents, got %d: %+v", len(want), len(intents), intents)
	}
	for i, a := range want {
		if intents[i].Action != a || intents[i].Side != domain.SideShort || intents[i].Layer != i+1 {
			t.Fatalf("intent %d: expected short %s layer %d, got %s %s layer %d",
				i, a, i+1, intents[i].Side, intents[i].Action, intents[i].Layer)
		}
		if !strings.Contains(intents[i].Reason, "support") {
			t.Fatalf("intent %d: expected a support level reason, got %q", i, intents[i].Reason)
		}
	}

	exit := replay(t, s, bars, mirror([]domain.Bar{bar(t0, 5, 11.3, 12.5, 11.2, 12.4)}, 11))
	if len(exit) != 1 || exit[0].Action != domain.ActionClose || exit[0].Reason != "take profit" {
		t.Fatalf("expected take profit close, got %+v", exit)
	}
	if exit[0].Side != domain.SideShort || !approx(exit[0].Size, 0.03, 1e-12) {
		t.Fatalf("expected the whole short closed, got %+v", exit[0])
	}
}
