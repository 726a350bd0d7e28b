package strategy

import (
	"errors"
	"slices"
	"testing"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/session"
)

func TestDefaultRegistryBuildsEveryVariant(t *testing.T) {
	r := DefaultRegistry()
	want := []string{NameBreakout, NameDualMode, NameEMABollinger, NameMASR, NameSRTrend}
	slices.Sort(want)
	if got := r.List(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, name := range want {
		s, err := r.Build(name, Identity{Symbol: "X"}, DefaultParams(), 500, discardLogger())
		if err != nil {
			t.Fatalf("build %s: %v", name, err)
		}
		if s.Name() != name {
			t.Fatalf("expected %s, got %s", name, s.Name())
		}
		if !s.Position().Flat() {
			t.Fatalf("%s: new instance not flat", name)
		}
	}
}

func TestRegistryUnknownName(t *testing.T) {
	_, err := DefaultRegistry().Build("nope", Identity{Symbol: "X"}, DefaultParams(), 500, discardLogger())
	if !errors.Is(err, domain.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestParamsValidateAndMaxWindow(t *testing.T) {
	p := DefaultParams()
	if errs := p.Validate(DefaultRegistry().List()); len(errs) != 0 {
		t.Fatalf("defaults should validate, got %v", errs)
	}
	p.SRTrend.EMAFast = 60
	p.Breakout.Sessions = append(p.Breakout.Sessions, session.Band{Start: 25, End: 3})
	if errs := p.Validate([]string{NameSRTrend, NameBreakout}); len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if got := DefaultParams().MaxWindow([]string{NameSRTrend, NameBreakout}); got != 80 {
		t.Fatalf("expected max window 80, got %d", got)
	}
}
