package strategy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// Factory builds a fresh strategy instance for one symbol.
type Factory func(id Identity, p Params, capacity int, logger *slog.Logger) (Strategy, error)

// Registry maps variant names to factories. It is safe for concurrent use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a Registry holding every built-in variant.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameBreakout, func(id Identity, p Params, _ int, logger *slog.Logger) (Strategy, error) {
		return NewBreakout(id, p.Breakout, logger), nil
	})
	r.Register(NameSRTrend, func(id Identity, p Params, capacity int, logger *slog.Logger) (Strategy, error) {
		return NewSRTrend(id, p.SRTrend, capacity, logger)
	})
	r.Register(NameDualMode, func(id Identity, p Params, capacity int, logger *slog.Logger) (Strategy, error) {
		return NewDualMode(id, p.DualMode, capacity, logger)
	})
	r.Register(NameMASR, func(id Identity, p Params, _ int, logger *slog.Logger) (Strategy, error) {
		return NewMASR(id, p.MASR, logger), nil
	})
	r.Register(NameEMABollinger, func(id Identity, p Params, _ int, logger *slog.Logger) (Strategy, error) {
		return NewEMABollinger(id, p.EMABollinger, logger), nil
	})
	return r
}

// Register adds a factory under name, replacing any existing one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build creates a new instance of the named variant.
func (r *Registry) Build(name string, id Identity, p Params, capacity int, logger *slog.Logger) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w", name, domain.ErrUnknownStrategy)
	}
	s, err := f(id, p, capacity, logger)
	if err != nil {
		return nil, fmt.Errorf("strategy %q: build: %w", name, err)
	}
	return s, nil
}

// List returns the names of all registered variants in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
