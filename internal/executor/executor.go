// Package executor consumes trade intents from the strategy engine and hands
// them to the configured sinks.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// ErrInvalidIntent is returned for intents that fail validation.
var ErrInvalidIntent = errors.New("invalid intent")

// Stats counts what the executor did with the intents it read.
type Stats struct {
	Received   int64
	Submitted  int64
	Duplicates int64
	Invalid    int64
	Failed     int64
	ByAction   map[domain.IntentAction]int64
}

// Executor reads intents from a channel, drops duplicates and malformed
// intents, and submits the rest to a Sink.
type Executor struct {
	intentCh <-chan domain.TradeIntent
	sink     Sink
	dedup    *Dedup
	logger   *slog.Logger

	cleanupInterval time.Duration

	mu    sync.Mutex
	stats Stats
}

// NewExecutor creates an Executor reading from intentCh.
func NewExecutor(intentCh <-chan domain.TradeIntent, sink Sink, logger *slog.Logger) *Executor {
	return &Executor{
		intentCh:        intentCh,
		sink:            sink,
		dedup:           NewDedup(10 * time.Minute),
		logger:          logger.With(slog.String("component", "executor")),
		cleanupInterval: 30 * time.Second,
		stats:           Stats{ByAction: make(map[domain.IntentAction]int64)},
	}
}

// Run processes intents until the channel is closed or ctx is cancelled. On
// cancellation it drains what is already buffered and returns ctx.Err().
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("executor started", slog.String("sink", e.sink.Name()))
	defer e.logger.Info("executor stopped")

	cleanupTicker := time.NewTicker(e.cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.drain()
			return ctx.Err()

		case intent, ok := <-e.intentCh:
			if !ok {
				return nil
			}
			e.process(ctx, intent)

		case <-cleanupTicker.C:
			e.dedup.Cleanup()
		}
	}
}

func (e *Executor) process(ctx context.Context, intent domain.TradeIntent) {
	log := e.logger.With(
		slog.String("intent_id", intent.ID),
		slog.String("strategy", intent.Strategy),
		slog.String("symbol", intent.Symbol),
		slog.String("action", string(intent.Action)),
	)
	e.count(func(s *Stats) { s.Received++ })

	if e.dedup.IsDuplicate(intent.ID) {
		log.Debug("intent deduplicated, skipping")
		e.count(func(s *Stats) { s.Duplicates++ })
		return
	}
	if err := Validate(intent); err != nil {
		log.Warn("intent rejected", slog.String("error", err.Error()))
		e.count(func(s *Stats) { s.Invalid++ })
		return
	}
	if err := e.sink.Submit(ctx, intent); err != nil {
		log.Error("intent submission failed", slog.String("error", err.Error()))
		e.count(func(s *Stats) { s.Failed++ })
		return
	}
	e.count(func(s *Stats) {
		s.Submitted++
		s.ByAction[intent.Action]++
	})
}

// drain processes intents already buffered after cancellation so they are
// not silently dropped.
func (e *Executor) drain() {
	for {
		select {
		case intent, ok := <-e.intentCh:
			if !ok {
				return
			}
			e.logger.Warn("draining intent after shutdown", slog.String("intent_id", intent.ID))
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			e.process(drainCtx, intent)
			cancel()
		default:
			return
		}
	}
}

func (e *Executor) count(f func(*Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(&e.stats)
}

// Stats returns a snapshot of the counters.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.stats
	out.ByAction = make(map[domain.IntentAction]int64, len(e.stats.ByAction))
	for k, v := range e.stats.ByAction {
		out.ByAction[k] = v
	}
	return out
}

// SetDedupTTL replaces the dedup instance with one using ttl. Call before Run.
func (e *Executor) SetDedupTTL(ttl time.Duration) {
	e.dedup = NewDedup(ttl)
}

// SetCleanupInterval changes how often the dedup map is garbage-collected.
// Must be called before Run.
func (e *Executor) SetCleanupInterval(d time.Duration) {
	e.cleanupInterval = d
}

// Validate checks the fields every sink relies on.
func Validate(intent domain.TradeIntent) error {
	if intent.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidIntent)
	}
	if intent.Symbol == "" || intent.Strategy == "" {
		return fmt.Errorf("%w: missing symbol or strategy", ErrInvalidIntent)
	}
	if intent.Size <= 0 || math.IsNaN(intent.Size) || math.IsInf(intent.Size, 0) {
		return fmt.Errorf("%w: size %v", ErrInvalidIntent, intent.Size)
	}
	if math.IsNaN(intent.Price) || math.IsInf(intent.Price, 0) {
		return fmt.Errorf("%w: price %v", ErrInvalidIntent, intent.Price)
	}
	switch intent.Action {
	case domain.ActionOpenLong, domain.ActionOpenShort, domain.ActionAddLayer:
		if intent.StopLoss == nil || intent.TakeProfit == nil {
			return fmt.Errorf("%w: %s without stop and take", ErrInvalidIntent, intent.Action)
		}
	case domain.ActionClose:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidIntent, intent.Action)
	}
	if intent.Side != domain.SideLong && intent.Side != domain.SideShort {
		return fmt.Errorf("%w: side %q", ErrInvalidIntent, intent.Side)
	}
	return nil
}
