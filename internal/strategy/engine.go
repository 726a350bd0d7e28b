package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/feed"
	"github.com/jackleZac/trading-algorithm/internal/metrics"
	"github.com/jackleZac/trading-algorithm/internal/series"
)

// flattenTimeout bounds the hand-off of end-of-run close intents.
const flattenTimeout = 5 * time.Second

// Job binds one symbol's bar source to the variants that trade it.
type Job struct {
	Symbol     string
	Source     feed.Source
	Strategies []string
}

// InstanceStats summarises one (symbol, variant) instance. Position and
// LayerSize are refreshed after every bar and once more after the end-of-run
// flatten.
type InstanceStats struct {
	Symbol    string
	Strategy  string
	Bars      int64
	Intents   map[domain.IntentAction]int64
	Position  domain.Position
	LayerSize float64
	Err       string
}

type instance struct {
	symbol   string
	strategy Strategy
	bars     *series.Series
	stats    *InstanceStats
}

// Engine runs strategy instances over bar sources and forwards their intents
// to the intent channel consumed by the executor. Every instance owns its
// series, indicators and position.
type Engine struct {
	registry *Registry
	params   Params
	capacity int
	runID    string
	intentCh chan<- domain.TradeIntent
	logger   *slog.Logger

	mu          sync.Mutex
	stats       []*InstanceStats
	recent      []domain.TradeIntent
	recentLimit int
}

// NewEngine creates an Engine. capacity bounds every instance's bar history.
func NewEngine(registry *Registry, params Params, capacity int, runID string, intentCh chan<- domain.TradeIntent, logger *slog.Logger) *Engine {
	return &Engine{
		registry:    registry,
		params:      params,
		capacity:    capacity,
		runID:       runID,
		intentCh:    intentCh,
		logger:      logger.With(slog.String("component", "strategy_engine")),
		recentLimit: 500,
	}
}

// RunAll runs every job concurrently and returns the first error. Each job
// ends when its source is exhausted.
func (e *Engine) RunAll(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		e.logger.Info("RunAll: no jobs")
		return nil
	}
	e.logger.Info("strategy engine RunAll started", slog.Int("jobs", len(jobs)), slog.String("run_id", e.runID))
	defer e.logger.Info("strategy engine RunAll stopped")

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			return e.runJob(gctx, job)
		})
	}
	return g.Wait()
}

// runJob reads the job's source once and fans each bar out to one goroutine
// per variant.
func (e *Engine) runJob(ctx context.Context, job Job) error {
	instances := make([]*instance, 0, len(job.Strategies))
	for _, name := range job.Strategies {
		strat, err := e.registry.Build(name, Identity{Symbol: job.Symbol}, e.params, e.capacity, e.logger)
		if err != nil {
			return err
		}
		st := &InstanceStats{Symbol: job.Symbol, Strategy: name, Intents: make(map[domain.IntentAction]int64)}
		e.mu.Lock()
		e.stats = append(e.stats, st)
		e.mu.Unlock()
		instances = append(instances, &instance{
			symbol:   job.Symbol,
			strategy: strat,
			bars:     series.New(e.capacity),
			stats:    st,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	chans := make([]chan domain.Bar, len(instances))
	for i := range chans {
		chans[i] = make(chan domain.Bar, 64)
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range chans {
				close(ch)
			}
		}()
		for {
			bar, err := job.Source.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if errors.Is(err, domain.ErrInvalidBar) {
					metrics.RejectedBarsTotal.WithLabelValues(job.Symbol, "invalid").Inc()
				}
				return fmt.Errorf("strategy engine: %s feed: %w", job.Symbol, err)
			}
			for _, ch := range chans {
				select {
				case ch <- bar:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		}
	})
	for i, inst := range instances {
		g.Go(func() error {
			return e.runInstance(gctx, inst, chans[i])
		})
	}
	return g.Wait()
}

// runInstance drives one strategy. A rejected bar stops the instance.
func (e *Engine) runInstance(ctx context.Context, inst *instance, bars <-chan domain.Bar) error {
	name := inst.strategy.Name()
	log := e.logger.With(slog.String("symbol", inst.symbol), slog.String("strategy", name))
	defer e.flatten(ctx, inst, log)

	for bar := range bars {
		if err := inst.bars.Append(bar); err != nil {
			reason := "invalid"
			if errors.Is(err, domain.ErrOutOfOrderBar) {
				reason = "out_of_order"
			}
			metrics.RejectedBarsTotal.WithLabelValues(inst.symbol, reason).Inc()
			log.Error("bar rejected", slog.String("error", err.Error()))
			e.setErr(inst, err)
			return fmt.Errorf("strategy %s %s: %w", name, inst.symbol, err)
		}
		metrics.BarsTotal.WithLabelValues(inst.symbol, name).Inc()

		intents, err := inst.strategy.OnBar(ctx, inst.bars)
		if err != nil {
			e.setErr(inst, err)
			return fmt.Errorf("strategy %s %s: on bar: %w", name, inst.symbol, err)
		}
		if err := e.emit(ctx, inst, intents); err != nil {
			return err
		}
		pos := inst.strategy.Position()
		e.mu.Lock()
		inst.stats.Bars = inst.bars.Count()
		inst.stats.Position = pos
		inst.stats.LayerSize = inst.strategy.LayerSize()
		e.mu.Unlock()
		metrics.OpenLayers.WithLabelValues(inst.symbol, name).Set(float64(pos.Layers))
	}
	return nil
}

// flatten hands off the end-of-run close even when ctx is already cancelled.
func (e *Engine) flatten(ctx context.Context, inst *instance, log *slog.Logger) {
	intents := inst.strategy.Flatten(inst.bars)
	if len(intents) > 0 {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flattenTimeout)
		defer cancel()
		if err := e.emit(fctx, inst, intents); err != nil {
			log.Warn("end of run flatten not delivered", slog.String("error", err.Error()))
		}
	}
	e.mu.Lock()
	inst.stats.Position = inst.strategy.Position()
	inst.stats.LayerSize = inst.strategy.LayerSize()
	e.mu.Unlock()
	metrics.OpenLayers.WithLabelValues(inst.symbol, inst.strategy.Name()).Set(0)
}

// emit stamps and sends each intent to the intent channel.
func (e *Engine) emit(ctx context.Context, inst *instance, intents []domain.TradeIntent) error {
	for i := range intents {
		intents[i].RunID = e.runID
		select {
		case <-ctx.Done():
			e.logger.Warn("context cancelled while emitting intents",
				slog.Int("remaining", len(intents)-i),
			)
			return ctx.Err()
		case e.intentCh <- intents[i]:
			e.remember(inst, intents[i])
			e.logger.Debug("intent emitted",
				slog.String("intent_id", intents[i].ID),
				slog.String("strategy", intents[i].Strategy),
				slog.String("action", string(intents[i].Action)),
			)
		}
	}
	return nil
}

func (e *Engine) remember(inst *instance, intent domain.TradeIntent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst.stats.Intents[intent.Action]++
	e.recent = append(e.recent, intent)
	if overflow := len(e.recent) - e.recentLimit; overflow > 0 {
		e.recent = append([]domain.TradeIntent(nil), e.recent[overflow:]...)
	}
}

func (e *Engine) setErr(inst *instance, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	inst.stats.Err = err.Error()
}

// RecentIntents returns up to limit most recent intents, newest first.
func (e *Engine) RecentIntents(limit int) []domain.TradeIntent {
	if limit <= 0 {
		limit = 20
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.recent)
	limit = min(limit, n)
	out := make([]domain.TradeIntent, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, e.recent[i])
	}
	return out
}

// Stats returns a snapshot of every instance, sorted by symbol then strategy.
func (e *Engine) Stats() []InstanceStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]InstanceStats, 0, len(e.stats))
	for _, st := range e.stats {
		cp := *st
		cp.Intents = make(map[domain.IntentAction]int64, len(st.Intents))
		for k, v := range st.Intents {
			cp.Intents[k] = v
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
