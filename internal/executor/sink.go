package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/metrics"
)

// Sink receives validated intents.
type Sink interface {
	Name() string
	Submit(ctx context.Context, intent domain.TradeIntent) error
}

// LogSink logs every intent and counts it.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "intent_log"))}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Submit(_ context.Context, intent domain.TradeIntent) error {
	attrs := []any{
		slog.String("intent_id", intent.ID),
		slog.String("strategy", intent.Strategy),
		slog.String("symbol", intent.Symbol),
		slog.String("action", string(intent.Action)),
		slog.String("side", string(intent.Side)),
		slog.Float64("size", intent.Size),
		slog.Float64("price", intent.Price),
		slog.Int("layer", intent.Layer),
		slog.Time("bar_time", intent.BarTime),
		slog.String("reason", intent.Reason),
	}
	if intent.StopLoss != nil {
		attrs = append(attrs, slog.Float64("stop_loss", *intent.StopLoss))
	}
	if intent.TakeProfit != nil {
		attrs = append(attrs, slog.Float64("take_profit", *intent.TakeProfit))
	}
	s.logger.Info("trade intent", attrs...)
	metrics.IntentsTotal.WithLabelValues(intent.Symbol, intent.Strategy, string(intent.Action)).Inc()
	return nil
}

// JournalSink appends intents as JSON lines.
type JournalSink struct {
	path string
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJournalSink creates or opens the journal at path for appending.
func NewJournalSink(path string) (*JournalSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	return &JournalSink{path: path, file: file, enc: json.NewEncoder(file)}, nil
}

func (s *JournalSink) Name() string { return "journal" }

// Path returns the journal file path.
func (s *JournalSink) Path() string { return s.path }

func (s *JournalSink) Submit(_ context.Context, intent domain.TradeIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("journal: closed")
	}
	if err := s.enc.Encode(intent); err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	return nil
}

// Close closes the file handle.
func (s *JournalSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// StoreSink persists intents to an IntentStore.
type StoreSink struct {
	store domain.IntentStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store domain.IntentStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "postgres" }

func (s *StoreSink) Submit(ctx context.Context, intent domain.TradeIntent) error {
	if err := s.store.Insert(ctx, intent); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}

// BusSink publishes intents to an IntentBus.
type BusSink struct {
	bus domain.IntentBus
}

// NewBusSink creates a BusSink.
func NewBusSink(bus domain.IntentBus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) Name() string { return "redis" }

func (s *BusSink) Submit(ctx context.Context, intent domain.TradeIntent) error {
	if err := s.bus.Publish(ctx, intent); err != nil {
		return fmt.Errorf("bus sink: %w", err)
	}
	return nil
}

// MemorySink keeps intents in memory.
type MemorySink struct {
	mu      sync.Mutex
	intents []domain.TradeIntent
}

func (s *MemorySink) Name() string { return "memory" }

func (s *MemorySink) Submit(_ context.Context, intent domain.TradeIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = append(s.intents, intent)
	return nil
}

// Intents returns a copy of everything submitted so far.
func (s *MemorySink) Intents() []domain.TradeIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TradeIntent(nil), s.intents...)
}

// Fanout submits every intent to all of its sinks. A failing sink does not
// stop the others.
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a Fanout over sinks.
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Name() string { return "fanout" }

// Sinks returns the wrapped sinks.
func (f *Fanout) Sinks() []Sink { return f.sinks }

func (f *Fanout) Submit(ctx context.Context, intent domain.TradeIntent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Submit(ctx, intent); err != nil {
			metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
