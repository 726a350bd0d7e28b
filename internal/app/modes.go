package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jackleZac/trading-algorithm/internal/config"
	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/executor"
	"github.com/jackleZac/trading-algorithm/internal/feed"
	"github.com/jackleZac/trading-algorithm/internal/metrics"
	"github.com/jackleZac/trading-algorithm/internal/server"
	"github.com/jackleZac/trading-algorithm/internal/server/handler"
	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

// intentBuffer is the capacity of the engine-to-executor channel.
const intentBuffer = 256

// Result summarises a finished run.
type Result struct {
	RunID      string
	Instances  []strategy.InstanceStats
	Executor   executor.Stats
	Journal    string // local journal path, empty when disabled
	JournalKey string // object key of the uploaded journal
	Archived   int    // intents exported to object storage
}

// Bars returns the total number of bars evaluated across instances.
func (r *Result) Bars() int64 {
	var n int64
	for _, st := range r.Instances {
		n += st.Bars
	}
	return n
}

// Backtest replays one source per symbol through every configured variant,
// flattens what is still open and records the run.
func (a *App) Backtest(ctx context.Context, deps *Dependencies) (*Result, error) {
	a.logger.InfoContext(ctx, "starting backtest mode")
	return a.execute(ctx, deps, "backtest")
}

// Stream runs the engine over live websocket bars until ctx is cancelled.
// Cancellation is a normal shutdown.
func (a *App) Stream(ctx context.Context, deps *Dependencies) (*Result, error) {
	a.logger.InfoContext(ctx, "starting stream mode")
	res, err := a.execute(ctx, deps, "stream")
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return res, err
}

func (a *App) execute(ctx context.Context, deps *Dependencies, mode string) (*Result, error) {
	runID := a.cfg.Run.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := a.logger.With(slog.String("run_id", runID), slog.String("mode", mode))

	jobs, err := a.openJobs(ctx, deps)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, job := range jobs {
			if err := feed.Close(job.Source); err != nil {
				logger.Warn("close source failed", slog.String("symbol", job.Symbol), slog.String("error", err.Error()))
			}
		}
	}()

	sinks, err := buildSinks(a.cfg, deps, runID, logger)
	if err != nil {
		return nil, err
	}

	if a.cfg.Metrics.Addr != "" {
		srv := metrics.Serve(a.cfg.Metrics.Addr)
		logger.InfoContext(ctx, "metrics listening", slog.String("addr", a.cfg.Metrics.Addr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	run := domain.Run{
		ID:         runID,
		Mode:       mode,
		Symbols:    a.cfg.Run.Symbols,
		Strategies: a.cfg.Run.Strategies,
		StartedAt:  time.Now().UTC(),
	}
	recordRuns := a.cfg.Sink.RecordRuns && deps.RunStore != nil
	if recordRuns {
		if err := deps.RunStore.Start(ctx, run); err != nil {
			logger.WarnContext(ctx, "record run start failed", slog.String("error", err.Error()))
			recordRuns = false
		}
	}

	intentCh := make(chan domain.TradeIntent, intentBuffer)
	engine := strategy.NewEngine(a.registry, a.cfg.Strategies, a.cfg.Run.Capacity, runID, intentCh, a.logger)
	exec := executor.NewExecutor(intentCh, sinks.fanout, a.logger)

	if a.cfg.API.Addr != "" {
		srv := a.statusServer(deps, engine, mode, runID)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("status api stopped", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// The executor outlives ctx and stops once the engine closes the channel,
	// so end-of-run closes still reach the sinks.
	var g errgroup.Group
	g.Go(func() error {
		return exec.Run(context.WithoutCancel(ctx))
	})
	g.Go(func() error {
		defer close(intentCh)
		return engine.RunAll(ctx, jobs)
	})
	runErr := g.Wait()

	if err := sinks.close(); err != nil {
		logger.Warn("close journal failed", slog.String("error", err.Error()))
	}

	res := &Result{
		RunID:     runID,
		Instances: engine.Stats(),
		Executor:  exec.Stats(),
	}
	if sinks.journal != nil {
		res.Journal = sinks.journal.Path()
	}
	logSummary(logger, res)

	// Post-run work must finish even when the run was cancelled.
	post := context.WithoutCancel(ctx)
	a.archive(post, deps, res, logger)

	if recordRuns {
		finished := time.Now().UTC()
		run.FinishedAt = &finished
		run.Bars = res.Bars()
		run.Intents = res.Executor.Submitted
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if err := deps.RunStore.Finish(post, run); err != nil {
			logger.Warn("record run finish failed", slog.String("error", err.Error()))
		}
	}

	if sinks.notifier != nil {
		title, msg := runMessage(mode, res, runErr)
		if err := sinks.notifier.NotifyRun(post, title, msg); err != nil {
			logger.Warn("run notification failed", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		return res, fmt.Errorf("app: %s: %w", mode, runErr)
	}
	return res, nil
}

// runMessage renders the end-of-run notification.
func runMessage(mode string, res *Result, runErr error) (string, string) {
	title := fmt.Sprintf("%s run %s finished", mode, res.RunID)
	msg := fmt.Sprintf("%d instances, %d bars, %d intents submitted, %d failed",
		len(res.Instances), res.Bars(), res.Executor.Submitted, res.Executor.Failed)
	if runErr != nil {
		title = fmt.Sprintf("%s run %s failed", mode, res.RunID)
		msg += "\n" + runErr.Error()
	}
	return title, msg
}

// statusServer builds the status API over engine. Run lookups are served
// when the run table is available.
func (a *App) statusServer(deps *Dependencies, engine *strategy.Engine, mode, runID string) *server.Server {
	handlers := server.Handlers{
		Status: handler.NewStatusHandler(engine, mode, runID),
	}
	if deps.RunStore != nil {
		handlers.Runs = handler.NewRunHandler(deps.RunStore, deps.IntentStore, a.logger)
	}
	return server.NewServer(server.Config{Addr: a.cfg.API.Addr, APIKey: a.cfg.API.APIKey}, handlers, a.logger)
}

// openJobs opens one bar source per configured symbol.
func (a *App) openJobs(ctx context.Context, deps *Dependencies) ([]strategy.Job, error) {
	jobs := make([]strategy.Job, 0, len(a.cfg.Run.Symbols))
	for _, symbol := range a.cfg.Run.Symbols {
		src, err := a.openSource(ctx, deps, symbol)
		if err != nil {
			for _, job := range jobs {
				_ = feed.Close(job.Source)
			}
			return nil, fmt.Errorf("app: open feed for %s: %w", symbol, err)
		}
		jobs = append(jobs, strategy.Job{
			Symbol:     symbol,
			Source:     src,
			Strategies: a.cfg.Run.Strategies,
		})
	}
	return jobs, nil
}

func (a *App) openSource(ctx context.Context, deps *Dependencies, symbol string) (feed.Source, error) {
	fc := a.cfg.Feed
	switch fc.Kind {
	case config.FeedCSV:
		return feed.OpenCSV(config.ForSymbol(fc.Path, symbol))
	case config.FeedS3:
		if deps.BlobReader == nil {
			return nil, errors.New("s3 feed without object storage")
		}
		return feed.OpenBlobCSV(ctx, deps.BlobReader, config.ForSymbol(fc.Key, symbol))
	case config.FeedPostgres:
		if deps.BarStore == nil {
			return nil, errors.New("postgres feed without a database")
		}
		since, until, err := fc.Window()
		if err != nil {
			return nil, err
		}
		return feed.NewStoreSource(deps.BarStore, symbol, fc.Timeframe, timePtr(since), timePtr(until)), nil
	case config.FeedWebsocket:
		return feed.NewWebsocketSource(fc.URL, symbol, fc.Timeframe, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown feed kind %q", fc.Kind)
	}
}

// archive uploads the journal and exports stored intents when object storage
// is configured. Failures are logged; the run result stands.
func (a *App) archive(ctx context.Context, deps *Dependencies, res *Result, logger *slog.Logger) {
	if deps.Archiver == nil {
		return
	}
	if a.cfg.Sink.UploadJournal && res.Journal != "" {
		key, err := deps.Archiver.UploadJournal(ctx, res.RunID, res.Journal)
		if err != nil {
			logger.Warn("journal upload failed", slog.String("error", err.Error()))
		} else {
			res.JournalKey = key
			logger.Info("journal uploaded", slog.String("key", key))
		}
	}
	if a.cfg.Sink.Postgres {
		n, err := deps.Archiver.ArchiveRun(ctx, res.RunID)
		if err != nil {
			logger.Warn("intent archive failed", slog.String("error", err.Error()))
			return
		}
		res.Archived = n
	}
}

// logSummary writes one line per instance: bars, intents by action, the side
// left after flattening and the size the next layer would have used.
func logSummary(logger *slog.Logger, res *Result) {
	for _, st := range res.Instances {
		attrs := []any{
			slog.String("symbol", st.Symbol),
			slog.String("strategy", st.Strategy),
			slog.Int64("bars", st.Bars),
			slog.Any("intents", st.Intents),
			slog.String("side", string(st.Position.Side)),
			slog.Float64("layer_size", st.LayerSize),
		}
		if st.Err != "" {
			attrs = append(attrs, slog.String("error", st.Err))
		}
		logger.Info("instance summary", attrs...)
	}
	logger.Info("run summary",
		slog.Int64("bars", res.Bars()),
		slog.Int64("received", res.Executor.Received),
		slog.Int64("submitted", res.Executor.Submitted),
		slog.Int64("duplicates", res.Executor.Duplicates),
		slog.Int64("invalid", res.Executor.Invalid),
		slog.Int64("failed", res.Executor.Failed),
	)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
