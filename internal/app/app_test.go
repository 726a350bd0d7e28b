package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/config"
	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/feed"
	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bar(i int, o, h, l, c float64) domain.Bar {
	return domain.Bar{Time: t0.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c}
}

// trendBars enters ma_sr long on bar 3 and takes profit on bar 5.
func trendBars() []domain.Bar {
	return []domain.Bar{
		bar(0, 10.0, 10.2, 9.9, 10.1),
		bar(1, 10.1, 10.3, 10.0, 10.2),
		bar(2, 10.2, 10.4, 10.1, 10.3),
		bar(3, 10.3, 11.0, 10.2, 10.9),
		bar(4, 10.9, 11.5, 10.8, 11.4),
		bar(5, 11.4, 12.2, 11.3, 12.1),
	}
}

func writeCSV(t *testing.T, path string, bars []domain.Bar) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()
	if err := feed.WriteCSV(f, bars); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func backtestConfig(dir string) *config.Config {
	cfg := config.Defaults()
	cfg.Run.Symbols = []string{"USDJPY"}
	cfg.Run.Strategies = []string{strategy.NameMASR}
	cfg.Run.Capacity = 100
	cfg.Run.RunID = "bt-1"
	cfg.Feed.Path = filepath.Join(dir, "{symbol}.csv")
	cfg.Sink.Journal = filepath.Join(dir, "out", "{run_id}.jsonl")
	cfg.Strategies.MASR = strategy.MASRParams{
		Size:      1,
		MAPeriod:  3,
		SRPeriod:  2,
		ATRPeriod: 2,
		SLMult:    1,
		TPMult:    2,
	}
	return &cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestBacktestFromCSV(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "USDJPY.csv"), trendBars())
	cfg := backtestConfig(dir)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	a := New(cfg, discardLogger())
	res, err := a.Backtest(context.Background(), &Dependencies{})
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if res.RunID != "bt-1" {
		t.Fatalf("expected run id bt-1, got %q", res.RunID)
	}
	if res.Bars() != 6 {
		t.Fatalf("expected 6 bars, got %d", res.Bars())
	}
	if res.Executor.Submitted != 2 {
		t.Fatalf("expected open and close submitted, got %+v", res.Executor)
	}
	if len(res.Instances) != 1 || res.Instances[0].Position.Side != domain.SideFlat {
		t.Fatalf("expected one flat instance, got %+v", res.Instances)
	}
	if res.Instances[0].LayerSize != 1 {
		t.Fatalf("expected layer size 1 in the summary, got %v", res.Instances[0].LayerSize)
	}
	want := filepath.Join(dir, "out", "bt-1.jsonl")
	if res.Journal != want {
		t.Fatalf("expected journal %s, got %s", want, res.Journal)
	}
	if n := countLines(t, want); n != 2 {
		t.Fatalf("expected 2 journal lines, got %d", n)
	}
}

func TestBacktestFlattensOpenPosition(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "USDJPY.csv"), trendBars()[:5])
	cfg := backtestConfig(dir)
	cfg.Sink.Journal = ""

	res, err := New(cfg, discardLogger()).Backtest(context.Background(), &Dependencies{})
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if res.Executor.ByAction[domain.ActionClose] != 1 {
		t.Fatalf("expected end-of-run close, got %+v", res.Executor.ByAction)
	}
	if res.Journal != "" {
		t.Fatalf("expected no journal, got %s", res.Journal)
	}
}

func TestBacktestMissingFile(t *testing.T) {
	cfg := backtestConfig(t.TempDir())
	if _, err := New(cfg, discardLogger()).Backtest(context.Background(), &Dependencies{}); err == nil {
		t.Fatal("expected error for missing csv")
	}
}

func TestBacktestRejectsOutOfOrderBars(t *testing.T) {
	dir := t.TempDir()
	bars := trendBars()
	bars[2], bars[3] = bars[3], bars[2]
	writeCSV(t, filepath.Join(dir, "USDJPY.csv"), bars)

	_, err := New(backtestConfig(dir), discardLogger()).Backtest(context.Background(), &Dependencies{})
	if !errors.Is(err, domain.ErrOutOfOrderBar) {
		t.Fatalf("expected ErrOutOfOrderBar, got %v", err)
	}
}

func TestBuildSinksNeedsBackends(t *testing.T) {
	cfg := config.Defaults()
	cfg.Sink.Postgres = true
	if _, err := buildSinks(&cfg, &Dependencies{}, "r", discardLogger()); err == nil {
		t.Fatal("expected error for postgres sink without store")
	}

	cfg = config.Defaults()
	set, err := buildSinks(&cfg, &Dependencies{}, "r", discardLogger())
	if err != nil {
		t.Fatalf("build sinks: %v", err)
	}
	if len(set.fanout.Sinks()) != 1 || set.fanout.Sinks()[0].Name() != "log" {
		t.Fatalf("expected only the log sink, got %d sinks", len(set.fanout.Sinks()))
	}
}

func TestJournalPath(t *testing.T) {
	if got := journalPath("out/{run_id}.jsonl", "abc"); got != "out/abc.jsonl" {
		t.Fatalf("expected out/abc.jsonl, got %s", got)
	}
}

// memBars is an in-memory BarStore keyed by timestamp.
type memBars struct {
	rows  map[time.Time]domain.Bar
	calls int
}

func (m *memBars) InsertBatch(_ context.Context, _, _ string, bars []domain.Bar) (int64, error) {
	m.calls++
	var n int64
	for _, b := range bars {
		if _, ok := m.rows[b.Time]; !ok {
			m.rows[b.Time] = b
			n++
		}
	}
	return n, nil
}

func (m *memBars) ListBars(context.Context, string, string, domain.ListOpts) ([]domain.Bar, error) {
	return nil, nil
}

func (m *memBars) LastTime(context.Context, string, string) (time.Time, error) {
	return time.Time{}, domain.ErrNotFound
}

func TestImportBarsSkipsExisting(t *testing.T) {
	store := &memBars{rows: map[time.Time]domain.Bar{}}
	bars := trendBars()
	store.rows[bars[0].Time] = bars[0]

	st, err := ImportBars(context.Background(), store, feed.NewSliceSource(bars), "USDJPY", "1m", discardLogger())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if st.Read != 6 || st.Inserted != 5 {
		t.Fatalf("expected 6 read and 5 inserted, got %+v", st)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single batch, got %d", store.calls)
	}
}

func TestImportBarsStopsOnInvalidBar(t *testing.T) {
	store := &memBars{rows: map[time.Time]domain.Bar{}}
	bars := trendBars()
	bars[3].High = 1 // below the body

	st, err := ImportBars(context.Background(), store, feed.NewSliceSource(bars), "USDJPY", "1m", discardLogger())
	if !errors.Is(err, domain.ErrInvalidBar) {
		t.Fatalf("expected ErrInvalidBar, got %v", err)
	}
	if !strings.Contains(err.Error(), "bar 4") {
		t.Fatalf("expected bar position in %q", err)
	}
	if st.Inserted != 3 {
		t.Fatalf("expected earlier bars kept, got %+v", st)
	}
}

func TestBuildSinksAddsNotifier(t *testing.T) {
	cfg := config.Defaults()
	cfg.Notify.DiscordWebhookURL = "http://127.0.0.1:1/hook"
	set, err := buildSinks(&cfg, &Dependencies{}, "r", discardLogger())
	if err != nil {
		t.Fatalf("build sinks: %v", err)
	}
	if set.notifier == nil || len(set.fanout.Sinks()) != 2 {
		t.Fatalf("expected log and notify sinks, got %d", len(set.fanout.Sinks()))
	}
}

func TestRunMessage(t *testing.T) {
	res := &Result{RunID: "r1", Instances: []strategy.InstanceStats{{Bars: 10}, {Bars: 5}}}
	title, msg := runMessage("backtest", res, nil)
	if title != "backtest run r1 finished" || !strings.Contains(msg, "15 bars") {
		t.Fatalf("unexpected message %q %q", title, msg)
	}
	title, msg = runMessage("backtest", res, errors.New("boom"))
	if !strings.Contains(title, "failed") || !strings.HasSuffix(msg, "boom") {
		t.Fatalf("unexpected failure message %q %q", title, msg)
	}
}
