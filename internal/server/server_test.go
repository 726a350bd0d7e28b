package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/server/handler"
	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

type fakeEngine struct {
	stats   []strategy.InstanceStats
	intents []domain.TradeIntent
	limit   int
}

func (f *fakeEngine) Stats() []strategy.InstanceStats { return f.stats }

func (f *fakeEngine) RecentIntents(limit int) []domain.TradeIntent {
	f.limit = limit
	return f.intents[:min(limit, len(f.intents))]
}

type fakeRuns struct{ run domain.Run }

func (f *fakeRuns) Start(context.Context, domain.Run) error  { return nil }
func (f *fakeRuns) Finish(context.Context, domain.Run) error { return nil }
func (f *fakeRuns) GetByID(_ context.Context, id string) (domain.Run, error) {
	if id != f.run.ID {
		return domain.Run{}, domain.ErrNotFound
	}
	return f.run, nil
}

func newTestServer(apiKey string) (*Server, *fakeEngine) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := &fakeEngine{
		stats: []strategy.InstanceStats{
			{Symbol: "XAUUSD", Strategy: "breakout", Bars: 120, LayerSize: 0.04, Position: domain.Position{Side: domain.SideLong, Size: 0.03, Entries: []float64{1, 2}}},
			{Symbol: "EURUSD", Strategy: "breakout", Bars: 80, Position: domain.Position{Side: domain.SideFlat}},
		},
		intents: []domain.TradeIntent{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}
	srv := NewServer(Config{Addr: ":0", APIKey: apiKey}, Handlers{
		Status: handler.NewStatusHandler(eng, "stream", "run-7"),
		Runs:   handler.NewRunHandler(&fakeRuns{run: domain.Run{ID: "run-7", Mode: "stream"}}, nil, logger),
	}, logger)
	return srv, eng
}

func do(t *testing.T, h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthSkipsAuth(t *testing.T) {
	srv, _ := newTestServer("secret")
	if rec := do(t, srv.Handler(), "/api/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, srv.Handler(), "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer("secret")
	if rec := do(t, srv.Handler(), "/api/status", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, srv.Handler(), "/api/status", map[string]string{"X-API-Key": "nope"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}
	rec := do(t, srv.Handler(), "/api/status", map[string]string{"Authorization": "Bearer secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		RunID     string `json:"run_id"`
		Instances int    `json:"instances"`
		Bars      int64  `json:"bars"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID != "run-7" || body.Instances != 2 || body.Bars != 200 {
		t.Fatalf("unexpected status %+v", body)
	}
}

func TestListInstances(t *testing.T) {
	srv, _ := newTestServer("")
	rec := do(t, srv.Handler(), "/api/instances", nil)
	var body struct {
		Instances []struct {
			Symbol string  `json:"symbol"`
			Side   string  `json:"side"`
			Layers int     `json:"layers"`
			Size   float64 `json:"size"`
			Next   float64 `json:"layer_size"`
		} `json:"instances"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Instances) != 2 || body.Instances[0].Layers != 2 || body.Instances[0].Side != "long" {
		t.Fatalf("unexpected instances %+v", body.Instances)
	}
	if body.Instances[0].Next != 0.04 {
		t.Fatalf("expected layer_size 0.04, got %v", body.Instances[0].Next)
	}
}

func TestListIntentsClampsLimit(t *testing.T) {
	srv, eng := newTestServer("")
	rec := do(t, srv.Handler(), "/api/intents?limit=2", nil)
	var body struct {
		Intents []domain.TradeIntent `json:"intents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Intents) != 2 || eng.limit != 2 {
		t.Fatalf("expected 2 intents, got %d (limit %d)", len(body.Intents), eng.limit)
	}
	do(t, srv.Handler(), "/api/intents?limit=100000", nil)
	if eng.limit != 500 {
		t.Fatalf("expected limit clamped to 500, got %d", eng.limit)
	}
}

func TestRuns(t *testing.T) {
	srv, _ := newTestServer("")
	if rec := do(t, srv.Handler(), "/api/runs/run-7", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, srv.Handler(), "/api/runs/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, srv.Handler(), "/api/runs/run-7/intents", nil); rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without intent store, got %d", rec.Code)
	}
}
