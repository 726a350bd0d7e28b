package handler

import (
	"net/http"
	"time"

	"github.com/jackleZac/trading-algorithm/internal/domain"
	"github.com/jackleZac/trading-algorithm/internal/strategy"
)

// EngineView is the read side of strategy.Engine.
type EngineView interface {
	Stats() []strategy.InstanceStats
	RecentIntents(limit int) []domain.TradeIntent
}

// StatusHandler serves the live state of one run.
type StatusHandler struct {
	engine  EngineView
	mode    string
	runID   string
	started time.Time
}

// NewStatusHandler creates a StatusHandler for the run identified by runID.
func NewStatusHandler(engine EngineView, mode, runID string) *StatusHandler {
	return &StatusHandler{engine: engine, mode: mode, runID: runID, started: time.Now().UTC()}
}

// Health reports liveness.
// GET /api/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetStatus reports the mode, run and bar totals.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	var bars int64
	stats := h.engine.Stats()
	for _, st := range stats {
		bars += st.Bars
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":       h.mode,
		"run_id":     h.runID,
		"started_at": h.started.Format(time.RFC3339),
		"instances":  len(stats),
		"bars":       bars,
	})
}

type instanceView struct {
	Symbol    string                        `json:"symbol"`
	Strategy  string                        `json:"strategy"`
	Bars      int64                         `json:"bars"`
	Intents   map[domain.IntentAction]int64 `json:"intents"`
	Side      domain.Side                   `json:"side"`
	Size      float64                       `json:"size"`
	Layers    int                           `json:"layers"`
	LayerSize float64                       `json:"layer_size"`
	Error     string                        `json:"error,omitempty"`
}

// ListInstances returns one entry per (symbol, strategy) instance.
// GET /api/instances
func (h *StatusHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	out := make([]instanceView, 0, len(stats))
	for _, st := range stats {
		out = append(out, instanceView{
			Symbol:    st.Symbol,
			Strategy:  st.Strategy,
			Bars:      st.Bars,
			Intents:   st.Intents,
			Side:      st.Position.Side,
			Size:      st.Position.Size,
			Layers:    len(st.Position.Entries),
			LayerSize: st.LayerSize,
			Error:     st.Err,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": out})
}

// ListIntents returns the most recent intents, newest first.
// GET /api/intents?limit=N
func (h *StatusHandler) ListIntents(w http.ResponseWriter, r *http.Request) {
	intents := h.engine.RecentIntents(limitParam(r))
	if intents == nil {
		intents = []domain.TradeIntent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"intents": intents})
}
