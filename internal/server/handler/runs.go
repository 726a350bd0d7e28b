package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// RunHandler serves stored runs and their intents.
type RunHandler struct {
	runs    domain.RunStore
	intents domain.IntentStore
	logger  *slog.Logger
}

// NewRunHandler creates a RunHandler. intents may be nil.
func NewRunHandler(runs domain.RunStore, intents domain.IntentStore, logger *slog.Logger) *RunHandler {
	return &RunHandler{runs: runs, intents: intents, logger: logger.With(slog.String("handler", "runs"))}
}

// GetRun returns one run row.
// GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.runs.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get run failed", slog.String("run_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ListIntents pages the stored intents of a run in bar order.
// GET /api/runs/{id}/intents?limit=N&offset=M
func (h *RunHandler) ListIntents(w http.ResponseWriter, r *http.Request) {
	if h.intents == nil {
		writeError(w, http.StatusNotImplemented, "intent store not configured")
		return
	}
	id := r.PathValue("id")
	opts := domain.ListOpts{Limit: limitParam(r), Offset: queryInt(r, "offset", 0)}
	intents, err := h.intents.ListByRun(r.Context(), id, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list run intents failed", slog.String("run_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list intents")
		return
	}
	if intents == nil {
		intents = []domain.TradeIntent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "intents": intents})
}
