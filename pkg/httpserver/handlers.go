package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dpereira/kalshi-poly-arb/internal/execution"
	"github.com/dpereira/kalshi-poly-arb/internal/scanner"
)

type apiHandler struct {
	scanner    ScanService
	executions ExecutionService
	logger     *zap.Logger
}

func newAPIHandler(scan ScanService, exec ExecutionService, logger *zap.Logger) *apiHandler {
	return &apiHandler{scanner: scan, executions: exec, logger: logger}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *apiHandler) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		h.logger.Error("response-encode-failed", zap.Error(err))
	}
}

func (h *apiHandler) writeError(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, ErrorResponse{Error: message})
}

// handleOpportunities serves the latest scan's opportunities, sorted by
// ROI descending.
func (h *apiHandler) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opps := h.scanner.Opportunities()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"count":         len(opps),
	})
}

// handleMatches serves the latest scan's matched pairs.
func (h *apiHandler) handleMatches(w http.ResponseWriter, r *http.Request) {
	matches := h.scanner.Matches()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}

// handleStats serves the scanner state snapshot.
func (h *apiHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.scanner.Stats())
}

// handleExecutions serves the execution audit log and today's PnL.
func (h *apiHandler) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if h.executions == nil {
		h.writeError(w, http.StatusNotFound, "execution log not available")
		return
	}

	log := h.executions.ExecutionLog()
	summaries := make([]execution.RecordSummary, 0, len(log))
	for _, record := range log {
		summaries = append(summaries, record.Summary())
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"executions": summaries,
		"count":      len(summaries),
		"daily_pnl":  h.executions.DailyPnL(),
	})
}

// handleSettings applies a partial runtime settings update and returns
// the resulting snapshot.
func (h *apiHandler) handleSettings(w http.ResponseWriter, r *http.Request) {
	var update scanner.SettingsUpdate
	err := json.NewDecoder(r.Body).Decode(&update)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid settings payload: "+err.Error())
		return
	}

	if update.ScanIntervalSeconds != nil && *update.ScanIntervalSeconds < 1 {
		h.writeError(w, http.StatusBadRequest, "scan_interval must be at least 1 second")
		return
	}
	if update.MatchThreshold != nil && (*update.MatchThreshold < 0 || *update.MatchThreshold > 100) {
		h.writeError(w, http.StatusBadRequest, "match_threshold must be within [0, 100]")
		return
	}
	if update.MinProfitCents != nil && *update.MinProfitCents < 0 {
		h.writeError(w, http.StatusBadRequest, "min_profit_cents must not be negative")
		return
	}
	if update.MaxPositionUSD != nil && *update.MaxPositionUSD <= 0 {
		h.writeError(w, http.StatusBadRequest, "max_position_usd must be positive")
		return
	}

	h.scanner.UpdateSettings(update)
	h.writeJSON(w, http.StatusOK, h.scanner.Stats())
}
