// Package api exposes the waterfall engine, sensitivity sweeps, threshold
// searches, and saved scenarios over HTTP JSON endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/analysis"
	"github.com/fundwise/waterfall/internal/scenario"
	"github.com/fundwise/waterfall/internal/waterfall"
)

// SweepDefaults is the exit grid used when a sweep request omits its range.
type SweepDefaults struct {
	From decimal.Decimal
	To   decimal.Decimal
	Step decimal.Decimal
}

// Handler provides HTTP endpoints for the waterfall API.
type Handler struct {
	scenarios *scenario.Service // nil when no database is configured
	defaults  SweepDefaults
}

// NewHandler creates a new API handler.
func NewHandler(scenarios *scenario.Service, defaults SweepDefaults) *Handler {
	return &Handler{scenarios: scenarios, defaults: defaults}
}

// Compute handles POST /api/v1/waterfall.
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var params waterfall.Parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := waterfall.Compute(params)
	if err != nil {
		if errors.Is(err, waterfall.ErrInvalidParameters) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to compute waterfall", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type sweepRequest struct {
	Params waterfall.Parameters `json:"params"`
	From   *decimal.Decimal     `json:"from"`
	To     *decimal.Decimal     `json:"to"`
	Step   *decimal.Decimal     `json:"step"`
}

// Sweep handles POST /api/v1/waterfall/sweep.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	grid, err := analysis.Range(
		lo.FromPtrOr(req.From, h.defaults.From),
		lo.FromPtrOr(req.To, h.defaults.To),
		lo.FromPtrOr(req.Step, h.defaults.Step),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := analysis.SweepAll(req.Params, grid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type thresholdsRequest struct {
	Params  waterfall.Parameters `json:"params"`
	Targets []decimal.Decimal    `json:"targets"`
	From    *decimal.Decimal     `json:"from"`
	To      *decimal.Decimal     `json:"to"`
	Step    *decimal.Decimal     `json:"step"`
}

type thresholdResult struct {
	TargetMOIC   decimal.Decimal  `json:"targetMoic"`
	RequiredExit *decimal.Decimal `json:"requiredExit"`
}

// defaultTargets are the MOIC thresholds reported when a request names none.
var defaultTargets = []string{"1.0", "1.5", "2.0", "3.0", "5.0"}

// Thresholds handles POST /api/v1/waterfall/thresholds.
func (h *Handler) Thresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets = lo.Map(defaultTargets, func(s string, _ int) decimal.Decimal {
			return decimal.RequireFromString(s)
		})
	}

	from := lo.FromPtrOr(req.From, h.defaults.From)
	to := lo.FromPtrOr(req.To, h.defaults.To)
	step := lo.FromPtrOr(req.Step, h.defaults.Step)

	results := make([]thresholdResult, 0, len(targets))
	for _, target := range targets {
		exit, err := analysis.MinimumExitFor(req.Params, target, from, to, step)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		results = append(results, thresholdResult{TargetMOIC: target, RequiredExit: exit})
	}
	writeJSON(w, http.StatusOK, results)
}

// ListScenarios handles GET /api/v1/scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 500
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	scenarios, err := h.scenarios.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list scenarios", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

// GetScenario handles GET /api/v1/scenarios/{name}.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	s, err := h.scenarios.Get(r.Context(), name)
	if err != nil {
		if errors.Is(err, scenario.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		slog.Error("failed to get scenario", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type saveScenarioRequest struct {
	Name   string               `json:"name"`
	Params waterfall.Parameters `json:"params"`
}

// SaveScenario handles POST /api/v1/scenarios.
func (h *Handler) SaveScenario(w http.ResponseWriter, r *http.Request) {
	var req saveScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "scenario name is required")
		return
	}

	result, err := h.scenarios.Evaluate(r.Context(), req.Name, req.Params)
	if err != nil {
		if errors.Is(err, waterfall.ErrInvalidParameters) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("failed to save scenario", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
