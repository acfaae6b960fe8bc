// Package worker contains background loops that keep stored scenarios and
// exported reports current.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/scenario"
	"github.com/fundwise/waterfall/internal/waterfall"
)

// refreshLimit caps how many scenarios a single refresh pass touches.
const refreshLimit = 100

// ScenarioStore defines the scenario operations the worker needs.
type ScenarioStore interface {
	List(ctx context.Context, limit int) ([]scenario.Scenario, error)
	Params(ctx context.Context, name string) (waterfall.Parameters, error)
	Evaluate(ctx context.Context, name string, params waterfall.Parameters) (waterfall.Result, error)
}

// SweepExporter writes a sensitivity sweep report for the given parameters.
type SweepExporter interface {
	Export(ctx context.Context, base waterfall.Parameters, exitValues []decimal.Decimal) error
}

// ReportWorker periodically recomputes stored scenario results and re-exports
// the sensitivity report for the most recently updated scenario. Recomputing
// keeps stored results consistent with the current engine.
type ReportWorker struct {
	scenarios ScenarioStore
	exporter  SweepExporter // optional
	interval  time.Duration
	exitGrid  []decimal.Decimal
}

// NewReportWorker creates a new ReportWorker with an optional sweep exporter.
func NewReportWorker(scenarios ScenarioStore, exporter SweepExporter, interval time.Duration, exitGrid []decimal.Decimal) *ReportWorker {
	return &ReportWorker{
		scenarios: scenarios,
		exporter:  exporter,
		interval:  interval,
		exitGrid:  exitGrid,
	}
}

// refresh recomputes every stored scenario and exports the report for the
// most recently updated one.
func (w *ReportWorker) refresh(ctx context.Context) {
	stored, err := w.scenarios.List(ctx, refreshLimit)
	if err != nil {
		slog.Error("ReportWorker: listing scenarios failed", "error", err)
		return
	}
	if len(stored) == 0 {
		slog.Info("ReportWorker: no scenarios to refresh")
		return
	}

	for _, s := range stored {
		params, err := w.scenarios.Params(ctx, s.Name)
		if err != nil {
			slog.Error("ReportWorker: loading scenario params failed", "name", s.Name, "error", err)
			continue
		}
		if _, err := w.scenarios.Evaluate(ctx, s.Name, params); err != nil {
			slog.Error("ReportWorker: recomputing scenario failed", "name", s.Name, "error", err)
		}
	}
	slog.Info("ReportWorker: refreshed scenarios", "count", len(stored))

	w.export(ctx, stored[0].Name)
}

// export writes the sensitivity report for the named scenario if an exporter
// is configured.
func (w *ReportWorker) export(ctx context.Context, name string) {
	if w.exporter == nil {
		return
	}

	params, err := w.scenarios.Params(ctx, name)
	if err != nil {
		slog.Error("ReportWorker: loading export params failed", "name", name, "error", err)
		return
	}
	if err := w.exporter.Export(ctx, params, w.exitGrid); err != nil {
		slog.Error("ReportWorker: export failed", "name", name, "error", err)
		return
	}
	slog.Info("ReportWorker: export completed", "name", name)
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}
