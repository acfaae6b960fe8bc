// Package export renders sensitivity sweeps as spreadsheet reports, either a
// local .xlsx workbook or a Google Sheets spreadsheet.
package export

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/analysis"
	"github.com/fundwise/waterfall/internal/domain"
	"github.com/fundwise/waterfall/internal/waterfall"
)

// SweepRow holds one exit value's outcome in display units (millions,
// percent). IRRPercent is nil when the solver produced no rate; writers must
// leave that cell empty rather than writing zero.
type SweepRow struct {
	ExitMM           decimal.Decimal
	CarveOutMM       decimal.Decimal
	FundGrossMM      decimal.Decimal
	FeesMM           decimal.Decimal
	LPDistributionMM decimal.Decimal
	InvestorTotalMM  decimal.Decimal
	MOIC             decimal.Decimal
	IRRPercent       *decimal.Decimal
}

// sweepHeader is the column set shared by all writers.
var sweepHeader = []string{
	"Exit Value ($M)", "Carve Out ($M)", "Fund Gross ($M)", "Mgmt Fees ($M)",
	"LP Distributions ($M)", "Net to Investor ($M)", "MOIC (x)", "IRR (%)",
}

// SheetWriter writes sweep rows to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, rows []SweepRow) error
}

// Service runs a sensitivity sweep and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	return &Service{writer: writer}
}

// Export sweeps the base parameters across the exit grid and writes the
// resulting table.
func (s *Service) Export(ctx context.Context, base waterfall.Parameters, exitValues []decimal.Decimal) error {
	results, err := analysis.SweepAll(base, exitValues)
	if err != nil {
		return err
	}
	return s.writer.Write(ctx, BuildRows(results))
}

// BuildRows converts sweep results to display-unit rows.
func BuildRows(results []waterfall.Result) []SweepRow {
	return lo.Map(results, func(r waterfall.Result, _ int) SweepRow {
		row := SweepRow{
			ExitMM:           domain.Millions(r.ExitPrice),
			CarveOutMM:       domain.Millions(r.CarveOutAmount),
			FundGrossMM:      domain.Millions(r.FundGrossProceeds),
			FeesMM:           domain.Millions(r.ManagementFees),
			LPDistributionMM: domain.Millions(r.TotalLPDistributions),
			InvestorTotalMM:  domain.Millions(r.InvestorTotal),
			MOIC:             r.MOIC,
		}
		if r.IRR != nil {
			pct := r.IRR.Mul(decimal.NewFromInt(100))
			row.IRRPercent = &pct
		}
		return row
	})
}

// buildValues builds the header plus data rows as sheet values.
func buildValues(rows []SweepRow) [][]any {
	data := make([][]any, 0, len(rows)+1)

	header := make([]any, len(sweepHeader))
	for i, h := range sweepHeader {
		header[i] = h
	}
	data = append(data, header)

	for _, row := range rows {
		data = append(data, []any{
			toFloat(row.ExitMM),
			toFloat(row.CarveOutMM),
			toFloat(row.FundGrossMM),
			toFloat(row.FeesMM),
			toFloat(row.LPDistributionMM),
			toFloat(row.InvestorTotalMM),
			toFloat(row.MOIC),
			ptrFloat(row.IRRPercent),
		})
	}

	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
