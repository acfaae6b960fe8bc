// Package waterfall implements the two-tier liquidation-preference waterfall:
// exit proceeds flow through a management carve-out, the fund's
// non-participating preference, management fees, and the LP/GP profit split
// down to a single investor's distributions and return metrics.
package waterfall

import (
	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/irr"
)

// Result is the fully itemized outcome of one waterfall evaluation.
// It is derived data and never mutated after Compute returns it.
type Result struct {
	ExitPrice decimal.Decimal `json:"exitPrice"`

	// Company level.
	CarveOutAmount decimal.Decimal `json:"carveOutAmount"`
	NetProceeds    decimal.Decimal `json:"netProceeds"`

	// Fund level.
	FundOwnershipFraction decimal.Decimal `json:"fundOwnershipFraction"`
	LiquidationPreference decimal.Decimal `json:"liquidationPreference"`
	ProRataAmount         decimal.Decimal `json:"proRataAmount"`
	// LiqPrefApplies is true when the preference is greater than or equal to
	// the pro-rata share. Equality resolving to the preference is a fixed,
	// arbitrary choice kept for compatibility with the modeled terms.
	LiqPrefApplies       bool            `json:"liqPrefApplies"`
	FundGrossProceeds    decimal.Decimal `json:"fundGrossProceeds"`
	ManagementFees       decimal.Decimal `json:"managementFees"`
	FundNetProceeds      decimal.Decimal `json:"fundNetProceeds"`
	ReturnOfCapital      decimal.Decimal `json:"returnOfCapital"`
	Profit               decimal.Decimal `json:"profit"`
	LPProfitShare        decimal.Decimal `json:"lpProfitShare"`
	GPCarry              decimal.Decimal `json:"gpCarry"`
	TotalLPDistributions decimal.Decimal `json:"totalLpDistributions"`

	// Investor level.
	InvestorFundFraction    decimal.Decimal `json:"investorFundFraction"`
	InvestorReturnOfCapital decimal.Decimal `json:"investorReturnOfCapital"`
	InvestorProfitShare     decimal.Decimal `json:"investorProfitShare"`
	InvestorTotal           decimal.Decimal `json:"investorTotal"`

	MOIC decimal.Decimal `json:"moic"`
	// IRR is nil when the solver cannot produce a rate (e.g. a total loss).
	// Nil is "not available", which callers must not render as 0%.
	IRR *decimal.Decimal `json:"irr"`
}

// Compute evaluates the waterfall for the given parameters. It is a pure
// function: safe for concurrent use and free of I/O. Defaults are applied
// before validation, so callers only need to set the deal-specific fields.
func Compute(params Parameters) (Result, error) {
	p := params.WithDefaults()
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	feeBase := p.feeBase()

	fundOwnership := p.FundSize.Div(p.PostMoneyValuation)
	investorFraction := p.InvestorContribution.Div(p.FundSize)

	// Management carve-out comes off the top, but only below the threshold.
	carveOut := decimal.Zero
	if p.CarveOutThreshold == nil || p.ExitPrice.LessThan(*p.CarveOutThreshold) {
		carveOut = p.ExitPrice.Mul(p.CarveOutRate)
	}
	netProceeds := p.ExitPrice.Sub(carveOut)

	// Non-participating: greater of the preference on invested capital or
	// the pro-rata share, never both.
	liqPref := p.LiquidationMultiple.Mul(feeBase)
	proRata := fundOwnership.Mul(netProceeds)
	liqPrefApplies := liqPref.GreaterThanOrEqual(proRata)
	grossProceeds := decimal.Max(liqPref, proRata)

	// The tier can never receive more than the net proceeds, even when both
	// nominal amounts exceed them.
	grossProceeds = decimal.Min(grossProceeds, netProceeds)

	// Fees accrue on committed capital for the full period, uncapped: they
	// may push net proceeds negative.
	fees := feeBase.Mul(p.ManagementFeeRate).Mul(decimal.NewFromInt(int64(p.HoldingPeriodYears)))
	netAfterFees := grossProceeds.Sub(fees)

	// Return capital first, then split profits.
	var returnOfCapital, profit, lpShare, gpCarry decimal.Decimal
	if netAfterFees.GreaterThanOrEqual(feeBase) {
		returnOfCapital = feeBase
		profit = netAfterFees.Sub(feeBase)
		lpShare = profit.Mul(p.LPProfitSplit)
		gpCarry = profit.Mul(p.GPProfitSplit)
	} else {
		// Losses floor at zero; a deficit is not passed through.
		returnOfCapital = decimal.Max(netAfterFees, decimal.Zero)
	}

	totalLP := returnOfCapital.Add(lpShare)

	investorROC := investorFraction.Mul(returnOfCapital)
	investorProfit := investorFraction.Mul(lpShare)
	investorTotal := investorFraction.Mul(totalLP)

	moic := investorTotal.Div(p.InvestorContribution)

	return Result{
		ExitPrice:               p.ExitPrice,
		CarveOutAmount:          carveOut,
		NetProceeds:             netProceeds,
		FundOwnershipFraction:   fundOwnership,
		LiquidationPreference:   liqPref,
		ProRataAmount:           proRata,
		LiqPrefApplies:          liqPrefApplies,
		FundGrossProceeds:       grossProceeds,
		ManagementFees:          fees,
		FundNetProceeds:         netAfterFees,
		ReturnOfCapital:         returnOfCapital,
		Profit:                  profit,
		LPProfitShare:           lpShare,
		GPCarry:                 gpCarry,
		TotalLPDistributions:    totalLP,
		InvestorFundFraction:    investorFraction,
		InvestorReturnOfCapital: investorROC,
		InvestorProfitShare:     investorProfit,
		InvestorTotal:           investorTotal,
		MOIC:                    moic,
		IRR:                     solveIRR(p, investorTotal),
	}, nil
}

// solveIRR builds the cash-flow sequence [-contribution, 0, ..., 0, total]
// and solves it. Returns nil when no rate is available.
func solveIRR(p Parameters, investorTotal decimal.Decimal) *decimal.Decimal {
	flows := make([]float64, p.HoldingPeriodYears+1)
	flows[0] = p.InvestorContribution.Neg().InexactFloat64()
	flows[p.HoldingPeriodYears] = investorTotal.InexactFloat64()

	rate, ok := irr.Solve(flows)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(rate)
	return &d
}
