package waterfall

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func mustCompute(t *testing.T, p Parameters) Result {
	t.Helper()
	r, err := Compute(p)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	return r
}

func TestComputeScenarioProRataApplies(t *testing.T) {
	// $200M exit at the carve-out threshold: no carve-out, pro-rata beats
	// the 2x preference.
	r := mustCompute(t, validParams())

	if !r.CarveOutAmount.IsZero() {
		t.Errorf("carve-out = %s, want 0 (exit at threshold)", r.CarveOutAmount)
	}
	if !r.NetProceeds.Equal(decimal.NewFromInt(200_000_000)) {
		t.Errorf("net proceeds = %s, want 200000000", r.NetProceeds)
	}
	if got := r.FundOwnershipFraction.Round(5); !got.Equal(decimal.RequireFromString("0.12195")) {
		t.Errorf("fund ownership = %s, want 0.12195", got)
	}
	if !r.LiquidationPreference.Equal(decimal.NewFromInt(20_000_000)) {
		t.Errorf("liquidation preference = %s, want 20000000", r.LiquidationPreference)
	}
	if got := r.ProRataAmount.Round(2); !got.Equal(decimal.RequireFromString("24390243.90")) {
		t.Errorf("pro-rata = %s, want 24390243.90", got)
	}
	if r.LiqPrefApplies {
		t.Error("LiqPrefApplies = true, want false (pro-rata is higher)")
	}
	if !r.FundGrossProceeds.Equal(r.ProRataAmount) {
		t.Errorf("gross proceeds = %s, want pro-rata %s", r.FundGrossProceeds, r.ProRataAmount)
	}
	if !r.ManagementFees.Equal(decimal.NewFromInt(400_000)) {
		t.Errorf("management fees = %s, want 400000", r.ManagementFees)
	}
	if !r.InvestorFundFraction.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("investor fund fraction = %s, want 0.2", r.InvestorFundFraction)
	}
	if got := r.MOIC.Round(4); !got.Equal(decimal.RequireFromString("2.1192")) {
		t.Errorf("MOIC = %s, want 2.1192", got)
	}

	if r.IRR == nil {
		t.Fatal("IRR absent, want a value")
	}
	// Two-year hold: IRR is sqrt(MOIC) - 1.
	wantIRR := math.Sqrt(r.MOIC.InexactFloat64()) - 1
	if got := r.IRR.InexactFloat64(); math.Abs(got-wantIRR) > 1e-6 {
		t.Errorf("IRR = %v, want %v", got, wantIRR)
	}
}

func TestComputeScenarioCarveOutBelowThreshold(t *testing.T) {
	p := validParams().WithExitPrice(decimal.NewFromInt(100_000_000))
	r := mustCompute(t, p)

	if !r.CarveOutAmount.Equal(decimal.NewFromInt(10_000_000)) {
		t.Errorf("carve-out = %s, want 10000000", r.CarveOutAmount)
	}
	if !r.NetProceeds.Equal(decimal.NewFromInt(90_000_000)) {
		t.Errorf("net proceeds = %s, want 90000000", r.NetProceeds)
	}
	if !r.LiqPrefApplies {
		t.Error("LiqPrefApplies = false, want true (20M preference beats ~10.98M pro-rata)")
	}
	if !r.FundGrossProceeds.Equal(decimal.NewFromInt(20_000_000)) {
		t.Errorf("gross proceeds = %s, want 20000000", r.FundGrossProceeds)
	}
	if !r.TotalLPDistributions.Equal(decimal.NewFromInt(17_680_000)) {
		t.Errorf("total LP distributions = %s, want 17680000", r.TotalLPDistributions)
	}
	if !r.InvestorTotal.Equal(decimal.NewFromInt(3_536_000)) {
		t.Errorf("investor total = %s, want 3536000", r.InvestorTotal)
	}
	if !r.MOIC.Equal(decimal.RequireFromString("1.768")) {
		t.Errorf("MOIC = %s, want 1.768", r.MOIC)
	}
}

func TestComputeScenarioCapAndNoProfit(t *testing.T) {
	// $10M exit: both preference (20M) and fees leave net-after-fees below
	// the fund size, so the cap binds and no profit is split.
	p := validParams().WithExitPrice(decimal.NewFromInt(10_000_000))
	r := mustCompute(t, p)

	if !r.NetProceeds.Equal(decimal.NewFromInt(9_000_000)) {
		t.Errorf("net proceeds = %s, want 9000000", r.NetProceeds)
	}
	if !r.FundGrossProceeds.Equal(decimal.NewFromInt(9_000_000)) {
		t.Errorf("gross proceeds = %s, want 9000000 (capped at net proceeds)", r.FundGrossProceeds)
	}
	if !r.FundNetProceeds.Equal(decimal.NewFromInt(8_600_000)) {
		t.Errorf("net after fees = %s, want 8600000", r.FundNetProceeds)
	}
	if !r.ReturnOfCapital.Equal(decimal.NewFromInt(8_600_000)) {
		t.Errorf("return of capital = %s, want 8600000", r.ReturnOfCapital)
	}
	if !r.Profit.IsZero() || !r.GPCarry.IsZero() || !r.LPProfitShare.IsZero() {
		t.Errorf("profit/carry/share = %s/%s/%s, want all zero",
			r.Profit, r.GPCarry, r.LPProfitShare)
	}
}

func TestComputeZeroExitTotalLoss(t *testing.T) {
	p := validParams().WithExitPrice(decimal.Zero)
	r := mustCompute(t, p)

	// Fees exceed proceeds; the deficit floors at zero.
	if !r.FundNetProceeds.Equal(decimal.NewFromInt(-400_000)) {
		t.Errorf("net after fees = %s, want -400000", r.FundNetProceeds)
	}
	if !r.ReturnOfCapital.IsZero() {
		t.Errorf("return of capital = %s, want 0", r.ReturnOfCapital)
	}
	if !r.InvestorTotal.IsZero() {
		t.Errorf("investor total = %s, want 0", r.InvestorTotal)
	}
	if !r.MOIC.IsZero() {
		t.Errorf("MOIC = %s, want 0", r.MOIC)
	}
	if r.IRR != nil {
		t.Errorf("IRR = %s, want absent (total loss has no real root)", r.IRR)
	}
}

func TestComputeTieBreakPrefersPreference(t *testing.T) {
	// Preference (20M) exactly equals pro-rata: 10% of a 200M net exit.
	p := Parameters{
		FundSize:             decimal.NewFromInt(10_000_000),
		PostMoneyValuation:   decimal.NewFromInt(100_000_000),
		InvestorContribution: decimal.NewFromInt(2_000_000),
		HoldingPeriodYears:   2,
		ExitPrice:            decimal.NewFromInt(200_000_000),
	}
	r := mustCompute(t, p)

	if !r.LiquidationPreference.Equal(r.ProRataAmount) {
		t.Fatalf("preference %s != pro-rata %s, test setup broken", r.LiquidationPreference, r.ProRataAmount)
	}
	if !r.LiqPrefApplies {
		t.Error("LiqPrefApplies = false, want true on exact tie")
	}
}

func TestComputeSingleTier(t *testing.T) {
	// Direct investment: no intermediate fund, carve-out always applies.
	p := Parameters{
		InvestorContribution: decimal.NewFromInt(2_000_000),
		PostMoneyValuation:   decimal.NewFromInt(82_000_000),
		HoldingPeriodYears:   2,
		ExitPrice:            decimal.NewFromInt(100_000_000),
		CarveOutRate:         decimal.RequireFromString("0.10"),
		SingleTier:           true,
	}
	r := mustCompute(t, p)

	if !r.InvestorFundFraction.Equal(decimal.NewFromInt(1)) {
		t.Errorf("investor fund fraction = %s, want 1", r.InvestorFundFraction)
	}
	if !r.LiquidationPreference.Equal(decimal.NewFromInt(4_000_000)) {
		t.Errorf("liquidation preference = %s, want 4000000 (2x contribution)", r.LiquidationPreference)
	}
	// Fees on the contribution: 2M * 0.02 * 2.
	if !r.ManagementFees.Equal(decimal.NewFromInt(80_000)) {
		t.Errorf("management fees = %s, want 80000", r.ManagementFees)
	}
	if !r.InvestorTotal.Equal(r.TotalLPDistributions) {
		t.Errorf("investor total %s != total distributions %s in single-tier", r.InvestorTotal, r.TotalLPDistributions)
	}
	if !r.MOIC.Equal(decimal.RequireFromString("1.768")) {
		t.Errorf("MOIC = %s, want 1.768", r.MOIC)
	}
}

func TestComputeInvariants(t *testing.T) {
	exits := []int64{0, 5_000_000, 10_000_000, 50_000_000, 100_000_000,
		199_999_999, 200_000_000, 500_000_000, 1_000_000_000}

	for _, exit := range exits {
		r := mustCompute(t, validParams().WithExitPrice(decimal.NewFromInt(exit)))

		if !r.CarveOutAmount.Add(r.NetProceeds).Equal(r.ExitPrice) {
			t.Errorf("exit %d: carve-out %s + net %s != exit price", exit, r.CarveOutAmount, r.NetProceeds)
		}
		if r.FundGrossProceeds.GreaterThan(r.NetProceeds) {
			t.Errorf("exit %d: gross %s exceeds net %s", exit, r.FundGrossProceeds, r.NetProceeds)
		}
		if r.LiqPrefApplies != r.LiquidationPreference.GreaterThanOrEqual(r.ProRataAmount) {
			t.Errorf("exit %d: LiqPrefApplies inconsistent with amounts", exit)
		}
		if r.LiqPrefApplies {
			want := decimal.Min(r.LiquidationPreference, r.NetProceeds)
			if !r.FundGrossProceeds.Equal(want) {
				t.Errorf("exit %d: gross %s, want min(pref, net) = %s", exit, r.FundGrossProceeds, want)
			}
		}
		if !r.TotalLPDistributions.Equal(r.ReturnOfCapital.Add(r.LPProfitShare)) {
			t.Errorf("exit %d: distributions %s != roc + lp share", exit, r.TotalLPDistributions)
		}
		if !r.GPCarry.Add(r.LPProfitShare).Equal(r.Profit) {
			t.Errorf("exit %d: carry + lp share != profit %s", exit, r.Profit)
		}
	}
}

func TestComputeMOICMonotoneInExitPrice(t *testing.T) {
	prev := decimal.NewFromInt(-1)
	for exit := int64(5_000_000); exit <= 1_000_000_000; exit += 5_000_000 {
		r := mustCompute(t, validParams().WithExitPrice(decimal.NewFromInt(exit)))
		if r.MOIC.LessThan(prev) {
			t.Fatalf("MOIC decreased at exit %d: %s < %s", exit, r.MOIC, prev)
		}
		prev = r.MOIC
	}
}

func TestComputeDoesNotMutateParameters(t *testing.T) {
	p := validParams()
	before := p
	mustCompute(t, p)

	if p.SingleTier != before.SingleTier || !p.FundSize.Equal(before.FundSize) ||
		!p.LiquidationMultiple.Equal(before.LiquidationMultiple) {
		t.Error("Compute mutated its argument")
	}
}

func TestComputeRejectsInvalid(t *testing.T) {
	p := validParams()
	p.InvestorContribution = decimal.Zero
	if _, err := Compute(p); err == nil {
		t.Fatal("Compute() = nil error for invalid parameters")
	}
}
