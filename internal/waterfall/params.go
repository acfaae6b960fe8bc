package waterfall

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidParameters wraps every parameter validation failure.
var ErrInvalidParameters = errors.New("invalid waterfall parameters")

// Default fund economics. These mirror the terms of the modeled deal and are
// plain defaults, not hidden constants: callers always pass them explicitly
// through Parameters.
var (
	DefaultLiquidationMultiple = decimal.NewFromInt(2)
	DefaultLPProfitSplit       = decimal.RequireFromString("0.80")
	DefaultGPProfitSplit       = decimal.RequireFromString("0.20")
	DefaultManagementFeeRate   = decimal.RequireFromString("0.02")
)

// Parameters is the immutable input set for one waterfall evaluation.
// Currency amounts are in base units (not millions).
type Parameters struct {
	FundSize           decimal.Decimal `json:"fundSize"`
	PostMoneyValuation decimal.Decimal `json:"postMoneyValuation"`
	// InvestorContribution is the investor's commitment to the fund.
	// In the single-tier variant it doubles as the whole invested amount.
	InvestorContribution decimal.Decimal `json:"investorContribution"`
	HoldingPeriodYears   int             `json:"holdingPeriodYears"`
	ExitPrice            decimal.Decimal `json:"exitPrice"`

	CarveOutRate decimal.Decimal `json:"carveOutRate"`
	// CarveOutThreshold disables the carve-out for exits at or above it.
	// Nil means the carve-out always applies.
	CarveOutThreshold *decimal.Decimal `json:"carveOutThreshold,omitempty"`

	// SingleTier drops the intermediate fund: the investor holds the company
	// stake directly, so their fund fraction is 1 and fees accrue on the
	// contribution instead of the fund size.
	SingleTier bool `json:"singleTier,omitempty"`

	LiquidationMultiple decimal.Decimal `json:"liquidationMultiple"`
	LPProfitSplit       decimal.Decimal `json:"lpProfitSplit"`
	GPProfitSplit       decimal.Decimal `json:"gpProfitSplit"`
	ManagementFeeRate   decimal.Decimal `json:"managementFeeRate"`
}

// WithDefaults returns a copy with zero-valued economics fields replaced by
// the standard terms (2x non-participating preference, 80/20 split, 2% fee).
func (p Parameters) WithDefaults() Parameters {
	if p.LiquidationMultiple.IsZero() {
		p.LiquidationMultiple = DefaultLiquidationMultiple
	}
	if p.LPProfitSplit.IsZero() && p.GPProfitSplit.IsZero() {
		p.LPProfitSplit = DefaultLPProfitSplit
		p.GPProfitSplit = DefaultGPProfitSplit
	}
	if p.ManagementFeeRate.IsZero() {
		p.ManagementFeeRate = DefaultManagementFeeRate
	}
	if p.SingleTier {
		p.FundSize = p.InvestorContribution
	}
	return p
}

// WithExitPrice returns a copy evaluated at a different exit price.
func (p Parameters) WithExitPrice(exit decimal.Decimal) Parameters {
	p.ExitPrice = exit
	return p
}

// Validate checks the documented input domain. It never clamps: out-of-range
// inputs are rejected with a descriptive error wrapping ErrInvalidParameters.
func (p Parameters) Validate() error {
	if !p.FundSize.IsPositive() {
		return fmt.Errorf("%w: fund size must be positive, got %s", ErrInvalidParameters, p.FundSize)
	}
	if !p.PostMoneyValuation.IsPositive() {
		return fmt.Errorf("%w: post-money valuation must be positive, got %s", ErrInvalidParameters, p.PostMoneyValuation)
	}
	if !p.InvestorContribution.IsPositive() {
		return fmt.Errorf("%w: investor contribution must be positive, got %s", ErrInvalidParameters, p.InvestorContribution)
	}
	if p.InvestorContribution.GreaterThan(p.FundSize) {
		return fmt.Errorf("%w: investor contribution %s exceeds fund size %s",
			ErrInvalidParameters, p.InvestorContribution, p.FundSize)
	}
	if p.HoldingPeriodYears < 1 {
		return fmt.Errorf("%w: holding period must be at least 1 year, got %d", ErrInvalidParameters, p.HoldingPeriodYears)
	}
	if p.ExitPrice.IsNegative() {
		return fmt.Errorf("%w: exit price must be non-negative, got %s", ErrInvalidParameters, p.ExitPrice)
	}
	if p.CarveOutRate.IsNegative() || p.CarveOutRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: carve-out rate must be in [0, 1), got %s", ErrInvalidParameters, p.CarveOutRate)
	}
	if p.CarveOutThreshold != nil && p.CarveOutThreshold.IsNegative() {
		return fmt.Errorf("%w: carve-out threshold must be non-negative, got %s", ErrInvalidParameters, *p.CarveOutThreshold)
	}
	if !p.LiquidationMultiple.IsPositive() {
		return fmt.Errorf("%w: liquidation multiple must be positive, got %s", ErrInvalidParameters, p.LiquidationMultiple)
	}
	if p.LPProfitSplit.IsNegative() || p.GPProfitSplit.IsNegative() ||
		!p.LPProfitSplit.Add(p.GPProfitSplit).Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: LP/GP profit splits must be non-negative and sum to 1, got %s/%s",
			ErrInvalidParameters, p.LPProfitSplit, p.GPProfitSplit)
	}
	if p.ManagementFeeRate.IsNegative() || p.ManagementFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: management fee rate must be in [0, 1), got %s", ErrInvalidParameters, p.ManagementFeeRate)
	}
	return nil
}

// feeBase is the amount fees and the liquidation preference are measured
// against: invested capital at this tier.
func (p Parameters) feeBase() decimal.Decimal {
	if p.SingleTier {
		return p.InvestorContribution
	}
	return p.FundSize
}
