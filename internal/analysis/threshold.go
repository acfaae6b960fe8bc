package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/waterfall"
)

// MinimumExitFor scans exit values from `from` to `to` at `step` and returns
// the first (smallest) one whose MOIC reaches targetMoic, or nil when no
// grid point in the range qualifies.
//
// MOIC is non-decreasing in exit price under this waterfall, so the forward
// scan finds the true minimum at the caller's grid granularity. The result
// is always a grid point, never interpolated.
func MinimumExitFor(base waterfall.Parameters, targetMoic, from, to, step decimal.Decimal) (*decimal.Decimal, error) {
	if !targetMoic.IsPositive() {
		return nil, fmt.Errorf("target MOIC must be positive, got %s", targetMoic)
	}

	grid, err := Range(from, to, step)
	if err != nil {
		return nil, fmt.Errorf("building threshold search grid: %w", err)
	}

	seq, err := Sweep(base, grid)
	if err != nil {
		return nil, err
	}

	for r := range seq {
		if r.MOIC.GreaterThanOrEqual(targetMoic) {
			exit := r.ExitPrice
			return &exit, nil
		}
	}
	return nil, nil
}
