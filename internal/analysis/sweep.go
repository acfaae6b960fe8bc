// Package analysis derives exit-value sensitivity curves and threshold
// searches by composing the waterfall engine across a range of exit prices.
package analysis

import (
	"fmt"
	"iter"

	"github.com/shopspring/decimal"

	"github.com/fundwise/waterfall/internal/waterfall"
)

// Range returns the inclusive grid from, from+step, ..., up to and including
// to when it falls on the grid. Step must be positive.
func Range(from, to, step decimal.Decimal) ([]decimal.Decimal, error) {
	if !step.IsPositive() {
		return nil, fmt.Errorf("sweep step must be positive, got %s", step)
	}
	if from.GreaterThan(to) {
		return nil, fmt.Errorf("sweep range is empty: from %s > to %s", from, to)
	}

	var grid []decimal.Decimal
	for v := from; v.LessThanOrEqual(to); v = v.Add(step) {
		grid = append(grid, v)
	}
	return grid, nil
}

// Sweep evaluates the waterfall at every exit value, in order. The returned
// sequence is lazy and restartable: each iteration recomputes results from
// the immutable base parameters, with no state carried between points.
// Exit values and the base are validated up front so iteration cannot fail.
func Sweep(base waterfall.Parameters, exitValues []decimal.Decimal) (iter.Seq[waterfall.Result], error) {
	if err := base.WithDefaults().Validate(); err != nil {
		return nil, fmt.Errorf("validating sweep base: %w", err)
	}
	for _, exit := range exitValues {
		if exit.IsNegative() {
			return nil, fmt.Errorf("sweep exit values must be non-negative, got %s", exit)
		}
	}

	return func(yield func(waterfall.Result) bool) {
		for _, exit := range exitValues {
			// The base is already validated and the exit value checked, so
			// Compute cannot fail here.
			r, err := waterfall.Compute(base.WithExitPrice(exit))
			if err != nil {
				return
			}
			if !yield(r) {
				return
			}
		}
	}, nil
}

// SweepAll is Sweep collected into a slice, for callers that need the whole
// curve at once (export, JSON responses).
func SweepAll(base waterfall.Parameters, exitValues []decimal.Decimal) ([]waterfall.Result, error) {
	seq, err := Sweep(base, exitValues)
	if err != nil {
		return nil, err
	}

	results := make([]waterfall.Result, 0, len(exitValues))
	for r := range seq {
		results = append(results, r)
	}
	return results, nil
}
