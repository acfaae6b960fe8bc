// Package irr finds the internal rate of return of an irregular cash-flow
// sequence: the rate r such that sum(cashFlows[t] / (1+r)^t) = 0.
package irr

import "math"

const (
	// maxIterations bounds both the Newton loop and the bisection fallback
	// so the solver always terminates.
	maxIterations = 100

	// convergenceTolerance is the absolute tolerance on the NPV residual,
	// relative to the initial outflow. Scaling by the terminal flow instead
	// would loosen the tolerance by (1+r)^n and admit rates far from the root.
	convergenceTolerance = 1e-10

	// bracketTolerance stops bisection once the bracket is narrower than
	// this fraction of the midpoint rate.
	bracketTolerance = 1e-13

	// derivativeThreshold is the minimum NPV derivative magnitude for a
	// Newton step; below it the solver falls back to bisection.
	derivativeThreshold = 1e-12

	// minRate is the lower bound of the valid domain. Rates at or below
	// -100% make the discount factor zero or negative.
	minRate = -1.0 + 1e-9

	// maxRate caps the bisection bracket. 1e6 (100,000,000% a year) is far
	// beyond any representable investment outcome.
	maxRate = 1e6

	initialGuess = 0.1
)

// Solve returns the internal rate of return of cashFlows, indexed by period.
// The second return value is false when no rate can be produced: fewer than
// two flows, all flows zero or of a single sign, or the iteration failed to
// converge. Callers must treat that as "no value", not as 0%.
func Solve(cashFlows []float64) (float64, bool) {
	if len(cashFlows) < 2 || !hasSignChange(cashFlows) {
		return 0, false
	}

	scale := math.Abs(cashFlows[0])
	if scale < 1 {
		scale = 1
	}
	tol := convergenceTolerance * scale

	if r, ok := newton(cashFlows, tol); ok {
		return r, true
	}
	return bisect(cashFlows, tol)
}

// newton runs damped Newton-Raphson from a fixed initial guess. It reports
// failure when the derivative degenerates or an iterate leaves the valid
// domain, letting the caller fall back to bisection.
func newton(flows []float64, tol float64) (float64, bool) {
	r := initialGuess
	for range maxIterations {
		f := npv(r, flows)
		if math.Abs(f) < tol {
			return r, true
		}

		d := npvDerivative(r, flows)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(d) < derivativeThreshold {
			return 0, false
		}

		next := r - f/d
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if next <= minRate {
			// Damp instead of jumping out of the domain.
			next = (r + minRate) / 2
		}
		r = next
	}
	return 0, false
}

// bisect searches [minRate, maxRate] for a sign change and halves the
// bracket. Handles the cases Newton gives up on (flat or steep NPV curves).
func bisect(flows []float64, tol float64) (float64, bool) {
	lo, hi := minRate, maxRate
	fLo := npv(lo, flows)
	fHi := npv(hi, flows)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, false
	}

	for range maxIterations {
		mid := (lo + hi) / 2
		fMid := npv(mid, flows)
		if math.IsNaN(fMid) {
			return 0, false
		}
		if math.Abs(fMid) < tol || hi-lo < bracketTolerance*(1+math.Abs(mid)) {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, false
}

func npv(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

func npvDerivative(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		if t == 0 {
			continue
		}
		total -= float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return total
}

// hasSignChange reports whether the sequence contains both a positive and a
// negative flow. Without both there is no real root.
func hasSignChange(flows []float64) bool {
	var hasPositive, hasNegative bool
	for _, cf := range flows {
		if cf > 0 {
			hasPositive = true
		}
		if cf < 0 {
			hasNegative = true
		}
	}
	return hasPositive && hasNegative
}
