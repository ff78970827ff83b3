package solver

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/config"
)

// relTolerance is the relative part of the Brent stopping rule.
const relTolerance = 4 * 2.220446049250313e-16

// Brent finds a root of f in [a, b] to within xtol using Brent's method
// (inverse quadratic interpolation safeguarded by bisection). f(a) and f(b)
// must have opposite signs, otherwise the error wraps ErrRootNotFound.
// The iteration count is bounded by config MaxIterations.
func Brent(f func(float64) float64, a, b, xtol float64) (float64, error) {
	if !(xtol > 0) {
		return 0, fmt.Errorf("Brent: xtol must be positive: %w", ErrBadInput)
	}
	maxIter := config.GetConfig().MaxIterations

	xpre, xcur := a, b
	fpre, fcur := f(xpre), f(xcur)
	if math.IsNaN(fpre) || math.IsNaN(fcur) {
		return 0, fmt.Errorf("Brent: objective is NaN at bracket: %w", ErrBadInput)
	}
	if fpre == 0 {
		return xpre, nil
	}
	if fcur == 0 {
		return xcur, nil
	}
	if math.Signbit(fpre) == math.Signbit(fcur) {
		return 0, fmt.Errorf("Brent: f(%g)=%g and f(%g)=%g: %w", a, fpre, b, fcur, ErrRootNotFound)
	}

	var xblk, fblk, spre, scur float64
	for iter := 0; iter < maxIter; iter++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (xtol + relTolerance*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
	}

	return xcur, fmt.Errorf("Brent: did not converge after %d iterations: %w", maxIter, ErrNonConvergence)
}
