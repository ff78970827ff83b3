package curve

import (
	"fmt"
	"sort"
)

// findBracketOrBoundary finds two adjacent pillars that bracket the target.
// If the target is outside the range, returns the nearest boundary pair.
func findBracketOrBoundary(times []float64, target float64) (i1, i2 int) {
	if len(times) < 2 {
		panic("findBracketOrBoundary: need at least 2 pillars")
	}

	// Binary search for first time >= target
	idx := sort.SearchFloat64s(times, target)

	if idx <= 0 {
		return 0, 1
	}
	if idx >= len(times) {
		return len(times) - 2, len(times) - 1
	}
	return idx - 1, idx
}

func checkPillars(times []float64) error {
	if len(times) == 0 {
		return ErrEmptyCurve
	}
	prev := 0.0
	for i, t := range times {
		if !(t > prev) {
			return fmt.Errorf("pillar %d at %v: %w", i, t, ErrUnsortedPillars)
		}
		prev = t
	}
	return nil
}
