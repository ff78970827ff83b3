package curve

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/hwlib/calendar"
	"github.com/meenmo/hwlib/utils"
)

// ForwardCurve holds continuously compounded instantaneous forward rates that
// are flat between pillars. The rate quoted at a pillar applies to the
// period ending at that pillar (backward flat) and is extrapolated flat
// beyond the last one.
type ForwardCurve struct {
	times []float64
	rates []float64
	// integral of the forward rate from 0 to times[i]
	cum []float64
}

// NewForwardCurve builds a curve from pillar times and forward rates.
func NewForwardCurve(times, rates []float64) (*ForwardCurve, error) {
	if err := checkPillars(times); err != nil {
		return nil, fmt.Errorf("NewForwardCurve: %w", err)
	}
	if len(rates) != len(times) {
		return nil, fmt.Errorf("NewForwardCurve: %d times but %d rates", len(times), len(rates))
	}
	c := &ForwardCurve{
		times: append([]float64(nil), times...),
		rates: append([]float64(nil), rates...),
		cum:   make([]float64, len(times)),
	}
	prev, acc := 0.0, 0.0
	for i, t := range c.times {
		acc += c.rates[i] * (t - prev)
		c.cum[i] = acc
		prev = t
	}
	return c, nil
}

// NewForwardCurveFromTenors places pillars at settlement + tenor, rolled
// Modified Following on cal, and measures time on ACT/365F.
func NewForwardCurveFromTenors(settlement time.Time, cal calendar.CalendarID, tenors []string, rates []float64) (*ForwardCurve, error) {
	if len(tenors) != len(rates) {
		return nil, fmt.Errorf("NewForwardCurveFromTenors: %d tenors but %d rates", len(tenors), len(rates))
	}
	times := make([]float64, len(tenors))
	for i, tenor := range tenors {
		d, err := addTenor(settlement, tenor)
		if err != nil {
			return nil, fmt.Errorf("NewForwardCurveFromTenors: %w", err)
		}
		times[i] = utils.YearFraction(settlement, calendar.Adjust(cal, d), utils.ACT365F)
	}
	return NewForwardCurve(times, rates)
}

// segment returns the index of the rate in force at t.
func (c *ForwardCurve) segment(t float64) int {
	idx := sort.SearchFloat64s(c.times, t)
	if idx >= len(c.times) {
		return len(c.times) - 1
	}
	return idx
}

// ForwardRate returns the instantaneous forward rate at t.
func (c *ForwardCurve) ForwardRate(t float64) float64 {
	return c.rates[c.segment(t)]
}

// Discount returns exp(-int_0^t f(u) du).
func (c *ForwardCurve) Discount(t float64) float64 {
	i := c.segment(t)
	prev, acc := 0.0, 0.0
	if i > 0 {
		prev, acc = c.times[i-1], c.cum[i-1]
	}
	return math.Exp(-(acc + c.rates[i]*(t-prev)))
}
