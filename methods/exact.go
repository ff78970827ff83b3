package methods

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hwlib/spline"
)

// exactRule integrates each cubic segment against the normal density in
// closed form. Tails beyond the knots are not integrated.
type exactRule struct{}

func (exactRule) expectation(xs, _ []float64, v *spline.Cubic, mu, sigma float64, _ bool) float64 {
	return SplineNormalIntegral(v, mu, sigma)
}

// SplineNormalIntegral returns the integral of the spline times the
// N(mu, sigma^2) density over the span of its knots.
//
// With z = (x - mu)/sigma and zk the standardised left knot of segment k,
// the moments Ij = int sigma^j (z - zk)^j phi(z) dz follow from the
// antiderivatives
//
//	F0 = Phi, F1 = -phi, F2 = Phi - z phi, F3 = -(z^2 + 2) phi
//
// of z^j phi(z) by binomial expansion.
func SplineNormalIntegral(v *spline.Cubic, mu, sigma float64) float64 {
	knots := v.Knots()
	n := len(knots)
	if n < 2 {
		return 0
	}
	antiderivatives := func(x float64) (z float64, f [4]float64) {
		z = (x - mu) / sigma
		cdf, pdf := distuv.UnitNormal.CDF(z), distuv.UnitNormal.Prob(z)
		return z, [4]float64{cdf, -pdf, cdf - z*pdf, -(z*z + 2) * pdf}
	}
	zl, prev := antiderivatives(knots[0])

	s, s2, s3 := sigma, sigma*sigma, sigma*sigma*sigma
	total := 0.0
	for k := 0; k < n-1; k++ {
		zr, next := antiderivatives(knots[k+1])
		d0 := next[0] - prev[0]
		d1 := next[1] - prev[1]
		d2 := next[2] - prev[2]
		d3 := next[3] - prev[3]

		i0 := d0
		i1 := s*d1 - s*zl*i0
		i2 := s2*d2 - 2*s*zl*i1 - s2*zl*zl*i0
		i3 := s3*d3 - 3*s*zl*i2 - 3*s2*zl*zl*i1 - s3*zl*zl*zl*i0

		c := v.Coefficients(k)
		total += c[0]*i0 + c[1]*i1 + c[2]*i2 + c[3]*i3
		zl, prev = zr, next
	}
	return total
}
