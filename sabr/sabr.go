// Package sabr implements the SABR model with Hagan's normal volatility
// approximation and a Monte Carlo process for simulation.Simulate.
package sabr

import (
	"fmt"
	"math"

	"github.com/meenmo/hwlib/black"
	"github.com/meenmo/hwlib/config"
	"github.com/meenmo/hwlib/solver"
)

const (
	// rateFloor keeps the local volatility defined for non-positive rates.
	rateFloor = 1e-7
	// atmEps is the strike distance below which the ATM limit is used.
	atmEps = 1e-8
	// densityEps is the strike bump of the density's second difference.
	densityEps = 1e-4
)

// Model is a SABR model for one forward rate and expiry:
//
//	dF = alpha F^beta dW,  dalpha = nu alpha dZ,  d<W, Z> = rho dt.
type Model struct {
	Forward float64
	Expiry  float64
	Alpha   float64
	Beta    float64
	Nu      float64
	Rho     float64
}

// New validates the parameters.
func New(forward, expiry, alpha, beta, nu, rho float64) (*Model, error) {
	m := &Model{Forward: forward, Expiry: expiry, Alpha: alpha, Beta: beta, Nu: nu, Rho: rho}
	switch {
	case !(expiry >= 0):
		return nil, fmt.Errorf("sabr.New: expiry %v: %w", expiry, solver.ErrBadInput)
	case !(alpha > 0):
		return nil, fmt.Errorf("sabr.New: alpha must be positive, got %v: %w", alpha, solver.ErrBadInput)
	case beta < 0 || beta > 1:
		return nil, fmt.Errorf("sabr.New: beta %v outside [0, 1]: %w", beta, solver.ErrBadInput)
	case nu < 0:
		return nil, fmt.Errorf("sabr.New: negative nu %v: %w", nu, solver.ErrBadInput)
	case !(rho > -1 && rho < 1):
		return nil, fmt.Errorf("sabr.New: rho %v outside (-1, 1): %w", rho, solver.ErrBadInput)
	}
	return m, nil
}

func (m *Model) localVol(rate float64) float64 {
	return math.Pow(math.Max(rate, rateFloor), m.Beta)
}

func (m *Model) localVolPrime(rate float64) float64 {
	return m.Beta * math.Pow(math.Max(rate, rateFloor), m.Beta-1)
}

func (m *Model) zeta(strike float64) float64 {
	if m.Beta == 1 {
		return m.Nu / m.Alpha * math.Log(m.Forward/strike)
	}
	e := 1 - m.Beta
	return m.Nu / m.Alpha * (math.Pow(m.Forward, e) - math.Pow(strike, e)) / e
}

func (m *Model) chi(z float64) float64 {
	return math.Log((math.Sqrt(1-2*m.Rho*z+z*z) - m.Rho + z) / (1 - m.Rho))
}

// NormalVolatility returns the Bachelier implied volatility at strike.
func (m *Model) NormalVolatility(strike float64) float64 {
	avg := (strike + m.Forward) / 2
	c := m.localVol(avg)
	g1 := m.Beta / avg
	g2 := m.Beta * (m.Beta - 1) / (avg * avg)
	i1 := (2*g2-g1*g1)/24*m.Alpha*m.Alpha*c*c +
		m.Rho*m.Nu*m.Alpha*g1/4*c +
		(2-3*m.Rho*m.Rho)/24*m.Nu*m.Nu

	vol := m.Alpha * c
	if math.Abs(strike-m.Forward) > atmEps && m.Nu > 0 {
		vol = m.Nu * (m.Forward - strike) / m.chi(m.zeta(strike))
	}
	return vol * (1 + i1*m.Expiry)
}

// CalibrateATM sets Alpha so that the ATM normal volatility matches target
// and returns it. The search brackets half and twice the lognormal guess.
func (m *Model) CalibrateATM(target float64) (float64, error) {
	if !(target > 0) {
		return 0, fmt.Errorf("CalibrateATM: target volatility %v: %w", target, solver.ErrBadInput)
	}
	trial := *m
	guess := target / m.localVol(m.Forward)
	alpha, err := solver.Brent(func(a float64) float64 {
		trial.Alpha = a
		return trial.NormalVolatility(m.Forward) - target
	}, 0.5*guess, 2*guess, config.GetConfig().RootTolerance)
	if err != nil {
		return 0, fmt.Errorf("CalibrateATM: %w", err)
	}
	m.Alpha = alpha
	return alpha, nil
}

// VanillaPrice is the Bachelier price with the SABR normal volatility.
func (m *Model) VanillaPrice(strike float64, cp black.CallPut) float64 {
	return black.Bachelier(strike, m.Forward, m.NormalVolatility(strike), m.Expiry, cp)
}

// Density returns the risk-neutral density of F(Expiry) at rate from the
// second strike difference of out-of-the-money prices.
func (m *Model) Density(rate float64) float64 {
	cp := black.Call
	if rate < m.Forward {
		cp = black.Put
	}
	e := densityEps
	return (m.VanillaPrice(rate-e, cp) - 2*m.VanillaPrice(rate, cp) + m.VanillaPrice(rate+e, cp)) / (e * e)
}

// Size returns the state dimension [F, alpha].
func (m *Model) Size() int { return 2 }

// Factors returns the number of Brownian drivers.
func (m *Model) Factors() int { return 2 }

// InitialValues returns [Forward, Alpha].
func (m *Model) InitialValues() []float64 { return []float64{m.Forward, m.Alpha} }

// Evolve samples alpha exactly and steps F by Milstein with the geometric
// average of alpha over the step.
func (m *Model) Evolve(_, dt float64, x0, dW, x1 [][]float64) {
	sq := math.Sqrt(dt)
	rc := math.Sqrt(1 - m.Rho*m.Rho)
	for p := range x0[0] {
		w, z := dW[0][p], m.Rho*dW[0][p]+rc*dW[1][p]
		a0 := x0[1][p]
		a1 := a0 * math.Exp(-m.Nu*m.Nu/2*dt+m.Nu*z*sq)
		avg := math.Sqrt(a0 * a1)
		f0 := x0[0][p]
		c := avg * m.localVol(f0)
		x1[0][p] = f0 + c*w*sq + 0.5*c*avg*m.localVolPrime(f0)*(w*w-1)*dt
		x1[1][p] = a1
	}
}
