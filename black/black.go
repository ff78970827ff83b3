// Package black implements the lognormal (Black) and normal (Bachelier)
// option formulas on forwards and their implied volatilities.
package black

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/hwlib/solver"
)

// CallPut selects the option side.
type CallPut int

const (
	Call CallPut = 1
	Put  CallPut = -1
)

// Sign returns +1 for calls and -1 for puts.
func (cp CallPut) Sign() float64 {
	if cp == Put {
		return -1
	}
	return 1
}

func (cp CallPut) String() string {
	if cp == Put {
		return "put"
	}
	return "call"
}

// ParseCallPut accepts "call"/"put" and "C"/"P".
func ParseCallPut(s string) (CallPut, error) {
	switch s {
	case "call", "Call", "CALL", "C", "c":
		return Call, nil
	case "put", "Put", "PUT", "P", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("ParseCallPut: unknown option side %q: %w", s, solver.ErrBadInput)
}

// totalVolFloor is the standard deviation below which prices are intrinsic.
const totalVolFloor = 1e-12

var (
	blackVolBracket     = [2]float64{0.01, 1.0}
	bachelierVolBracket = [2]float64{1e-4, 1e-1}
	impliedVolTolerance = 1e-8
)

// BlackNormalised is the undiscounted Black price per unit strike as a
// function of moneyness F/K and total standard deviation.
func BlackNormalised(moneyness, stdDev float64, cp CallPut) float64 {
	w := cp.Sign()
	d1 := math.Log(moneyness)/stdDev + stdDev/2
	d2 := d1 - stdDev
	return w * (moneyness*distuv.UnitNormal.CDF(w*d1) - distuv.UnitNormal.CDF(w*d2))
}

// Black returns the undiscounted lognormal option price. A total volatility
// below 1e-12 yields the intrinsic value.
func Black(strike, forward, sigma, T float64, cp CallPut) float64 {
	nu := sigma * math.Sqrt(T)
	if nu < totalVolFloor {
		return math.Max(cp.Sign()*(forward-strike), 0)
	}
	return strike * BlackNormalised(forward/strike, nu, cp)
}

// BlackImpliedVol inverts Black on [0.01, 1].
func BlackImpliedVol(price, strike, forward, T float64, cp CallPut) (float64, error) {
	vol, err := solver.Brent(func(sigma float64) float64 {
		return Black(strike, forward, sigma, T, cp) - price
	}, blackVolBracket[0], blackVolBracket[1], impliedVolTolerance)
	if err != nil {
		return 0, fmt.Errorf("BlackImpliedVol: %w", err)
	}
	return vol, nil
}

// BachelierNormalised is the undiscounted normal-model price as a function of
// moneyness F-K and total standard deviation.
func BachelierNormalised(moneyness, stdDev float64, cp CallPut) float64 {
	if stdDev < totalVolFloor {
		return math.Max(cp.Sign()*moneyness, 0)
	}
	h := cp.Sign() * moneyness / stdDev
	return stdDev * (h*distuv.UnitNormal.CDF(h) + distuv.UnitNormal.Prob(h))
}

// Bachelier returns the undiscounted normal-model option price.
func Bachelier(strike, forward, sigma, T float64, cp CallPut) float64 {
	return BachelierNormalised(forward-strike, sigma*math.Sqrt(T), cp)
}

// BachelierVega is dPrice/dSigma, identical for calls and puts.
func BachelierVega(strike, forward, sigma, T float64) float64 {
	stdDev := sigma * math.Sqrt(T)
	return distuv.UnitNormal.Prob((forward-strike)/stdDev) * math.Sqrt(T)
}

// BachelierImpliedVol inverts Bachelier on [1e-4, 1e-1].
func BachelierImpliedVol(price, strike, forward, T float64, cp CallPut) (float64, error) {
	vol, err := solver.Brent(func(sigma float64) float64 {
		return Bachelier(strike, forward, sigma, T, cp) - price
	}, bachelierVolBracket[0], bachelierVolBracket[1], impliedVolTolerance)
	if err != nil {
		return 0, fmt.Errorf("BachelierImpliedVol: %w", err)
	}
	return vol, nil
}
