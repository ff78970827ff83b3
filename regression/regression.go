// Package regression fits multivariate polynomials by least squares.
//
// The basis holds every monomial in the control variables with total degree
// up to a maximum. Fits use the minimum-norm solution, so rank deficient
// design matrices still produce coefficients; Rank, Residual and CheckRank
// expose how degenerate the fit was.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/hwlib/solver"
)

// MultiIndexSet returns the exponent tuples of n variables with total degree
// below k, ordered by the leading exponent.
func MultiIndexSet(n, k int) [][]int {
	if n <= 0 || k <= 0 {
		return nil
	}
	if n == 1 {
		set := make([][]int, k)
		for i := range set {
			set[i] = []int{i}
		}
		return set
	}
	var set [][]int
	for i := 0; i < k; i++ {
		for _, tail := range MultiIndexSet(n-1, k-i) {
			set = append(set, append([]int{i}, tail...))
		}
	}
	return set
}

// Model is a fitted polynomial. It is immutable.
type Model struct {
	basis    [][]int
	beta     []float64
	rank     int
	residual float64
}

// Fit regresses observations on the monomials of controls, which has one row
// per variable and one column per sample.
func Fit(controls [][]float64, observations []float64, maxDegree int) (*Model, error) {
	if maxDegree < 0 {
		return nil, fmt.Errorf("regression.Fit: negative degree %d: %w", maxDegree, solver.ErrBadInput)
	}
	nSamples, err := checkControls(controls)
	if err != nil {
		return nil, fmt.Errorf("regression.Fit: %w", err)
	}
	if nSamples != len(observations) {
		return nil, fmt.Errorf("regression.Fit: %d samples and %d observations: %w",
			nSamples, len(observations), solver.ErrBadInput)
	}
	if nSamples == 0 {
		return nil, fmt.Errorf("regression.Fit: no samples: %w", solver.ErrBadInput)
	}

	m := &Model{basis: MultiIndexSet(len(controls), maxDegree+1)}
	a := m.design(controls, nSamples)
	b := mat.NewVecDense(nSamples, append([]float64(nil), observations...))

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("regression.Fit: SVD failed: %w", solver.ErrIllConditioned)
	}
	nBasis := len(m.basis)
	m.rank = svd.Rank(eps * float64(max(nSamples, nBasis)))
	m.beta = make([]float64, nBasis)
	if m.rank > 0 {
		var beta mat.VecDense
		svd.SolveVecTo(&beta, b, m.rank)
		for i := range m.beta {
			m.beta[i] = beta.AtVec(i)
		}
	}

	var fitted mat.VecDense
	fitted.MulVec(a, mat.NewVecDense(nBasis, m.beta))
	fitted.SubVec(&fitted, b)
	m.residual = mat.Dot(&fitted, &fitted)
	return m, nil
}

const eps = 2.220446049250313e-16

func checkControls(controls [][]float64) (int, error) {
	if len(controls) == 0 {
		return 0, fmt.Errorf("no control variables: %w", solver.ErrBadInput)
	}
	n := len(controls[0])
	for i, row := range controls {
		if len(row) != n {
			return 0, fmt.Errorf("control %d has %d samples, want %d: %w", i, len(row), n, solver.ErrBadInput)
		}
	}
	return n, nil
}

// design returns the (samples x basis) monomial matrix.
func (m *Model) design(controls [][]float64, nSamples int) *mat.Dense {
	a := mat.NewDense(nSamples, len(m.basis), nil)
	for j, exps := range m.basis {
		for p := 0; p < nSamples; p++ {
			v := 1.0
			for k, e := range exps {
				v *= ipow(controls[k][p], e)
			}
			a.Set(p, j, v)
		}
	}
	return a
}

func ipow(x float64, e int) float64 {
	v := 1.0
	for ; e > 0; e-- {
		v *= x
	}
	return v
}

// Evaluate returns the fitted polynomial at each column of controls.
func (m *Model) Evaluate(controls [][]float64) ([]float64, error) {
	if len(controls) != m.Vars() {
		return nil, fmt.Errorf("regression.Evaluate: %d control variables, model has %d: %w",
			len(controls), m.Vars(), solver.ErrBadInput)
	}
	n, err := checkControls(controls)
	if err != nil {
		return nil, fmt.Errorf("regression.Evaluate: %w", err)
	}
	if n == 0 {
		return []float64{}, nil
	}
	var out mat.VecDense
	out.MulVec(m.design(controls, n), mat.NewVecDense(len(m.beta), m.beta))
	return mat.Col(nil, 0, &out), nil
}

// Vars returns the number of control variables.
func (m *Model) Vars() int {
	if len(m.basis) == 0 {
		return 0
	}
	return len(m.basis[0])
}

// Basis returns the exponent tuples, one per coefficient.
func (m *Model) Basis() [][]int { return m.basis }

// Coefficients returns the fitted coefficients in basis order.
func (m *Model) Coefficients() []float64 { return append([]float64(nil), m.beta...) }

// Rank is the numerical rank of the design matrix.
func (m *Model) Rank() int { return m.rank }

// Residual is the sum of squared residuals of the fit.
func (m *Model) Residual() float64 { return m.residual }

// CheckRank returns an error wrapping solver.ErrIllConditioned when the design
// matrix was rank deficient.
func (m *Model) CheckRank() error {
	if m.rank < len(m.basis) || math.IsNaN(m.residual) {
		return fmt.Errorf("regression: rank %d below basis size %d: %w", m.rank, len(m.basis), solver.ErrIllConditioned)
	}
	return nil
}
