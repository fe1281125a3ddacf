package powerflow

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/linsys"
)

// Residual writes f(x) into dst. len(dst) == len(x).
type Residual func(dst, x []float64)

// Settings controls the Newton iteration.
type Settings struct {
	// Tol is the convergence bound on the infinity norm of the residual.
	Tol float64
	// MaxIter caps the number of Newton steps.
	MaxIter int
	// MaxHalvings bounds the backtracking line search.
	MaxHalvings int
}

func DefaultSettings() Settings {
	return Settings{Tol: 1e-6, MaxIter: 500, MaxHalvings: 30}
}

type Result struct {
	X            []float64
	Converged    bool
	Iterations   int
	ResidualNorm float64
}

var jacobian = &fd.JacobianSettings{Formula: fd.Central}

// Solve runs Newton's method from x0. Each step solves J dx = -f with a
// central-difference Jacobian and backtracks on the 2-norm of f until it
// decreases. A singular Jacobian ends the iteration unconverged.
func Solve(f Residual, x0 []float64, s Settings) Result {
	n := len(x0)
	x := make([]float64, n)
	copy(x, x0)

	fx := make([]float64, n)
	f(fx, x)
	res := Result{X: x, ResidualNorm: floats.Norm(fx, math.Inf(1))}
	if n == 0 {
		res.Converged = true
		return res
	}

	J := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	var dx mat.VecDense
	trial := make([]float64, n)
	ft := make([]float64, n)

	for iter := 0; iter < s.MaxIter; iter++ {
		if res.ResidualNorm <= s.Tol {
			res.Converged = true
			return res
		}
		res.Iterations = iter + 1

		fd.Jacobian(J, f, x, jacobian)
		for i, v := range fx {
			rhs.SetVec(i, -v)
		}
		if err := dx.SolveVec(J, rhs); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return res
			}
		}
		if !linsys.Vector(dx.RawVector().Data).IsValid() {
			return res
		}

		norm := floats.Norm(fx, 2)
		step := 1.0
		for h := 0; h <= s.MaxHalvings; h++ {
			floats.AddScaledTo(trial, x, step, dx.RawVector().Data)
			f(ft, trial)
			if floats.Norm(ft, 2) < norm {
				break
			}
			step /= 2
		}

		copy(x, trial)
		copy(fx, ft)
		res.ResidualNorm = floats.Norm(fx, math.Inf(1))
	}

	res.Converged = res.ResidualNorm <= s.Tol
	return res
}
