/*
Copyright © 2024 the isofit authors.
This file is part of isofit.

isofit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isofit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isofit.  If not, see <http://www.gnu.org/licenses/>.
*/

package isofit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultMaxEvaluations is the default cap on residual evaluations for
// one fit.
const DefaultMaxEvaluations = 10000

// Solver tolerances and Levenberg–Marquardt damping schedule.
const (
	lmFtol = 1e-10 // relative cost decrease below which the fit is converged
	lmXtol = 1e-10 // relative step size below which the fit is converged
	lmGtol = 1e-8  // projected gradient inf-norm below which the fit is converged

	lmLambdaInit = 1e-3
	lmLambdaUp   = 10
	lmLambdaDown = 0.1
	lmLambdaMin  = 1e-12
	lmLambdaMax  = 1e12

	// fdStep is sqrt of the float64 machine epsilon, the relative
	// perturbation for forward-difference Jacobian columns.
	fdStep = 1.4901161193847656e-08
)

// solveBounded minimizes ½‖f(x)‖² subject to lb ≤ x ≤ ub using a
// box-constrained Levenberg–Marquardt iteration: steps are computed
// from a damped normal-equation solve and projected back into the box,
// so the bounds hold at every iterate, not just the final one. f must
// write m residuals into its second argument. The iteration is
// deterministic: identical inputs produce identical results.
//
// maxEval caps the number of residual evaluations (Jacobian columns
// included). If the cap is exceeded, or the damped system stays
// singular at maximum damping, solveBounded returns a
// FitConvergenceError carrying the last iterate.
func solveBounded(f func(x, out []float64), m int, x0, lb, ub []float64, maxEval int) ([]float64, error) {
	n := len(x0)
	x := make([]float64, n)
	copy(x, x0)
	clampToBounds(x, lb, ub)

	r := make([]float64, m)
	rTrial := make([]float64, m)
	rCol := make([]float64, m)
	xTrial := make([]float64, n)
	g := make([]float64, n)

	evals := 0
	eval := func(xi, out []float64) {
		f(xi, out)
		evals++
	}

	budgetErr := func() error {
		last := make([]float64, n)
		copy(last, x)
		return &FitConvergenceError{LastX: last, Evaluations: evals, Reason: "evaluation budget exhausted"}
	}

	eval(x, r)
	cost := 0.5 * floats.Dot(r, r)
	if cost == 0 {
		return x, nil
	}

	jac := mat.NewDense(m, n, nil)
	rVec := mat.NewVecDense(m, r)
	gVec := mat.NewVecDense(n, g)
	step := mat.NewVecDense(n, nil)
	lambda := lmLambdaInit

	for {
		// Forward-difference Jacobian, stepping away from the upper
		// bound so perturbed points stay inside the box.
		for j := 0; j < n; j++ {
			h := fdStep * math.Max(math.Abs(x[j]), 1)
			if x[j]+h > ub[j] {
				h = -h
			}
			copy(xTrial, x)
			xTrial[j] += h
			if evals >= maxEval {
				return nil, budgetErr()
			}
			eval(xTrial, rCol)
			for i := 0; i < m; i++ {
				jac.Set(i, j, (rCol[i]-r[i])/h)
			}
		}

		// g = Jᵀr. Convergence is judged on the projected gradient:
		// components that would push an active bound further out of
		// the box cannot produce a feasible descent step.
		gVec.MulVec(jac.T(), rVec)
		pg := 0.0
		for j := 0; j < n; j++ {
			if (x[j] <= lb[j] && g[j] > 0) || (x[j] >= ub[j] && g[j] < 0) {
				continue
			}
			pg = math.Max(pg, math.Abs(g[j]))
		}
		if pg < lmGtol {
			return x, nil
		}

		jtj := mat.NewSymDense(n, nil)
		jtj.SymOuterK(1, jac.T())

		// Marquardt scaling with a floor so that parameters the
		// residual does not depend on (zero Jacobian column) leave
		// the damped system positive definite.
		scale := make([]float64, n)
		for j := 0; j < n; j++ {
			scale[j] = math.Max(jtj.At(j, j), 1e-6)
		}

		accepted := false
		for !accepted {
			damped := mat.NewSymDense(n, nil)
			damped.CopySym(jtj)
			for j := 0; j < n; j++ {
				damped.SetSym(j, j, jtj.At(j, j)+lambda*scale[j])
			}

			var chol mat.Cholesky
			if !chol.Factorize(damped) {
				lambda *= lmLambdaUp
				if lambda > lmLambdaMax {
					last := make([]float64, n)
					copy(last, x)
					return nil, &FitConvergenceError{LastX: last, Evaluations: evals, Reason: "singular Jacobian"}
				}
				continue
			}
			if err := chol.SolveVecTo(step, gVec); err != nil {
				lambda *= lmLambdaUp
				if lambda > lmLambdaMax {
					last := make([]float64, n)
					copy(last, x)
					return nil, &FitConvergenceError{LastX: last, Evaluations: evals, Reason: "singular Jacobian"}
				}
				continue
			}

			for j := 0; j < n; j++ {
				xTrial[j] = math.Min(ub[j], math.Max(lb[j], x[j]-step.AtVec(j)))
			}
			if evals >= maxEval {
				return nil, budgetErr()
			}
			eval(xTrial, rTrial)
			trialCost := 0.5 * floats.Dot(rTrial, rTrial)

			if trialCost < cost {
				dx := floats.Distance(xTrial, x, 2)
				drop := cost - trialCost
				copy(x, xTrial)
				copy(r, rTrial)
				cost = trialCost
				lambda = math.Max(lambda*lmLambdaDown, lmLambdaMin)
				accepted = true
				if cost == 0 || drop <= lmFtol*cost || dx <= lmXtol*(floats.Norm(x, 2)+lmXtol) {
					return x, nil
				}
			} else {
				lambda *= lmLambdaUp
				if lambda > lmLambdaMax {
					// No feasible step decreases the cost: x is a
					// (possibly bound-constrained) minimum.
					return x, nil
				}
			}
		}
	}
}

// clampToBounds projects x into the box [lb, ub] in place.
func clampToBounds(x, lb, ub []float64) {
	for j := range x {
		x[j] = math.Min(ub[j], math.Max(lb[j], x[j]))
	}
}
