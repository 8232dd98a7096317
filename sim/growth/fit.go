// Package growth fits exponential growth parameters to experimental cell
// counts. It is the upstream calibration utility for the simulation's rate
// constants: the fitted k for a culture measured on/off drug becomes the
// corresponding compartment growth rate.
package growth

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Parameter bounds of the model count = A * exp(k * day).
const (
	MaxAmplitude  = 100000.0
	MaxRate       = 1.0
	maxIterations = 200
)

// ErrNoConvergence reports that the bounded least-squares iteration did not
// reach a stationary point within the iteration budget.
var ErrNoConvergence = errors.New("growth: fit did not converge")

// Result holds the fitted parameters of count = A*exp(k*day), their standard
// errors, and the goodness of fit.
type Result struct {
	A        float64
	K        float64
	AStdErr  float64
	KStdErr  float64
	RSquared float64
}

// Predict evaluates the fitted model at the given day.
func (r Result) Predict(day float64) float64 {
	return r.A * math.Exp(r.K*day)
}

func (r Result) String() string {
	return fmt.Sprintf("A=%.3f±%.3f k=%.5f±%.5f R²=%.4f", r.A, r.AStdErr, r.K, r.KStdErr, r.RSquared)
}

// Fit performs bounded nonlinear least squares of count = A*exp(k*day) over
// (day, count) observations, with A in [0, MaxAmplitude] and k in
// [0, MaxRate]. It uses Levenberg-Marquardt with parameter projection onto
// the bounds. Non-convergence and infeasible inputs surface as errors so
// dependent analysis can abort cleanly.
func Fit(days, counts []float64) (Result, error) {
	if len(days) != len(counts) {
		return Result{}, fmt.Errorf("growth: %d days vs %d counts", len(days), len(counts))
	}
	n := len(days)
	if n < 3 {
		return Result{}, fmt.Errorf("growth: need at least 3 observations, got %d", n)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(days[i]) || math.IsInf(days[i], 0) || math.IsNaN(counts[i]) || math.IsInf(counts[i], 0) {
			return Result{}, fmt.Errorf("growth: non-finite observation at index %d", i)
		}
	}

	a, k := initialGuess(days, counts)
	cost := sse(days, counts, a, k)
	lambda := 1e-3
	converged := false

	for iter := 0; iter < maxIterations; iter++ {
		jtj, jtr := normalEquations(days, counts, a, k)

		// Damped normal matrix: JtJ + lambda*diag(JtJ).
		lhs := mat.NewDense(2, 2, []float64{
			jtj.At(0, 0) * (1 + lambda), jtj.At(0, 1),
			jtj.At(1, 0), jtj.At(1, 1) * (1 + lambda),
		})
		rhs := mat.NewVecDense(2, []float64{-jtr.AtVec(0), -jtr.AtVec(1)})

		var delta mat.VecDense
		if err := delta.SolveVec(lhs, rhs); err != nil {
			lambda *= 10
			if lambda > 1e12 {
				return Result{}, ErrNoConvergence
			}
			continue
		}

		aNew := clamp(a+delta.AtVec(0), 0, MaxAmplitude)
		kNew := clamp(k+delta.AtVec(1), 0, MaxRate)
		costNew := sse(days, counts, aNew, kNew)

		if costNew < cost {
			stepA, stepK := math.Abs(aNew-a), math.Abs(kNew-k)
			a, k, cost = aNew, kNew, costNew
			lambda = math.Max(lambda/3, 1e-12)
			if stepA <= 1e-10*(math.Abs(a)+1e-10) && stepK <= 1e-12 {
				converged = true
				break
			}
			if cost <= 1e-20 {
				converged = true
				break
			}
		} else {
			lambda *= 10
			if lambda > 1e12 {
				// Damping saturated: the current point is as stationary as
				// the geometry allows (typically a bound corner).
				converged = true
				break
			}
		}
	}
	if !converged {
		return Result{}, ErrNoConvergence
	}

	res := Result{A: a, K: k, RSquared: rSquared(days, counts, a, k)}
	res.AStdErr, res.KStdErr = stdErrors(days, counts, a, k, cost)
	return res, nil
}

// initialGuess seeds (A, k) from the first observation and the log-ratio of
// the endpoints, projected into bounds.
func initialGuess(days, counts []float64) (a, k float64) {
	a = clamp(counts[0], 1e-6, MaxAmplitude)
	first, last := counts[0], counts[len(counts)-1]
	span := days[len(days)-1] - days[0]
	k = 0.01
	if first > 0 && last > 0 && span > 0 {
		k = clamp(math.Log(last/first)/span, 0, MaxRate)
	}
	return a, k
}

// normalEquations builds JtJ and Jt*r for the current parameters.
func normalEquations(days, counts []float64, a, k float64) (*mat.SymDense, *mat.VecDense) {
	n := len(days)
	jac := mat.NewDense(n, 2, nil)
	resid := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		e := math.Exp(k * days[i])
		jac.Set(i, 0, e)           // d/dA
		jac.Set(i, 1, a*days[i]*e) // d/dk
		resid.SetVec(i, a*e-counts[i])
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var jtr mat.VecDense
	jtr.MulVec(jac.T(), resid)

	sym := mat.NewSymDense(2, []float64{
		jtj.At(0, 0), jtj.At(0, 1),
		jtj.At(1, 0), jtj.At(1, 1),
	})
	return sym, &jtr
}

// stdErrors derives parameter standard errors from the residual variance and
// the inverse normal matrix, s^2 * (JtJ)^-1. A singular normal matrix (e.g.
// A fitted to exactly 0) yields NaN errors rather than a failure.
func stdErrors(days, counts []float64, a, k, cost float64) (aErr, kErr float64) {
	jtj, _ := normalEquations(days, counts, a, k)
	var inv mat.Dense
	if err := inv.Inverse(jtj); err != nil {
		return math.NaN(), math.NaN()
	}
	dof := float64(len(days) - 2)
	s2 := cost / dof
	return math.Sqrt(s2 * inv.At(0, 0)), math.Sqrt(s2 * inv.At(1, 1))
}

func sse(days, counts []float64, a, k float64) float64 {
	total := 0.0
	for i := range days {
		d := a*math.Exp(k*days[i]) - counts[i]
		total += d * d
	}
	return total
}

func rSquared(days, counts []float64, a, k float64) float64 {
	mean := 0.0
	for _, c := range counts {
		mean += c
	}
	mean /= float64(len(counts))

	ssTot := 0.0
	for _, c := range counts {
		ssTot += (c - mean) * (c - mean)
	}
	ssRes := sse(days, counts, a, k)
	if ssTot == 0 {
		if ssRes < 1e-12 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
