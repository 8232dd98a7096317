package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Trajectory is the sampled solution of one simulation run: Times[i] (hours)
// and States[i] pair up, Times[0] == 0, Times[len-1] == horizon. Owned by the
// run that produced it; consumers get read-only access.
type Trajectory struct {
	Times  []float64
	States []CellState
}

// Final returns the last sampled state.
func (tr *Trajectory) Final() CellState {
	return tr.States[len(tr.States)-1]
}

// Switcher is an optional Policy refinement exposing the next time the
// active ruleset can change. The integrator aligns step boundaries to it so
// time-scheduled switches are not smeared across a step.
type Switcher interface {
	NextSwitch(t float64) (float64, bool)
}

// Integrator advances the compartment ODEs with an embedded Dormand-Prince
// 5(4) pair. The active ruleset is frozen at the start of each internal step,
// so the right-hand side stays smooth within a step and the error estimate is
// not polluted by policy switches; steps never cross an output sample time,
// which bounds switch-detection latency by the sample spacing.
//
// Integration is inherently sequential and must run on a single goroutine;
// concurrency belongs one level up, across independent strategy runs.
type Integrator struct {
	Catalog Catalog
	AbsTol  float64
	RelTol  float64
}

// NewIntegrator returns an Integrator with the default tolerances.
func NewIntegrator(c Catalog) *Integrator {
	return &Integrator{Catalog: c, AbsTol: 1e-6, RelTol: 1e-8}
}

// Dormand-Prince 5(4) tableau.
var (
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// 5th-order solution weights (identical to the last tableau row).
	dpB5 = [7]float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0}
	// 4th-order embedded weights for the error estimate.
	dpB4 = [7]float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40}
)

// Run integrates from state initial at t=0 to t=horizonHours, returning
// samples evenly spaced points including both endpoints. Every strategy run
// shares the same grid so downstream AUC metrics are directly comparable.
func (in *Integrator) Run(p Policy, initial CellState, horizonHours float64, samples int) (*Trajectory, error) {
	if horizonHours <= 0 {
		return nil, fmt.Errorf("integrator: horizon must be positive, got %g", horizonHours)
	}
	if samples < 2 {
		return nil, fmt.Errorf("integrator: need at least 2 samples, got %d", samples)
	}
	if !initial.Finite() {
		return nil, fmt.Errorf("integrator: non-finite initial state %+v", initial)
	}

	times := make([]float64, samples)
	floats.Span(times, 0, horizonHours)

	states := make([]CellState, samples)
	states[0] = initial

	y := initial
	for i := 1; i < samples; i++ {
		var err error
		y, err = in.advance(p, y, times[i-1], times[i])
		if err != nil {
			return nil, fmt.Errorf("integrator: at t=%.3fh: %w", times[i-1], err)
		}
		states[i] = y
	}

	return &Trajectory{Times: times, States: states}, nil
}

// advance integrates one output interval [t0, t1] with adaptive substeps.
func (in *Integrator) advance(p Policy, y CellState, t0, t1 float64) (CellState, error) {
	t := t0
	h := t1 - t0
	hMin := math.Max(1e-12*(t1-t0), 1e-14)

	for t < t1 {
		if h > t1-t {
			h = t1 - t
		}
		// Land exactly on a scheduled switch boundary so the frozen ruleset
		// is correct on both sides of it.
		if sw, ok := p.(Switcher); ok {
			if next, has := sw.NextSwitch(t); has && next > t+hMin && next < t+h {
				h = next - t
			}
		}

		rule := in.Catalog.Resolve(p, t, y)
		yNext, errNorm := in.step(rule, y, h)
		if !yNext.Finite() {
			return y, fmt.Errorf("non-finite state after step h=%g", h)
		}

		if errNorm <= 1 || h <= hMin {
			t += h
			y = yNext
		}

		// Standard controller: shrink on rejection, grow cautiously on
		// acceptance, with safety factor 0.9.
		factor := 5.0
		if errNorm > 0 {
			factor = 0.9 * math.Pow(errNorm, -0.2)
		}
		h *= math.Min(5.0, math.Max(0.2, factor))
		if h < hMin {
			h = hMin
		}
	}
	return y, nil
}

// step takes a single Dormand-Prince step of width h under a frozen ruleset,
// returning the 5th-order solution and the scaled error norm.
func (in *Integrator) step(rule RuleSet, y CellState, h float64) (CellState, float64) {
	var k [7]CellState
	k[0] = Derivative(rule, y)
	for s := 1; s < 7; s++ {
		ys := y
		for j := 0; j < s; j++ {
			ys = ys.axpy(h*dpA[s][j], k[j])
		}
		k[s] = Derivative(rule, ys)
	}

	var y5, y4 CellState
	y5, y4 = y, y
	for s := 0; s < 7; s++ {
		y5 = y5.axpy(h*dpB5[s], k[s])
		y4 = y4.axpy(h*dpB4[s], k[s])
	}

	errNorm := 0.0
	for _, c := range [3][3]float64{
		{y.S, y5.S, y4.S},
		{y.P, y5.P, y4.P},
		{y.R, y5.R, y4.R},
	} {
		scale := in.AbsTol + in.RelTol*math.Max(math.Abs(c[0]), math.Abs(c[1]))
		e := (c[1] - c[2]) / scale
		errNorm += e * e
	}
	return y5, math.Sqrt(errNorm / 3)
}
