package sim

import "math"

// CellState is an instantaneous snapshot of the three tumor compartments:
// Sensitive, Persister, Resistant. Counts are continuous and conceptually
// non-negative; negativity is not clamped numerically.
type CellState struct {
	S float64
	P float64
	R float64
}

// Total returns the total tumor burden S+P+R.
func (s CellState) Total() float64 {
	return s.S + s.P + s.R
}

// Finite reports whether all three compartments are finite numbers.
func (s CellState) Finite() bool {
	return !math.IsNaN(s.S) && !math.IsInf(s.S, 0) &&
		!math.IsNaN(s.P) && !math.IsInf(s.P, 0) &&
		!math.IsNaN(s.R) && !math.IsInf(s.R, 0)
}

// axpy returns s + h*d, the state advanced by derivative d over width h.
func (s CellState) axpy(h float64, d CellState) CellState {
	return CellState{S: s.S + h*d.S, P: s.P + h*d.P, R: s.R + h*d.R}
}

// Derivative evaluates the right-hand side of the compartment ODEs under
// ruleset r:
//
//	dS/dt = rS*S - alpha*S + beta*P
//	dP/dt = rP*P + alpha*S - beta*P - delta*P
//	dR/dt = rR*R + delta*P
//
// Linear in state for a fixed ruleset; all nonlinearity comes from the
// policy switching r over time/state.
func Derivative(r RuleSet, s CellState) CellState {
	return CellState{
		S: r.RS*s.S - r.Alpha*s.S + r.Beta*s.P,
		P: r.RP*s.P + r.Alpha*s.S - r.Beta*s.P - r.Delta*s.P,
		R: r.RR*s.R + r.Delta*s.P,
	}
}
