// Package sim models a tumor cell population split into Sensitive,
// Persister, and Resistant compartments evolving under a drug-administration
// policy, and ranks candidate policies by how well they suppress resistance
// while limiting drug exposure.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - dynamics.go: the three-compartment ODE right-hand side
//   - policy.go: continuous / adaptive / intermittent dosing policies
//   - integrator.go: adaptive Dormand-Prince stepping onto a fixed sample grid
//
// # Pipeline
//
// Data flows strictly upward:
//
//	Catalog/Policy -> Derivative -> Integrator -> Summarize -> Sweep -> Rank
//
// The sweep fans independent strategy runs across a worker pool; ranking is
// the barrier that consumes the completed catalog. config.go loads the
// immutable run configuration (defaults.yaml, strict-parsed), export.go
// writes the ranked catalog and raw trajectories for downstream reporting.
//
// The growth-rate fitting utility that calibrates rate constants from
// experimental counts lives in the growth subpackage.
package sim
