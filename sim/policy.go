package sim

import (
	"fmt"
	"math"
)

// HoursPerDay converts between the model's native hour axis and the
// day-denominated schedule and metric units.
const HoursPerDay = 24.0

// Policy decides, at any instant, whether the on_drug ruleset is active.
// Implementations must be pure functions of (t, state, construction-time
// parameters) so a run can be replayed deterministically.
type Policy interface {
	// Name identifies the strategy in reports and exports.
	Name() string
	// Active reports whether the drug is on at time t (hours) in state s.
	// Boundary ties must resolve to false (off_drug).
	Active(t float64, s CellState) bool
}

// === Continuous ===

// ContinuousPolicy keeps the drug on for the whole horizon.
type ContinuousPolicy struct{}

func NewContinuousPolicy() ContinuousPolicy { return ContinuousPolicy{} }

func (ContinuousPolicy) Name() string { return "Continuous" }

func (ContinuousPolicy) Active(t float64, s CellState) bool { return true }

// === Adaptive ===

// AdaptivePolicy doses while the sensitive compartment exceeds a threshold
// fixed at construction as fraction * S(0). The threshold is never
// recomputed mid-run.
type AdaptivePolicy struct {
	fraction  float64
	threshold float64
}

// NewAdaptivePolicy builds an adaptive policy from the threshold fraction and
// the initial sensitive count.
func NewAdaptivePolicy(fraction, initialSensitive float64) *AdaptivePolicy {
	return &AdaptivePolicy{
		fraction:  fraction,
		threshold: fraction * initialSensitive,
	}
}

func (p *AdaptivePolicy) Name() string {
	return fmt.Sprintf("Adaptive (%.0f%% threshold)", p.fraction*100)
}

// Active is strict: S == threshold resolves to off_drug.
func (p *AdaptivePolicy) Active(t float64, s CellState) bool {
	return s.S > p.threshold
}

// Threshold returns the absolute sensitive-count threshold.
func (p *AdaptivePolicy) Threshold() float64 { return p.threshold }

// === Intermittent ===

// IntermittentPolicy cycles onDays of dosing followed by offDays of holiday.
// onDays=0 degenerates to permanent off; offDays=0 to permanent on.
type IntermittentPolicy struct {
	onDays  float64
	offDays float64
}

func NewIntermittentPolicy(onDays, offDays float64) *IntermittentPolicy {
	return &IntermittentPolicy{onDays: onDays, offDays: offDays}
}

func (p *IntermittentPolicy) Name() string {
	return fmt.Sprintf("Intermittent (%g days on, %g days off)", p.onDays, p.offDays)
}

// Active is strict: phase == onDays*24 resolves to off_drug.
func (p *IntermittentPolicy) Active(t float64, s CellState) bool {
	if p.onDays == 0 {
		return false
	}
	if p.offDays == 0 {
		return true
	}
	cycle := (p.onDays + p.offDays) * HoursPerDay
	phase := math.Mod(t, cycle)
	return phase < p.onDays*HoursPerDay
}

// OnDays returns the dosing span of one cycle in days.
func (p *IntermittentPolicy) OnDays() float64 { return p.onDays }

// OffDays returns the holiday span of one cycle in days.
func (p *IntermittentPolicy) OffDays() float64 { return p.offDays }

// NextSwitch returns the next time after t at which the active ruleset can
// change, letting the integrator land a step exactly on the boundary.
// Degenerate schedules never switch.
func (p *IntermittentPolicy) NextSwitch(t float64) (float64, bool) {
	if p.onDays == 0 || p.offDays == 0 {
		return 0, false
	}
	cycle := (p.onDays + p.offDays) * HoursPerDay
	onHours := p.onDays * HoursPerDay
	phase := math.Mod(t, cycle)
	base := t - phase
	if phase < onHours {
		return base + onHours, true
	}
	return base + cycle, true
}
