package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pureGrowthCatalog has no compartment switching, so each compartment evolves
// as X(t) = X(0)*exp(r*t) in closed form.
func pureGrowthCatalog() Catalog {
	return NewCatalog(
		RuleSet{RS: 0.01, RP: 0.02, RR: -0.015},
		RuleSet{RS: -0.005, RP: 0.004, RR: 0.03},
	)
}

func TestIntegrator_PureGrowth_MatchesClosedForm_OnDrug(t *testing.T) {
	in := NewIntegrator(pureGrowthCatalog())
	initial := CellState{S: 1000, P: 500, R: 250}

	traj, err := in.Run(NewContinuousPolicy(), initial, 100, 101)
	require.NoError(t, err)
	require.Len(t, traj.Times, 101)
	assert.Equal(t, 0.0, traj.Times[0])
	assert.Equal(t, 100.0, traj.Times[100])

	on := pureGrowthCatalog().OnDrug
	for i, tt := range traj.Times {
		assert.InEpsilon(t, initial.S*math.Exp(on.RS*tt), traj.States[i].S, 1e-6, "S at t=%g", tt)
		assert.InEpsilon(t, initial.P*math.Exp(on.RP*tt), traj.States[i].P, 1e-6, "P at t=%g", tt)
		assert.InEpsilon(t, initial.R*math.Exp(on.RR*tt), traj.States[i].R, 1e-6, "R at t=%g", tt)
	}
}

func TestIntegrator_PureGrowth_MatchesClosedForm_OffDrug(t *testing.T) {
	in := NewIntegrator(pureGrowthCatalog())
	initial := CellState{S: 1000, P: 500, R: 250}

	// Intermittent(0, k) is permanently off_drug.
	traj, err := in.Run(NewIntermittentPolicy(0, 5), initial, 100, 101)
	require.NoError(t, err)

	off := pureGrowthCatalog().OffDrug
	for i, tt := range traj.Times {
		assert.InEpsilon(t, initial.S*math.Exp(off.RS*tt), traj.States[i].S, 1e-6, "S at t=%g", tt)
		assert.InEpsilon(t, initial.P*math.Exp(off.RP*tt), traj.States[i].P, 1e-6, "P at t=%g", tt)
		assert.InEpsilon(t, initial.R*math.Exp(off.RR*tt), traj.States[i].R, 1e-6, "R at t=%g", tt)
	}
}

func TestIntegrator_IntermittentEquivalence(t *testing.T) {
	// Intermittent(k, 0) must reproduce the continuous-on trajectory exactly.
	in := NewIntegrator(pureGrowthCatalog())
	initial := CellState{S: 1000, P: 500, R: 250}

	cont, err := in.Run(NewContinuousPolicy(), initial, 100, 51)
	require.NoError(t, err)
	inter, err := in.Run(NewIntermittentPolicy(5, 0), initial, 100, 51)
	require.NoError(t, err)

	assert.Equal(t, cont.States, inter.States)
}

func TestIntegrator_RejectsBadInputs(t *testing.T) {
	in := NewIntegrator(pureGrowthCatalog())

	_, err := in.Run(NewContinuousPolicy(), CellState{S: 1}, -1, 100)
	assert.Error(t, err, "negative horizon")

	_, err = in.Run(NewContinuousPolicy(), CellState{S: 1}, 100, 1)
	assert.Error(t, err, "single sample")

	_, err = in.Run(NewContinuousPolicy(), CellState{S: math.NaN()}, 100, 100)
	assert.Error(t, err, "non-finite initial state")
}

func TestIntegrator_OverflowSurfacesAsError(t *testing.T) {
	// A 5/hour growth rate overflows float64 well inside a 4320h horizon;
	// the run must fail instead of emitting Inf samples.
	c := NewCatalog(RuleSet{RS: 5}, RuleSet{RS: 5})
	in := NewIntegrator(c)

	_, err := in.Run(NewContinuousPolicy(), CellState{S: 1e6}, 4320, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-finite")
}

// TestIntegrator_AdaptiveScenario is the concrete end-to-end check: under
// on-drug decay of -0.0015/h from S(0)=1e6 with a 50% adaptive threshold,
// the sensitive count crosses below 500000, the policy switches to off_drug
// at that crossing, and the post-crossing slope matches the off-drug growth
// rate of 0.0193/day.
func TestIntegrator_AdaptiveScenario(t *testing.T) {
	offRate := 0.0193 / HoursPerDay
	c := NewCatalog(RuleSet{RS: -0.0015}, RuleSet{RS: offRate})
	in := NewIntegrator(c)
	policy := NewAdaptivePolicy(0.5, 1e6)

	traj, err := in.Run(policy, CellState{S: 1e6}, 4320, 1000)
	require.NoError(t, err)

	crossing := -1
	for i, s := range traj.States {
		if s.S < 500000 {
			crossing = i
			break
		}
	}
	require.Greater(t, crossing, 0, "sensitive count never crossed the threshold")
	require.Less(t, crossing, len(traj.Times)-1)

	// Before the crossing the policy doses; at the crossing it switches off.
	for i := 0; i < crossing; i++ {
		require.True(t, policy.Active(traj.Times[i], traj.States[i]), "expected on_drug at t=%g", traj.Times[i])
	}
	assert.False(t, policy.Active(traj.Times[crossing], traj.States[crossing]))

	// The first interval after the crossing integrates under off_drug rules,
	// so its exponential slope is the off-drug growth rate.
	dtDays := (traj.Times[crossing+1] - traj.Times[crossing]) / HoursPerDay
	slope := math.Log(traj.States[crossing+1].S/traj.States[crossing].S) / dtDays
	assert.InDelta(t, 0.0193, slope, 1e-4)
}
