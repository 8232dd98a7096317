package sim

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
)

// StrategyRecord is the scored summary of one strategy run. Metrics are
// filled by Summarize; the Norm* and OverallScore fields are derived later by
// Rank over the whole catalog. Once ranked, records are not mutated again.
type StrategyRecord struct {
	Name string

	FinalResistant float64 // R at the last sample
	ResistantArea  float64 // AUC of R(t), cell-days
	TotalTumorArea float64 // AUC of S+P+R, cell-days
	DrugUsageDays  float64 // total time the on_drug ruleset was active

	NormResistantArea  float64
	NormFinalResistant float64
	NormDrugUsage      float64
	OverallScore       float64

	// Failed marks a strategy whose integration did not complete; its metric
	// fields are meaningless and it is excluded from normalization.
	Failed        bool
	FailureReason string
}

// Summarize reduces a trajectory to the raw metrics of a StrategyRecord.
// AUC metrics integrate over time in days so burdens are day-denominated
// regardless of the hour-based simulation axis.
func Summarize(name string, traj *Trajectory, p Policy) StrategyRecord {
	n := len(traj.Times)
	days := make([]float64, n)
	resistant := make([]float64, n)
	total := make([]float64, n)
	for i, s := range traj.States {
		days[i] = traj.Times[i] / HoursPerDay
		resistant[i] = s.R
		total[i] = s.Total()
	}

	return StrategyRecord{
		Name:           name,
		FinalResistant: traj.Final().R,
		ResistantArea:  integrate.Trapezoidal(days, resistant),
		TotalTumorArea: integrate.Trapezoidal(days, total),
		DrugUsageDays:  drugUsageDays(traj, p),
	}
}

// FailedRecord builds the placeholder record for a strategy whose run
// errored; the sweep keeps going and the record ranks behind all scored ones.
func FailedRecord(name string, err error) StrategyRecord {
	return StrategyRecord{Name: name, Failed: true, FailureReason: err.Error()}
}

// drugUsageDays measures how long the on_drug ruleset was active.
//
// Intermittent schedules have an exact closed form, used directly. All other
// policies are re-evaluated at each sample time: an interval [t_i, t_i+1)
// counts as dosed when the policy is on at its left edge. The decision comes
// from the Policy alone, never from inspecting the dynamics.
func drugUsageDays(traj *Trajectory, p Policy) float64 {
	horizonDays := traj.Times[len(traj.Times)-1] / HoursPerDay

	if ip, ok := p.(*IntermittentPolicy); ok {
		cycle := ip.OnDays() + ip.OffDays()
		if cycle == 0 {
			return 0
		}
		return ip.OnDays() / cycle * horizonDays
	}

	usedHours := 0.0
	for i := 0; i < len(traj.Times)-1; i++ {
		if p.Active(traj.Times[i], traj.States[i]) {
			usedHours += traj.Times[i+1] - traj.Times[i]
		}
	}
	return usedHours / HoursPerDay
}

// String renders the record the way the sweep log prints it.
func (r StrategyRecord) String() string {
	if r.Failed {
		return fmt.Sprintf("%s: FAILED (%s)", r.Name, r.FailureReason)
	}
	return fmt.Sprintf("%s: finalR=%.1f areaR=%.1f areaTotal=%.1f drugDays=%.1f score=%.4f",
		r.Name, r.FinalResistant, r.ResistantArea, r.TotalTumorArea, r.DrugUsageDays, r.OverallScore)
}
