package sim

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// SweepResult is the completed output of one full strategy sweep: the ranked
// catalog and every raw trajectory keyed by strategy name, retained so
// downstream reporting can consume them without re-simulating.
type SweepResult struct {
	Ranked       []StrategyRecord
	Trajectories map[string]*Trajectory
}

// Sweep enumerates the candidate strategy space, simulates each strategy on
// the shared time grid, and ranks the resulting records. Strategy runs are
// independent (the only shared state is the read-only ruleset catalog), so
// they fan out across a bounded worker pool; ranking acts as the barrier
// that consumes the completed catalog.
type Sweep struct {
	cfg   Config
	integ *Integrator
}

// NewSweep validates the configuration and prepares a sweep. Validation
// happens here so a bad config fails before any simulation work.
func NewSweep(cfg Config) (*Sweep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sweep{cfg: cfg, integ: NewIntegrator(cfg.Catalog())}, nil
}

// Strategies enumerates the candidate policies in their canonical order:
// continuous first, then adaptive thresholds, then intermittent schedules.
// The order fixes tie-breaking during the stable ranking sort.
func (sw *Sweep) Strategies() []Policy {
	var policies []Policy
	if sw.cfg.IncludeContinuous {
		policies = append(policies, NewContinuousPolicy())
	}
	s0 := sw.cfg.Initial.Sensitive
	for _, f := range sw.cfg.AdaptiveThresholds {
		policies = append(policies, NewAdaptivePolicy(f, s0))
	}
	for _, s := range sw.cfg.IntermittentSchedules {
		policies = append(policies, NewIntermittentPolicy(s.OnDays, s.OffDays))
	}
	return policies
}

// Simulate runs a single policy over the configured horizon and grid. Every
// consumer of a trajectory goes through this one entry point.
func (sw *Sweep) Simulate(p Policy) (*Trajectory, error) {
	return sw.integ.Run(p, sw.cfg.InitialCellState(), sw.cfg.HorizonHours, sw.cfg.Samples)
}

// Run executes the full sweep and returns the ranked result. A strategy
// whose integration fails becomes a flagged record; the rest of the catalog
// is still produced. Results land in index-addressed slots, so the output is
// deterministic regardless of worker interleaving.
func (sw *Sweep) Run() (*SweepResult, error) {
	policies := sw.Strategies()
	records := make([]StrategyRecord, len(policies))
	trajectories := make([]*Trajectory, len(policies))

	logrus.Infof("sweeping %d strategies over %gh horizon (%d samples, %d workers)",
		len(policies), sw.cfg.HorizonHours, sw.cfg.Samples, sw.cfg.Workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < sw.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p := policies[i]
				traj, err := sw.Simulate(p)
				if err != nil {
					logrus.Warnf("strategy %q failed: %v", p.Name(), err)
					records[i] = FailedRecord(p.Name(), err)
					continue
				}
				trajectories[i] = traj
				records[i] = Summarize(p.Name(), traj, p)
				logrus.Debugf("completed %s", records[i])
			}
		}()
	}
	for i := range policies {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	byName := make(map[string]*Trajectory, len(policies))
	for i, p := range policies {
		if trajectories[i] != nil {
			byName[p.Name()] = trajectories[i]
		}
	}

	return &SweepResult{
		Ranked:       Rank(records, sw.cfg.ScoreWeights),
		Trajectories: byName,
	}, nil
}
