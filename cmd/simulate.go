package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/therapy-sim/therapy-sim/sim"
)

var (
	simConfigPath string  // Optional YAML overriding the built-in defaults
	simPolicy     string  // Policy kind: continuous, adaptive, intermittent
	simThreshold  float64 // Adaptive threshold fraction of S(0)
	simOnDays     float64 // Intermittent dosing days per cycle
	simOffDays    float64 // Intermittent holiday days per cycle
	simOutPath    string  // Trajectory CSV destination
)

// simulateCmd runs a single therapy policy and reports its metrics.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate one therapy policy and export its trajectory",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(simConfigPath)
		sw, err := sim.NewSweep(cfg)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		policy := buildPolicy(cfg)
		traj, err := sw.Simulate(policy)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		record := sim.Summarize(policy.Name(), traj, policy)
		final := traj.Final()
		fmt.Printf("=== %s ===\n", record.Name)
		fmt.Printf("Final state          : S=%.1f P=%.1f R=%.1f\n", final.S, final.P, final.R)
		fmt.Printf("Resistant AUC        : %.1f cell-days\n", record.ResistantArea)
		fmt.Printf("Total tumor AUC      : %.1f cell-days\n", record.TotalTumorArea)
		fmt.Printf("Drug usage           : %.2f days\n", record.DrugUsageDays)

		if simOutPath != "" {
			if err := sim.SaveTrajectoryCSV(simOutPath, traj); err != nil {
				logrus.Fatalf("Failed to write trajectory: %v", err)
			}
			logrus.Infof("wrote trajectory to %s", simOutPath)
		}
	},
}

// buildPolicy maps the CLI flags onto a policy variant. The string switch
// lives only at this edge; everything below works with the Policy interface.
func buildPolicy(cfg sim.Config) sim.Policy {
	switch simPolicy {
	case "continuous":
		return sim.NewContinuousPolicy()
	case "adaptive":
		return sim.NewAdaptivePolicy(simThreshold, cfg.Initial.Sensitive)
	case "intermittent":
		return sim.NewIntermittentPolicy(simOnDays, simOffDays)
	default:
		logrus.Fatalf("Unknown policy %q (want continuous, adaptive, or intermittent)", simPolicy)
		return nil
	}
}

func init() {
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "", "YAML config overriding built-in defaults")
	simulateCmd.Flags().StringVar(&simPolicy, "policy", "continuous", "Policy kind (continuous, adaptive, intermittent)")
	simulateCmd.Flags().Float64Var(&simThreshold, "threshold", 0.5, "Adaptive threshold fraction of the initial sensitive count")
	simulateCmd.Flags().Float64Var(&simOnDays, "on", 7, "Intermittent days on drug per cycle")
	simulateCmd.Flags().Float64Var(&simOffDays, "off", 7, "Intermittent days off drug per cycle")
	simulateCmd.Flags().StringVar(&simOutPath, "out", "", "Trajectory CSV path (empty to skip)")

	rootCmd.AddCommand(simulateCmd)
}
