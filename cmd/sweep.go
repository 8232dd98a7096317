package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/therapy-sim/therapy-sim/sim"
)

var (
	sweepConfigPath string // Optional YAML overriding the built-in defaults
	sweepOutPath    string // Ranked catalog CSV destination
	sweepTrajDir    string // Directory receiving one trajectory CSV per strategy
	sweepWorkers    int    // Worker pool size override (0 keeps config value)
)

// sweepCmd runs the full strategy sweep, ranks the catalog, and exports it.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Simulate and rank every candidate therapy strategy",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(sweepConfigPath)
		if sweepWorkers > 0 {
			cfg.Workers = sweepWorkers
		}

		sw, err := sim.NewSweep(cfg)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		result, err := sw.Run()
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}

		fmt.Println("=== Ranked Strategies ===")
		for i, r := range result.Ranked {
			fmt.Printf("%2d. %s\n", i+1, r)
		}

		if sweepOutPath != "" {
			if err := sim.SaveRankedCSV(sweepOutPath, result.Ranked); err != nil {
				logrus.Fatalf("Failed to write ranked catalog: %v", err)
			}
			logrus.Infof("wrote ranked catalog to %s", sweepOutPath)
		}
		if sweepTrajDir != "" {
			for name, traj := range result.Trajectories {
				path := filepath.Join(sweepTrajDir, slug(name)+".csv")
				if err := sim.SaveTrajectoryCSV(path, traj); err != nil {
					logrus.Fatalf("Failed to write trajectory for %q: %v", name, err)
				}
			}
			logrus.Infof("wrote %d trajectories to %s", len(result.Trajectories), sweepTrajDir)
		}
	},
}

// loadConfig resolves the effective configuration: built-in defaults when no
// file is given, strict-parsed overrides otherwise.
func loadConfig(path string) sim.Config {
	if path == "" {
		return sim.DefaultConfig()
	}
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// slug turns a strategy name into a filesystem-safe file stem.
func slug(name string) string {
	replacer := strings.NewReplacer(" ", "_", "(", "", ")", "", "%", "pct", ",", "")
	return strings.ToLower(replacer.Replace(name))
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "YAML config overriding built-in defaults")
	sweepCmd.Flags().StringVar(&sweepOutPath, "out", "ranked_strategies.csv", "Ranked catalog CSV path (empty to skip)")
	sweepCmd.Flags().StringVar(&sweepTrajDir, "traj-dir", "", "Directory for per-strategy trajectory CSVs (empty to skip)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Worker pool size (0 keeps the config value)")

	rootCmd.AddCommand(sweepCmd)
}
