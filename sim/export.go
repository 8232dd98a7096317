package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// rankedHeader is the fixed column order of the ranked catalog export.
var rankedHeader = []string{
	"Strategy",
	"Final Resistant Cell Count",
	"Resistant Cells Area (AUC)",
	"Total Tumor Area (AUC)",
	"Drug Usage (days)",
	"Overall Score",
}

// WriteRankedCSV writes the ranked catalog as delimited rows, one per
// strategy, in rank order. Failed strategies keep their row with empty
// metric cells so the catalog stays complete.
func WriteRankedCSV(w io.Writer, records []StrategyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{r.Name, "", "", "", "", ""}
		if !r.Failed {
			row[1] = formatMetric(r.FinalResistant)
			row[2] = formatMetric(r.ResistantArea)
			row[3] = formatMetric(r.TotalTumorArea)
			row[4] = formatMetric(r.DrugUsageDays)
			row[5] = strconv.FormatFloat(r.OverallScore, 'f', 6, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveRankedCSV writes the ranked catalog to a file.
func SaveRankedCSV(path string, records []StrategyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteRankedCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}

// WriteTrajectoryCSV writes one trajectory as time/compartment rows.
func WriteTrajectoryCSV(w io.Writer, traj *Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time_hours", "sensitive", "persister", "resistant"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, t := range traj.Times {
		s := traj.States[i]
		row := []string{
			formatMetric(t),
			formatMetric(s.S),
			formatMetric(s.P),
			formatMetric(s.R),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTrajectoryCSV writes one trajectory to a file.
func SaveTrajectoryCSV(path string, traj *Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteTrajectoryCSV(f, traj); err != nil {
		return err
	}
	return f.Close()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
