package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/therapy-sim/therapy-sim/sim/growth"
)

var fitDataPath string // CSV of day,count observations

// fitCmd estimates exponential growth parameters from experimental counts.
var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit count = A*exp(k*day) to experimental cell counts",
	Run: func(cmd *cobra.Command, args []string) {
		days, counts, err := readObservations(fitDataPath)
		if err != nil {
			logrus.Fatalf("Failed to read observations: %v", err)
		}

		result, err := growth.Fit(days, counts)
		if err != nil {
			logrus.Fatalf("Fit failed: %v", err)
		}

		fmt.Println("=== Growth Fit ===")
		fmt.Printf("A  : %.3f ± %.3f\n", result.A, result.AStdErr)
		fmt.Printf("k  : %.5f ± %.5f per day\n", result.K, result.KStdErr)
		fmt.Printf("R² : %.4f\n", result.RSquared)
	},
}

// readObservations parses a day,count CSV. A non-numeric first row is
// treated as a header and skipped.
func readObservations(path string) (days, counts []float64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("row %d: want day,count columns, got %d", row, len(record))
		}
		day, dayErr := strconv.ParseFloat(record[0], 64)
		count, countErr := strconv.ParseFloat(record[1], 64)
		if dayErr != nil || countErr != nil {
			if row == 0 {
				row++
				continue // header
			}
			return nil, nil, fmt.Errorf("row %d: non-numeric observation %v", row, record)
		}
		days = append(days, day)
		counts = append(counts, count)
		row++
	}
	return days, counts, nil
}

func init() {
	fitCmd.Flags().StringVar(&fitDataPath, "data", "", "CSV file of day,count observations")
	_ = fitCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(fitCmd)
}
