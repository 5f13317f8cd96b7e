package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"propsim/internal/export"
)

var simulateFlags struct {
	paramsPath string
	csvPath    string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation from a params file",
	Long: `Runs the month-by-month projection for the configuration in the params
JSON document and prints the summary metrics. Fields omitted from the
document keep their defaults.

  propsim simulate --params deal.json
  propsim simulate --params deal.json --csv months.csv`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateFlags.paramsPath, "params", "", "Path to the params JSON document (required)")
	f.StringVar(&simulateFlags.csvPath, "csv", "", "Write the month series to this CSV file")
	_ = simulateCmd.MarkFlagRequired("params")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := os.ReadFile(simulateFlags.paramsPath)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	result, err := a.svc.SimulateParams(cmd.Context(), doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, result.Summary)

	if simulateFlags.csvPath != "" {
		f, err := os.Create(simulateFlags.csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := export.WriteMonthSeries(f, result.Months); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Fprintf(out, "\nMonth series written to %s\n", simulateFlags.csvPath)
	}
	return nil
}
