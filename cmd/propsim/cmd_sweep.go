package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"propsim/internal/autosim"
	"propsim/internal/export"
)

var sweepFlags struct {
	paramsPath string
	lower      float64
	upper      float64
	samples    int
	csvPath    string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Find the minimum down payment with positive monthly cash flow",
	Long: `Sweeps down-payment percentages across a range, re-running the first
simulated month at each sample, and reports the first percentage whose
monthly cash flow is positive. The sweep stops as soon as one is found.

  propsim sweep --params deal.json
  propsim sweep --params deal.json --lower 10 --upper 40 --samples 13`,
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepFlags.paramsPath, "params", "", "Path to the params JSON document (required)")
	f.Float64Var(&sweepFlags.lower, "lower", 0, "Lower bound down-payment percent (default from config)")
	f.Float64Var(&sweepFlags.upper, "upper", 0, "Upper bound down-payment percent (default from config)")
	f.IntVar(&sweepFlags.samples, "samples", 0, "Samples across the range (default from config)")
	f.StringVar(&sweepFlags.csvPath, "csv", "", "Write the sweep table to this CSV file")
	_ = sweepCmd.MarkFlagRequired("params")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := os.ReadFile(sweepFlags.paramsPath)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	opts := autosim.Options{
		LowerPercent: a.cfg.Sweep.LowerPercent,
		UpperPercent: a.cfg.Sweep.UpperPercent,
		Samples:      a.cfg.Sweep.Samples,
	}
	fl := cmd.Flags()
	if fl.Changed("lower") {
		opts.LowerPercent = sweepFlags.lower
	}
	if fl.Changed("upper") {
		opts.UpperPercent = sweepFlags.upper
	}
	if fl.Changed("samples") {
		opts.Samples = sweepFlags.samples
	}

	out := cmd.OutOrStdout()
	progress := func(current, total int, row autosim.Row) {
		marker := " "
		if row.MonthlyCashFlow > 0 {
			marker = "*"
		}
		fmt.Fprintf(out, "[%d/%d]%s down %.2f%% ($%.0f)  monthly CF $%.2f\n",
			current, total, marker, row.DownPaymentPercentage, row.DownPayment, row.MonthlyCashFlow)
	}

	result, err := a.svc.SweepParams(cmd.Context(), doc, opts, progress)
	if err != nil {
		return err
	}

	if result.BreakEven.DownPaymentPercent != nil {
		fmt.Fprintf(out, "\nBreak-even: %.2f%% down ($%.0f) turns monthly cash flow positive\n",
			*result.BreakEven.DownPaymentPercent, *result.BreakEven.DownPayment)
	} else {
		fmt.Fprintf(out, "\nNo down payment between %.1f%% and %.1f%% produced positive monthly cash flow\n",
			opts.LowerPercent, opts.UpperPercent)
	}

	if sweepFlags.csvPath != "" {
		f, err := os.Create(sweepFlags.csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := export.WriteSweep(f, result.Rows); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Fprintf(out, "Sweep table written to %s\n", sweepFlags.csvPath)
	}
	return nil
}
