package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

var runsListFlags struct {
	scenarioID int64
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs for a scenario, newest first",
	RunE:  runRunsList,
}

var runFlags struct {
	scenarioID int64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a scenario and record the outcome",
	Long: `Runs the simulation for the scenario's stored params, appends a row to
its run history, and writes the month series CSV under the runs
directory.`,
	RunE: runRun,
}

func init() {
	runsCmd.AddCommand(runsListCmd)

	runsListCmd.Flags().Int64Var(&runsListFlags.scenarioID, "scenario", 0, "Scenario id (required)")
	_ = runsListCmd.MarkFlagRequired("scenario")

	runCmd.Flags().Int64Var(&runFlags.scenarioID, "scenario", 0, "Scenario id (required)")
	_ = runCmd.MarkFlagRequired("scenario")
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.repo.ListRuns(cmd.Context(), runsListFlags.scenarioID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(out, "No runs recorded for scenario #%d.\n", runsListFlags.scenarioID)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRUN AT\tMORTGAGE\tINITIAL COC\tENDING CF\tPAYBACK\tCSV")
	for _, run := range runs {
		payback := "-"
		if run.PaybackMonth != nil {
			payback = fmt.Sprintf("%d", *run.PaybackMonth)
		}
		csvPath := "-"
		if run.CSVPath != nil {
			csvPath = *run.CSVPath
		}
		fmt.Fprintf(tw, "%d\t%s\t$%.2f\t%.1f%%\t$%.2f\t%s\t%s\n",
			run.ID, run.RunAt, run.MonthlyMortgage, run.InitialCoC,
			run.EndingMonthlyCF, payback, csvPath)
	}
	return tw.Flush()
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.svc.RunScenario(cmd.Context(), runFlags.scenarioID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printSummary(w, out.Result.Summary)
	if out.Run.CSVPath != nil {
		fmt.Fprintf(w, "\nRun #%d recorded; month series at %s\n", out.Run.ID, *out.Run.CSVPath)
	} else {
		fmt.Fprintf(w, "\nRun #%d recorded\n", out.Run.ID)
	}
	return nil
}
