package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Manage saved scenarios",
}

var scenarioListFlags struct {
	propertyID int64
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios for a property",
	RunE:  runScenarioList,
}

var scenarioCreateFlags struct {
	propertyID int64
	name       string
	paramsPath string
}

var scenarioCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a scenario from a params file",
	Long: `Attaches a named set of simulation assumptions to a property. The
params document is validated against the schema before it is stored.`,
	RunE: runScenarioCreate,
}

var scenarioUpdateFlags struct {
	name       string
	paramsPath string
}

var scenarioUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a scenario's name and params",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioUpdate,
}

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a scenario and its run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDelete,
}

var scenarioDuplicateFlags struct {
	name string
}

var scenarioDuplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Copy a scenario under a new name",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDuplicate,
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioCreateCmd)
	scenarioCmd.AddCommand(scenarioUpdateCmd)
	scenarioCmd.AddCommand(scenarioDeleteCmd)
	scenarioCmd.AddCommand(scenarioDuplicateCmd)

	scenarioListCmd.Flags().Int64Var(&scenarioListFlags.propertyID, "property", 0, "Property id (required)")
	_ = scenarioListCmd.MarkFlagRequired("property")

	cf := scenarioCreateCmd.Flags()
	cf.Int64Var(&scenarioCreateFlags.propertyID, "property", 0, "Property id (required)")
	cf.StringVar(&scenarioCreateFlags.name, "name", "", "Scenario name (required)")
	cf.StringVar(&scenarioCreateFlags.paramsPath, "params", "", "Path to the params JSON document (required)")
	_ = scenarioCreateCmd.MarkFlagRequired("property")
	_ = scenarioCreateCmd.MarkFlagRequired("name")
	_ = scenarioCreateCmd.MarkFlagRequired("params")

	uf := scenarioUpdateCmd.Flags()
	uf.StringVar(&scenarioUpdateFlags.name, "name", "", "Scenario name (required)")
	uf.StringVar(&scenarioUpdateFlags.paramsPath, "params", "", "Path to the params JSON document (required)")
	_ = scenarioUpdateCmd.MarkFlagRequired("name")
	_ = scenarioUpdateCmd.MarkFlagRequired("params")

	scenarioDuplicateCmd.Flags().StringVar(&scenarioDuplicateFlags.name, "name", "", `Name for the copy (default "<original> (copy)")`)
}

func runScenarioList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.repo.ListScenarios(cmd.Context(), scenarioListFlags.propertyID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintf(out, "No scenarios for property #%d.\n", scenarioListFlags.propertyID)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, sc := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", sc.ID, sc.Name, sc.UpdatedAt)
	}
	return tw.Flush()
}

func runScenarioCreate(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := os.ReadFile(scenarioCreateFlags.paramsPath)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}
	id, err := a.svc.CreateScenario(cmd.Context(), scenarioCreateFlags.propertyID,
		scenarioCreateFlags.name, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario #%d created\n", id)
	return nil
}

func runScenarioUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scenario id")
	if err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := os.ReadFile(scenarioUpdateFlags.paramsPath)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}
	if err := a.svc.UpdateScenario(cmd.Context(), id, scenarioUpdateFlags.name, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario #%d updated\n", id)
	return nil
}

func runScenarioDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scenario id")
	if err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.repo.DeleteScenario(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario #%d deleted\n", id)
	return nil
}

func runScenarioDuplicate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "scenario id")
	if err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	copyID, err := a.repo.DuplicateScenario(cmd.Context(), id, scenarioDuplicateFlags.name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scenario #%d duplicated as #%d\n", id, copyID)
	return nil
}
