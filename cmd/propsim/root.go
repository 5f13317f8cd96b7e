// propsim is the property investment simulator CLI: month-by-month
// amortization and cash flow projections, down-payment sweeps, saved
// scenario management, and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "propsim",
	Short: "Real-estate investment simulator",
	Long: "Propsim projects month-by-month amortization, cash flow, and equity\n" +
		"for rental properties, sweeps down payments for the cheapest cash-flow\n" +
		"positive entry, and keeps saved scenarios with their run history.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to a config file (default: discover configs/config.yaml)")
	pf.StringVar(&rootFlags.dbPath, "db", "", "SQLite database path (overrides the configured database)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(propertyCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
