// Package cmd provides the CLI commands for agrolens.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/internal/config"
	"github.com/spektr-org/agrolens/internal/logging"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	cfg     *config.Config
	logger  = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agrolens",
	Short: "Summarise agricultural time series into trends and reports",
	Long: `agrolens turns FAOSTAT-style tables into statistical summaries.

For a selection of domain, metric, commodity, country and years it computes
change, growth and volatility, labels the trend, and renders tables, charts
and a short analytical report.

Examples:
  agrolens summarize --file wheat.csv --country India --format table
  agrolens summarize --simulate --country Kenya --commodity Maize --chart kenya.png
  agrolens compare --file wheat.xlsx --country India --country Brazil
  agrolens serve --simulate`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.agrolens.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = loaded

	if verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	configureColor()
	return nil
}
