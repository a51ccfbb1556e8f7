package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/agrolens/engine"
)

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "agrolens version %s\n", engine.Version)
	},
}
