package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/production-sim/production-sim/sim/ingest"
)

var templateOutPath string

// templateCmd writes an example scenario to start from
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write an example scenario file (.xlsx or .yaml)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := ingest.Save(templateOutPath, ingest.ExampleDocument()); err != nil {
			fail(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Example scenario written to %s\n", templateOutPath)
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateOutPath, "out", "scenario.xlsx", "Scenario file to create")
	rootCmd.AddCommand(templateCmd)
}
