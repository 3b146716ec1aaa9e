package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/production-sim/production-sim/sim/report"
)

var (
	plotResultsPath string
	plotOutPath     string
)

// plotCmd charts a result log written by run
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Chart buffer sizes from a result CSV file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		results, err := report.ReadCSVFile(plotResultsPath)
		if err != nil {
			fail(err)
		}
		if err := report.PlotBuffers(results, plotOutPath); err != nil {
			fail(err)
		}
		logrus.Infof("Chart of %d rows written to %s", len(results), plotOutPath)
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotResultsPath, "results", "", "Result CSV file written by run")
	plotCmd.Flags().StringVar(&plotOutPath, "out", "buffers.png", "Chart file (.png, .svg, .pdf)")
	_ = plotCmd.MarkFlagRequired("results")
	rootCmd.AddCommand(plotCmd)
}
