package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/production-sim/production-sim/sim"
	"github.com/production-sim/production-sim/sim/ingest"
	"github.com/production-sim/production-sim/sim/report"
	"github.com/production-sim/production-sim/sim/trace"
)

var (
	// CLI flags for the run command
	inputPath        string        // Scenario file (.xlsx, .yaml, .yml)
	outputPath       string        // Result CSV file
	configPath       string        // Optional YAML run configuration
	logLevel         string        // Log verbosity level
	serviceTimeScale time.Duration // Wall time slept per unit of center performance
	routeNudge       bool          // Re-run the allocator for zero-worker routing candidates
	maxTicks         int           // Tick limit, 0 = unlimited
	parallelism      int           // Details in service at once, 0 = workersCount
	traceLevel       string        // Decision trace level
	metricsFile      string        // Prometheus text-format metrics output
	plotPath         string        // Buffer chart output
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "production-sim",
	Short: "Tick-based simulator for production networks",
}

// runCmd loads a scenario, runs it to completion and writes the result log
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a production simulation",
	Long: `Run a production simulation.

The scenario is read from --input and the per-tick result log is written to --output.
Both are asked for interactively when omitted. Nothing is written if the run fails.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveRunOptions(cmd.Flags())
		if err != nil {
			fail(err)
		}

		// Set up logging
		level, err := logrus.ParseLevel(opts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", opts.logLevel)
		}
		logrus.SetLevel(level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = runSimulation(ctx, opts, os.Stdin, os.Stdout)
		stop()
		if err != nil {
			fail(err)
		}
	},
}

// runSimulation asks for missing paths, runs the scenario and writes every requested output.
func runSimulation(ctx context.Context, opts runOptions, in io.Reader, out io.Writer) error {
	asker := newPathAsker(in, out)
	var err error
	if opts.input == "" {
		if opts.input, err = asker.ask("Enter the path to the input scenario file (.xlsx or .yaml):", ".xlsx"); err != nil {
			return err
		}
	}
	if opts.output == "" {
		if opts.output, err = asker.ask("Enter the path for the output CSV file:", ".csv"); err != nil {
			return err
		}
	}

	sd, err := ingest.Load(opts.input)
	if err != nil {
		return err
	}
	s, err := sim.NewSimulator(sd, opts.engine)
	if err != nil {
		return err
	}
	logrus.Infof("Starting run %s: serviceTimeScale=%v, routeNudge=%v, maxTicks=%d, parallelism=%d",
		s.RunID, opts.engine.ServiceTimeScale, opts.engine.RouteNudge, opts.engine.MaxTicks, opts.engine.Parallelism)

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed after %d ticks: %w", s.Metrics.Ticks, err)
	}

	if err := report.WriteCSVFile(opts.output, s.Results()); err != nil {
		return err
	}
	if err := s.Metrics.Print(out); err != nil {
		return err
	}
	if s.Trace != nil {
		printTraceSummary(out, trace.Summarize(s.Trace))
	}
	if opts.metricsFile != "" {
		if err := writePrometheusFile(opts.metricsFile, s.Metrics); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", opts.metricsFile)
	}
	if opts.plotPath != "" {
		if err := report.PlotBuffers(s.Results(), opts.plotPath); err != nil {
			return err
		}
		logrus.Infof("Buffer chart written to %s", opts.plotPath)
	}

	color.New(color.FgGreen).Fprintf(out, "The simulation was successfully completed. The results are written to: %s\n", opts.output)
	return nil
}

func printTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace Summary ===")
	fmt.Fprintf(w, "Allocations: %d (regimes: %v), trimmed workers: %d\n",
		ts.TotalAllocations, ts.RegimeDistribution, ts.TotalTrimmed)
	fmt.Fprintf(w, "Routings: %d, deliveries: %d, nudges: %d, distinct targets: %d\n",
		ts.TotalRoutings, ts.Deliveries, ts.NudgeCount, ts.UniqueTargets)
	for target, n := range ts.TargetDistribution {
		fmt.Fprintf(w, "  -> %s: %d\n", target, n)
	}
}

// fail prints a diagnostic on stderr and exits with status 1.
func fail(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error occurred: %v\n", err)
	os.Exit(1)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to fs.
func registerRunFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&inputPath, "input", "i", "", "Scenario file (.xlsx, .yaml or .yml)")
	fs.StringVarP(&outputPath, "output", "o", "", "Result CSV file")
	fs.StringVar(&configPath, "config", "", "YAML run configuration; explicit flags override it")
	fs.StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Engine configs
	fs.DurationVar(&serviceTimeScale, "service-time-scale", sim.DefaultServiceTimeScale, "Wall time slept per unit of center performance (0 disables sleeping)")
	fs.BoolVar(&routeNudge, "route-nudge", true, "Weigh routing candidates on a fresh allocation when one has no workers")
	fs.IntVar(&maxTicks, "max-ticks", 0, "Fail the run after this many ticks (0 = unlimited)")
	fs.IntVar(&parallelism, "parallelism", 0, "Details in service at the same time (0 = workersCount)")
	fs.StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")

	// Extra outputs
	fs.StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	fs.StringVar(&plotPath, "plot", "", "Write a buffer-size chart to this file (.png, .svg, .pdf)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd.Flags())

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
