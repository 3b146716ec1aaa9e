package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/production-sim/production-sim/sim"
	"github.com/production-sim/production-sim/sim/trace"
)

// RunConfig is the optional YAML file passed with --config. Every field mirrors a run flag;
// a flag set on the command line overrides the file.
// All keys must be listed here to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	Input            string         `yaml:"input"`
	Output           string         `yaml:"output"`
	LogLevel         string         `yaml:"log"`
	ServiceTimeScale *time.Duration `yaml:"service_time_scale"` // "0s" disables service sleeps
	RouteNudge       *bool          `yaml:"route_nudge"`
	MaxTicks         int            `yaml:"max_ticks"`
	Parallelism      int            `yaml:"parallelism"`
	Trace            string         `yaml:"trace"`
	MetricsFile      string         `yaml:"metrics_file"`
	Plot             string         `yaml:"plot"`
}

// loadRunConfig parses a run configuration file with strict field checking.
func loadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	var rc RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rc); err != nil {
		return nil, fmt.Errorf("%w: parsing run config %s: %w", sim.ErrInvalidConfig, path, err)
	}
	return &rc, nil
}

// runOptions is everything the run command needs once files and flags are merged.
type runOptions struct {
	input       string
	output      string
	logLevel    string
	metricsFile string
	plotPath    string
	engine      sim.Config
}

// resolveRunOptions starts from the engine defaults, applies the config file (if any) and
// then every flag the user set explicitly.
func resolveRunOptions(flags *pflag.FlagSet) (runOptions, error) {
	opts := runOptions{logLevel: "error", engine: sim.DefaultConfig()}

	if configPath != "" {
		rc, err := loadRunConfig(configPath)
		if err != nil {
			return opts, err
		}
		opts.apply(rc)
	}

	if flags.Changed("input") {
		opts.input = inputPath
	}
	if flags.Changed("output") {
		opts.output = outputPath
	}
	if flags.Changed("log") {
		opts.logLevel = logLevel
	}
	if flags.Changed("service-time-scale") {
		opts.engine.ServiceTimeScale = serviceTimeScale
	}
	if flags.Changed("route-nudge") {
		opts.engine.RouteNudge = routeNudge
	}
	if flags.Changed("max-ticks") {
		opts.engine.MaxTicks = maxTicks
	}
	if flags.Changed("parallelism") {
		opts.engine.Parallelism = parallelism
	}
	if flags.Changed("trace") {
		opts.engine.Trace.Level = trace.TraceLevel(traceLevel)
	}
	if flags.Changed("metrics-file") {
		opts.metricsFile = metricsFile
	}
	if flags.Changed("plot") {
		opts.plotPath = plotPath
	}

	if err := opts.engine.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (o *runOptions) apply(rc *RunConfig) {
	if rc.Input != "" {
		o.input = rc.Input
	}
	if rc.Output != "" {
		o.output = rc.Output
	}
	if rc.LogLevel != "" {
		o.logLevel = rc.LogLevel
	}
	if rc.ServiceTimeScale != nil {
		o.engine.ServiceTimeScale = *rc.ServiceTimeScale
	}
	if rc.RouteNudge != nil {
		o.engine.RouteNudge = *rc.RouteNudge
	}
	if rc.MaxTicks != 0 {
		o.engine.MaxTicks = rc.MaxTicks
	}
	if rc.Parallelism != 0 {
		o.engine.Parallelism = rc.Parallelism
	}
	if rc.Trace != "" {
		o.engine.Trace.Level = trace.TraceLevel(rc.Trace)
	}
	if rc.MetricsFile != "" {
		o.metricsFile = rc.MetricsFile
	}
	if rc.Plot != "" {
		o.plotPath = rc.Plot
	}
}
