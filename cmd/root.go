package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kelisiWu123/hardware-game/sim"
	"github.com/kelisiWu123/hardware-game/sim/scenario"
	"github.com/kelisiWu123/hardware-game/sim/trace"
)

var (
	// shared flags
	scenarioPath string // scenario YAML file
	configPath   string // optional sim config bundle YAML
	logLevel     string // log verbosity level

	// run flags
	seed          int64  // seed for generated traffic
	randomPackets int    // extra random packets to generate
	maxTicks      int64  // tick budget for a run
	traceLevel    string // forwarding decision trace level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hardware-game",
	Short: "Packet forwarding simulator and auto-layout for network topologies",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd plays a scenario's packets to completion and prints every event.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the packet simulation for a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions{
			scenarioPath:  scenarioPath,
			configPath:    configPath,
			randomPackets: randomPackets,
			maxTicks:      maxTicks,
			traceLevel:    traceLevel,
		}
		if cmd.Flags().Changed("seed") {
			opts.seed = &seed
		}
		if _, err := runSimulation(os.Stdout, opts); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

type runOptions struct {
	scenarioPath  string
	configPath    string
	randomPackets int
	seed          *int64 // overrides the scenario seed when set
	maxTicks      int64
	traceLevel    string
}

type runResult struct {
	Ticks    int64
	Finished bool
	Events   []sim.PacketEvent
	Metrics  sim.Snapshot
	Summary  *trace.TraceSummary
}

// loadConfig returns the default config with the bundle at path applied.
func loadConfig(path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	bundle, err := sim.LoadConfigBundle(path)
	if err != nil {
		return cfg, err
	}
	if err := bundle.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid sim config %s: %w", path, err)
	}
	cfg = bundle.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid sim config %s: %w", path, err)
	}
	return cfg, nil
}

// loadScenario reads, validates and builds the scenario at path.
func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("--scenario is required")
	}
	sc, err := scenario.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return sc, nil
}

func runSimulation(out io.Writer, opts runOptions) (*runResult, error) {
	if !trace.IsValidTraceLevel(opts.traceLevel) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, hops", opts.traceLevel)
	}
	sc, err := loadScenario(opts.scenarioPath)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	store, err := sc.Build()
	if err != nil {
		return nil, fmt.Errorf("building scenario: %w", err)
	}

	packets := sc.Packets
	if opts.randomPackets > 0 {
		trafficSeed := sc.Seed
		if opts.seed != nil {
			trafficSeed = *opts.seed
		}
		generated, err := scenario.GenerateTraffic(store.Devices(), opts.randomPackets, trafficSeed)
		if err != nil {
			return nil, err
		}
		logrus.Infof("generated %d random packets with seed %d", len(generated), trafficSeed)
		packets = append(append([]scenario.PacketSpec(nil), packets...), generated...)
	}

	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(opts.traceLevel)})
	s := sim.NewSimulator(store, cfg, sim.WithTrace(st), sim.WithIDGenerator(sim.SequentialIDs("pkt")))
	rec := &sim.EventRecorder{}
	metrics := sim.NewMetrics()
	s.Subscribe(rec.Record)
	s.Subscribe(metrics.Record)
	s.Subscribe(func(ev sim.PacketEvent) { printEvent(out, ev) })

	ticks, finished, err := scenario.NewSchedule(packets).Play(s, opts.maxTicks)
	if err != nil {
		return nil, err
	}
	res := &runResult{Ticks: ticks, Finished: finished, Events: rec.Events, Metrics: metrics.Snapshot()}
	if st.Enabled() {
		res.Summary = trace.Summarize(st)
	}
	fmt.Fprintf(out, "\nSimulated %d ms in %d ticks\n", s.Clock(), ticks)
	if !finished {
		fmt.Fprintln(out, "Stopped before all packets finished")
	}
	metrics.Print(out)
	printTraceSummary(out, res.Summary)
	return res, nil
}

func printEvent(out io.Writer, ev sim.PacketEvent) {
	p := ev.Packet
	switch ev.Type {
	case sim.EventStart:
		fmt.Fprintf(out, "[%7d ms] %-7s %s %s -> %s (%s)\n", ev.Timestamp, ev.Type, p.ID, p.SourceID, p.TargetID, p.Type)
	case sim.EventHop:
		fmt.Fprintf(out, "[%7d ms] %-7s %s %s -> %s, next %s\n", ev.Timestamp, ev.Type, p.ID, ev.FromDevice, ev.ToDevice, p.NextDeviceID)
	case sim.EventReceive:
		fmt.Fprintf(out, "[%7d ms] %-7s %s at %s via %v\n", ev.Timestamp, ev.Type, p.ID, p.CurrentDeviceID, p.Path)
	case sim.EventError:
		fmt.Fprintf(out, "[%7d ms] %-7s %s at %s: %s\n", ev.Timestamp, ev.Type, p.ID, p.CurrentDeviceID, ev.Error)
	}
}

func printTraceSummary(out io.Writer, s *trace.TraceSummary) {
	if s == nil {
		return
	}
	fmt.Fprintln(out, "=== Decision Trace ===")
	fmt.Fprintf(out, "Decisions      : %d\n", s.TotalDecisions)
	fmt.Fprintf(out, "Mean hops      : %.2f (max %d)\n", s.MeanHops, s.MaxHops)
	devices := make([]string, 0, len(s.DeviceTraffic))
	for id := range s.DeviceTraffic {
		devices = append(devices, id)
	}
	sort.Strings(devices)
	for _, id := range devices {
		fmt.Fprintf(out, "  %-20s %d\n", id, s.DeviceTraffic[id])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a sim config YAML file (clock and forwarding overrides)")

	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for random traffic; overrides the scenario seed when set")
	runCmd.Flags().IntVar(&randomPackets, "random-packets", 0, "Number of random packets to add to the scenario's packets")
	runCmd.Flags().Int64Var(&maxTicks, "max-ticks", 100_000, "Maximum number of ticks before the run is cut off")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Forwarding decision trace level (none, hops)")

	rootCmd.AddCommand(runCmd)
}
