package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/ringnet/ring/connector"
	"github.com/sarchlab/ringnet/sim"
	"github.com/sarchlab/ringnet/simulation"
	"github.com/sarchlab/ringnet/tracing"
)

var (
	configPath     string
	numNodes       int
	packetsPerRing int
	seed           int64
	horizonCycles  int64

	monitorOn   bool
	monitorPort int
	openMonitor bool

	outputFileName string
	csvTracePath   string
)

// runCmd executes one network experiment using parameters from a YAML file
// and CLI flags.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ring network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		startTime := time.Now()

		s := buildSimulation()
		defer s.Terminate()

		engine := s.GetEngine()
		freq := 1 * sim.GHz

		network := connector.MakeConnector().
			WithEngine(engine).
			WithFreq(freq).
			WithNumNodes(cfg.NumNodes).
			WithSeed(cfg.Seed).
			WithRingBufCapacity(cfg.RingBufCapacity).
			WithProcBufCapacity(cfg.ProcBufCapacity).
			WithRingPipelineDepth(cfg.RingDepth).
			WithProcPipelineDepth(cfg.ProcDepth).
			WithThroughput(cfg.Throughput).
			WithProcessingDelay(
				cfg.MinProcessingDelay, cfg.MaxProcessingDelay).
			Build("Network")

		registerComponents(s, network)
		latencyTracer := attachTracers(engine, network)

		if openMonitor && s.GetMonitor() != nil && monitorPort > 0 {
			_ = browser.OpenURL(
				fmt.Sprintf("http://localhost:%d", monitorPort))
		}

		for _, e := range network.Endpoints {
			e.GenerateTraffic(cfg.PacketsPerRing)
		}

		runEngine(engine, freq, cfg.HorizonCycles)

		reportResults(engine, network, latencyTracer, freq, startTime)
	},
}

func loadConfig(cmd *cobra.Command) ExperimentConfig {
	cfg := DefaultExperimentConfig()

	if configPath != "" {
		loaded, err := LoadExperimentConfig(configPath)
		if err != nil {
			logrus.Fatalf("Cannot load config: %v", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("nodes") {
		cfg.NumNodes = numNodes
	}
	if cmd.Flags().Changed("packets") {
		cfg.PacketsPerRing = packetsPerRing
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("horizon") {
		cfg.HorizonCycles = horizonCycles
	}

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func buildSimulation() *simulation.Simulation {
	builder := simulation.MakeBuilder()

	if !monitorOn {
		builder = builder.WithoutMonitoring()
	} else if monitorPort > 0 {
		builder = builder.WithMonitorPort(monitorPort)
	}

	if outputFileName != "" {
		builder = builder.WithOutputFileName(outputFileName)
	}

	return builder.Build()
}

func registerComponents(
	s *simulation.Simulation,
	network *connector.Network,
) {
	for _, r := range network.Routers {
		s.RegisterComponent(r)
	}

	for _, e := range network.Endpoints {
		s.RegisterComponent(e)
	}
}

// attachTracers attaches the end-to-end latency tracer and, when requested,
// a CSV task tracer to all the endpoints and routers.
func attachTracers(
	engine sim.Engine,
	network *connector.Network,
) *tracing.AverageTimeTracer {
	latencyTracer := tracing.NewAverageTimeTracer(
		engine,
		func(t tracing.Task) bool { return t.Kind == "packet_e2e" })

	for _, e := range network.Endpoints {
		tracing.CollectTrace(e, latencyTracer)
	}

	if csvTracePath != "" {
		csvTracer := tracing.NewCSVTracer(engine, csvTracePath)
		for _, r := range network.Routers {
			tracing.CollectTrace(r, csvTracer)
		}
		for _, e := range network.Endpoints {
			tracing.CollectTrace(e, csvTracer)
		}
	}

	return latencyTracer
}

func runEngine(engine sim.Engine, freq sim.Freq, horizonCycles int64) {
	var err error
	if horizonCycles > 0 {
		horizon := freq.NCyclesLater(int(horizonCycles), 0)
		err = engine.RunUntil(horizon)
	} else {
		err = engine.Run()
	}

	if err != nil {
		logrus.Fatalf("Simulation failed: %v", err)
	}
}

func reportResults(
	engine sim.Engine,
	network *connector.Network,
	latencyTracer *tracing.AverageTimeTracer,
	freq sim.Freq,
	startTime time.Time,
) {
	engineTime := engine.CurrentTime()

	logrus.WithFields(logrus.Fields{
		"virtual_time":     fmt.Sprintf("%.9fs", float64(engineTime)),
		"virtual_cycles":   freq.Cycle(engineTime),
		"wall_time":        time.Since(startTime).String(),
		"packets_injected": network.TotalInjected(),
		"packets_received": network.TotalDelivered(),
	}).Info("Simulation complete")

	if latencyTracer.TotalCount() > 0 {
		logrus.WithFields(logrus.Fields{
			"average_latency": fmt.Sprintf("%.9fs",
				float64(latencyTracer.AverageTime())),
			"delivered": latencyTracer.TotalCount(),
		}).Info("End-to-end packet latency")
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "",
		"Path of the YAML experiment configuration")
	runCmd.Flags().IntVar(&numNodes, "nodes", 6,
		"Number of router and endpoint pairs")
	runCmd.Flags().IntVar(&packetsPerRing, "packets", 10,
		"Packets each endpoint generates per ring direction")
	runCmd.Flags().Int64Var(&seed, "seed", 1,
		"Seed for random destinations and processing delays")
	runCmd.Flags().Int64Var(&horizonCycles, "horizon", 0,
		"Virtual time budget in cycles (0 runs until the queue drains)")

	runCmd.Flags().BoolVar(&monitorOn, "monitor", false,
		"Serve the monitoring API while the simulation runs")
	runCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"Port of the monitoring server (0 picks a random port)")
	runCmd.Flags().BoolVar(&openMonitor, "open-monitor", false,
		"Open the monitoring page in a browser")

	runCmd.Flags().StringVar(&outputFileName, "output", "",
		"Name of the SQLite trace database")
	runCmd.Flags().StringVar(&csvTracePath, "csv-trace", "",
		"Write per-task traces to a CSV file at this path")

	rootCmd.AddCommand(runCmd)
}
