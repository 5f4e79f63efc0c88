package cmd

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/LaudateCorpus1/memplan/plan"
	"github.com/LaudateCorpus1/memplan/plan/graph"
)

var (
	// CLI flags shared by the planning commands
	graphPath    string // Path to the YAML graph description
	eventsPath   string // Path to the YAML allocation trace
	strategyName string // Packing strategy name
	logLevel     string // Log verbosity level
	showBuffers  bool   // Print the managed buffers before planning
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "memplan",
	Short: "Static memory planner for tensor dataflow graphs",
}

// setupLogging configures logrus from the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadGraph builds the IR from the --graph flag.
func loadGraph() *graph.Graph {
	if graphPath == "" {
		logrus.Fatalf("Graph description not provided. Exiting.")
	}
	cfg, err := LoadGraphConfig(graphPath)
	if err != nil {
		logrus.Fatalf("unable to read graph config; %v", err)
	}
	g, err := cfg.Build()
	if err != nil {
		logrus.Fatalf("unable to build graph from %s; %v", graphPath, err)
	}
	return g
}

// reportArena prints the planning outcome: arena size and node delta.
func reportArena(g *graph.Graph, nodesBefore int) {
	for _, n := range g.Nodes() {
		if n.Kind() == graph.KindAllocateStorage {
			total := uint64(n.Int(graph.AttrTotalSize))
			logrus.Infof("arena: %s on %s, %d allocation nodes inserted",
				humanize.IBytes(total), graph.DeviceType(n.Int(graph.AttrDevice)), len(g.Nodes())-nodesBefore)
			return
		}
	}
	logrus.Info("no planning performed; graph unchanged")
}

// planCmd plans memory from static shape and liveness analysis.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan memory for a graph from static analysis",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		strat, err := plan.ParseStrategy(strategyName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		g := loadGraph()
		nodesBefore := len(g.Nodes())

		if showBuffers {
			_, _, ranges := plan.ManagedBuffers(g)
			logrus.Infof("managed buffers:\n%s", plan.FormatRanges(ranges))
		}

		if err := plan.PlanMemory(g, strat); err != nil {
			logrus.Fatalf("planning failed: %v", err)
		}
		reportArena(g, nodesBefore)
	},
}

// planTraceCmd plans memory from a captured allocation trace.
var planTraceCmd = &cobra.Command{
	Use:   "plan-trace",
	Short: "Plan memory for a graph from an allocation trace",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		strat, err := plan.ParseStrategy(strategyName)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		g := loadGraph()
		nodesBefore := len(g.Nodes())

		if eventsPath == "" {
			logrus.Fatalf("Allocation trace not provided. Exiting.")
		}
		tc, err := LoadTraceConfig(eventsPath)
		if err != nil {
			logrus.Fatalf("unable to read trace config; %v", err)
		}
		events, err := tc.Events()
		if err != nil {
			logrus.Fatalf("invalid trace config; %v", err)
		}

		if err := plan.PlanMemoryWithTracing(g, strat, events); err != nil {
			logrus.Fatalf("planning failed: %v", err)
		}
		reportArena(g, nodesBefore)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{planCmd, planTraceCmd} {
		c.Flags().StringVar(&graphPath, "graph", "", "Path to YAML graph description")
		c.Flags().StringVar(&strategyName, "strategy", "greedy-by-size", "Packing strategy (none, linear-scan, greedy-by-size, greedy-by-breadth)")
		c.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().BoolVar(&showBuffers, "show-buffers", false, "Print managed buffers and their live ranges before planning")
	}
	planTraceCmd.Flags().StringVar(&eventsPath, "events", "", "Path to YAML allocation trace")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(planTraceCmd)
}
