package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/nandsim/analysis"
	"github.com/sarchlab/nandsim/datarecording"
	"github.com/sarchlab/nandsim/ftl"
	"github.com/sarchlab/nandsim/monitoring"
	"github.com/sarchlab/nandsim/nand"
	"github.com/sarchlab/nandsim/workload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one workload against both strategies and compare them.",
	Long: `run drives the baseline and the adaptive strategy through the ` +
		`identical write sequence on two identical devices. Checkpoints and ` +
		`final summaries are recorded into a SQLite database.`,
	Run: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("blocks", 50, "Number of blocks on the device")
	runCmd.Flags().Int("pages-per-block", 64, "Pages in each block")
	runCmd.Flags().Float64("op-ratio", 0.1,
		"Fraction of capacity reserved for over-provisioning")
	runCmd.Flags().Uint64("max-erase-limit", 10000,
		"Erase cycles a block endures before wear-out")
	runCmd.Flags().Int("writes", 30000, "Number of host writes to replay")
	runCmd.Flags().String("workload", "hotspot",
		"Write pattern: sequential, random, hotspot, or mixed")
	runCmd.Flags().Int64("seed", 1, "Random seed for the workload")
	runCmd.Flags().Float64("hot-ratio", 0.8,
		"Fraction of hotspot writes landing on the hot region")
	runCmd.Flags().Float64("hot-fraction", 0.2,
		"Fraction of the address space that is hot")
	runCmd.Flags().Uint64("checkpoint-interval", 1000,
		"Host writes between recorded checkpoints")
	runCmd.Flags().Uint64("adapt-interval", 1000,
		"Host writes between weight adaptation rounds")
	runCmd.Flags().String("output",
		flagDefault("NANDSIM_OUTPUT", ""),
		"Path of the result database, a unique name if empty")
	runCmd.Flags().Bool("monitor", false, "Start the monitoring server")
	runCmd.Flags().Bool("monitor-browser", false,
		"Open the monitoring server in the default browser")
	runCmd.Flags().Int("monitor-port",
		mustAtoi(flagDefault("NANDSIM_MONITOR_PORT", "0")),
		"Port of the monitoring server, random if 0")
}

type runConfig struct {
	numBlocks     int
	pagesPerBlock int
	opRatio       float64
	maxEraseLimit uint64

	numWrites    int
	workloadKind string
	seed         int64
	hotRatio     float64
	hotFraction  float64

	checkpointInterval uint64
	adaptInterval      uint64
	output             string

	monitor        bool
	monitorBrowser bool
	monitorPort    int
}

func runSimulation(cmd *cobra.Command, _ []string) {
	cfg := parseRunConfig(cmd)

	baseline := buildController(cfg, ftl.StrategyBaseline)
	adaptive := buildController(cfg, ftl.StrategyAdaptive)

	sequence := buildSequence(cfg, baseline.Device())

	recorder := datarecording.NewRecorder(cfg.output)
	analyzers := []*analysis.CheckpointAnalyzer{
		newAnalyzer(recorder, baseline, cfg),
		newAnalyzer(recorder, adaptive, cfg),
	}

	controllers := []*ftl.Comp{baseline, adaptive}

	var monitor *monitoring.Monitor
	var bar *monitoring.ProgressBar
	if cfg.monitor {
		monitor = monitoring.NewMonitor()
		if cfg.monitorPort > 0 {
			monitor.WithPortNumber(cfg.monitorPort)
		}
		if cfg.monitorBrowser {
			monitor.WithBrowserLaunch()
		}
		monitor.RegisterController(baseline)
		monitor.RegisterController(adaptive)
		monitor.StartServer()

		bar = monitor.CreateProgressBar("Host writes", uint64(len(sequence)))
	}

	replay(sequence, controllers, analyzers, bar)

	for _, a := range analyzers {
		a.Summarize()
	}

	if monitor != nil && bar != nil {
		monitor.CompleteProgressBar(bar)
	}

	printComparison(os.Stdout, controllers)
}

func parseRunConfig(cmd *cobra.Command) runConfig {
	flags := cmd.Flags()

	cfg := runConfig{}
	cfg.numBlocks, _ = flags.GetInt("blocks")
	cfg.pagesPerBlock, _ = flags.GetInt("pages-per-block")
	cfg.opRatio, _ = flags.GetFloat64("op-ratio")
	cfg.maxEraseLimit, _ = flags.GetUint64("max-erase-limit")
	cfg.numWrites, _ = flags.GetInt("writes")
	cfg.workloadKind, _ = flags.GetString("workload")
	cfg.seed, _ = flags.GetInt64("seed")
	cfg.hotRatio, _ = flags.GetFloat64("hot-ratio")
	cfg.hotFraction, _ = flags.GetFloat64("hot-fraction")
	cfg.checkpointInterval, _ = flags.GetUint64("checkpoint-interval")
	cfg.adaptInterval, _ = flags.GetUint64("adapt-interval")
	cfg.output, _ = flags.GetString("output")
	cfg.monitor, _ = flags.GetBool("monitor")
	cfg.monitorBrowser, _ = flags.GetBool("monitor-browser")
	cfg.monitorPort, _ = flags.GetInt("monitor-port")

	return cfg
}

func buildController(cfg runConfig, kind ftl.StrategyKind) *ftl.Comp {
	device := nand.MakeBuilder().
		WithNumBlocks(cfg.numBlocks).
		WithPagesPerBlock(cfg.pagesPerBlock).
		WithOverprovisionRatio(cfg.opRatio).
		Build(kind.String() + ".Dev")

	return ftl.MakeBuilder().
		WithDevice(device).
		WithStrategy(kind).
		WithMaxEraseLimit(cfg.maxEraseLimit).
		WithAdaptationInterval(cfg.adaptInterval).
		Build(kind.String())
}

func buildSequence(cfg runConfig, device *nand.Device) []uint64 {
	generator := workload.NewGenerator(
		uint64(device.LogicalCapacity()), cfg.seed)

	switch cfg.workloadKind {
	case "sequential":
		return generator.Sequential(cfg.numWrites)
	case "random":
		return generator.Random(cfg.numWrites)
	case "hotspot":
		return generator.Hotspot(cfg.numWrites, cfg.hotRatio, cfg.hotFraction)
	case "mixed":
		return generator.Mixed(cfg.numWrites)
	default:
		log.Fatalf("Unknown workload %s. Allowed values are sequential, "+
			"random, hotspot, and mixed.", cfg.workloadKind)
		return nil
	}
}

func newAnalyzer(
	recorder datarecording.DataRecorder,
	controller *ftl.Comp,
	cfg runConfig,
) *analysis.CheckpointAnalyzer {
	return analysis.MakeCheckpointAnalyzerBuilder().
		WithDataRecorder(recorder).
		WithComp(controller).
		WithCheckpointInterval(cfg.checkpointInterval).
		Build()
}

func replay(
	sequence []uint64,
	controllers []*ftl.Comp,
	analyzers []*analysis.CheckpointAnalyzer,
	bar *monitoring.ProgressBar,
) {
	exhausted := make([]bool, len(controllers))

	for _, lba := range sequence {
		for i, controller := range controllers {
			if exhausted[i] {
				continue
			}

			err := controller.Write(lba)
			if errors.Is(err, ftl.ErrStorageExhausted) {
				fmt.Fprintf(os.Stderr,
					"%s: storage exhausted after %d host writes\n",
					controller.Name(), controller.HostWrites())
				exhausted[i] = true
				continue
			}
			if err != nil {
				log.Fatalf("%s: write failed: %v", controller.Name(), err)
			}

			analyzers[i].HostWriteDone()
		}

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}
}

func printComparison(w *os.File, controllers []*ftl.Comp) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "strategy\thost\tphysical\twaf\twear var\t"+
		"lifetime\tgc runs")

	for _, c := range controllers {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.4f\t%.0f\t%d\n",
			c.StrategyName(),
			c.HostWrites(),
			c.PhysicalWrites(),
			c.WAF(),
			c.WearVariance(),
			c.LifetimeEstimate(),
			c.GCInvocations())
	}

	err := tw.Flush()
	if err != nil {
		log.Fatal(err)
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("not a number: %s", s)
	}

	return n
}
