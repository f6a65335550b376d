package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/nandsim/analysis"
	"github.com/sarchlab/nandsim/datarecording"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the summaries stored in a result database.",
	Long: `report reads the database produced by the run command and ` +
		`prints the per-strategy summaries, optionally followed by the ` +
		`recorded checkpoints.`,
	Run: printReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("input", "", "Path of the result database")
	reportCmd.Flags().Bool("checkpoints", false,
		"Also print the recorded checkpoints")

	err := reportCmd.MarkFlagRequired("input")
	if err != nil {
		panic(err)
	}
}

func printReport(cmd *cobra.Command, _ []string) {
	input, _ := cmd.Flags().GetString("input")
	withCheckpoints, _ := cmd.Flags().GetBool("checkpoints")

	reader := datarecording.NewReader(input)
	defer reader.Close()

	reader.MapTable("summaries", analysis.SummaryEntry{})
	reader.MapTable("checkpoints", analysis.CheckpointEntry{})

	printSummaries(reader)

	if withCheckpoints {
		fmt.Println()
		printCheckpoints(reader)
	}
}

func printSummaries(reader datarecording.DataReader) {
	rows, _, err := reader.Query(
		context.Background(), "summaries", datarecording.QueryParams{
			OrderBy: "Strategy",
		})
	if err != nil {
		log.Fatalf("cannot read summaries: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "strategy\thost\tphysical\twaf\twear var\t"+
		"lifetime\tgc runs\tmax erase\tmin erase")

	for _, row := range rows {
		s := row.(*analysis.SummaryEntry)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4f\t%.4f\t%.0f\t%d\t%d\t%d\n",
			s.Strategy,
			s.HostWrites,
			s.PhysicalWrites,
			s.WAF,
			s.WearVariance,
			s.LifetimeEstimate,
			s.GCInvocations,
			s.MaxEraseCount,
			s.MinEraseCount)
	}

	err = tw.Flush()
	if err != nil {
		log.Fatal(err)
	}
}

func printCheckpoints(reader datarecording.DataReader) {
	rows, _, err := reader.Query(
		context.Background(), "checkpoints", datarecording.QueryParams{
			OrderBy: "Strategy, HostWrites",
		})
	if err != nil {
		log.Fatalf("cannot read checkpoints: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "strategy\thost\twaf\twear var\tgc runs\t"+
		"alpha\tbeta\tgamma")

	for _, row := range rows {
		c := row.(*analysis.CheckpointEntry)
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%d\t%.2f\t%.2f\t%.2f\n",
			c.Strategy,
			c.HostWrites,
			c.WAF,
			c.WearVariance,
			c.GCInvocations,
			c.AlphaWeight,
			c.BetaWeight,
			c.GammaWeight)
	}

	err = tw.Flush()
	if err != nil {
		log.Fatal(err)
	}
}
