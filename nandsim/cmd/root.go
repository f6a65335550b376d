// Package cmd provides the command-line interface for NANDSim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "nandsim",
	Short: "NANDSim simulates the write path of a flash storage " +
		"controller.",
	Long: `NANDSim simulates the write path of a flash storage controller. ` +
		`It replays synthetic write workloads against a NAND device model ` +
		`under different garbage-collection strategies and records write ` +
		`amplification and wear metrics for comparison.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can preset any flag through the environment. Missing
	// files are fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func flagDefault(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}

	return fallback
}
