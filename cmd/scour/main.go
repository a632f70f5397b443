package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mhalverson/scour/internal/logger"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scour",
	Short: "A filesystem metadata scanner and rollup pipeline",
	Long: `scour walks very large directory trees in parallel, writes one
metadata record per entry to CSV, and reduces those records into
per-folder, per-owner, per-age rollups.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case flagVerbose:
			logger.SetLevel(logrus.DebugLevel)
		case flagQuiet:
			logger.SetLevel(logrus.WarnLevel)
		}
	},
}

var (
	flagVerbose bool
	flagQuiet   bool
)

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Log warnings and errors only")
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(aggCmd)
	rootCmd.AddCommand(topCmd)
}
