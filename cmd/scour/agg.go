package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mhalverson/scour/internal/agg"
)

var aggCmd = &cobra.Command{
	Use:   "agg INPUT",
	Short: "Reduce a scan CSV into per-folder rollups",
	Long: `Reduce a scan CSV into (folder, owner, age-bucket) rollups. Every
entry contributes to each of its ancestor folders; the output is sorted and
deterministic. Unresolvable uids are written to a companion file.`,
	Args: cobra.ExactArgs(1),
	RunE: runAgg,
}

var (
	aggOutput   string
	aggDB       string
	aggNow      int64
	aggProgress bool
)

func init() {
	aggCmd.Flags().StringVarP(&aggOutput, "output", "o", "", "Output file (default: input stem + .agg.csv)")
	aggCmd.Flags().StringVar(&aggDB, "db", "", "Also write rollups to a SQLite database")
	aggCmd.Flags().Int64Var(&aggNow, "now", 0, "Reference time as Unix seconds (default: current time)")
	aggCmd.Flags().BoolVar(&aggProgress, "progress", false, "Show a progress bar")
}

func runAgg(cmd *cobra.Command, args []string) error {
	input := args[0]
	stem := inputStem(input)

	output := aggOutput
	if output == "" {
		output = stem + ".agg.csv"
	}
	unknownOut := stem + ".unk.csv"

	res, err := agg.Run(input, output, unknownOut, &agg.Options{
		Now:      aggNow,
		Progress: aggProgress,
		DBPath:   aggDB,
	})
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	fmt.Printf("Output: %s\n", output)
	fmt.Printf("Reduced %s records into %s groups in %s\n",
		humanize.Comma(res.Records),
		humanize.Comma(int64(res.Groups)),
		res.Elapsed.Round(time.Millisecond))
	if res.Malformed > 0 {
		fmt.Printf("Skipped %s malformed rows\n", humanize.Comma(res.Malformed))
	}
	if res.Unknown > 0 {
		fmt.Printf("Unresolved uids: %d (see %s)\n", res.Unknown, unknownOut)
	}
	return nil
}

// inputStem strips the compression suffix, then one extension:
// "scan.csv.gz" and "scan.csv" both stem to "scan".
func inputStem(input string) string {
	stem := strings.TrimSuffix(input, ".gz")
	stem = strings.TrimSuffix(stem, ".zst")
	if i := strings.LastIndexByte(stem, '.'); i > 0 {
		stem = stem[:i]
	}
	return stem
}
