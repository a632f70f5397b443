package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mhalverson/scour/internal/pathutil"
	"github.com/mhalverson/scour/internal/scan"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var scanCmd = &cobra.Command{
	Use:   "scan [ROOT]",
	Short: "Scan a directory tree into a per-entry CSV",
	Long: `Scan a directory tree with parallel workers and write one CSV row
per entry, files and directories alike. Per-entry stat errors are counted
and skipped; the scan runs to completion unless it is interrupted or the
output cannot be written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanOutput   string
	scanThreads  int
	scanSort     bool
	scanSkip     []string
	scanCompress string
	scanProgress time.Duration
)

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output file (default: derived from the canonical root)")
	scanCmd.Flags().IntVarP(&scanThreads, "threads", "t", scan.DefaultThreads(), "Number of worker goroutines")
	scanCmd.Flags().BoolVar(&scanSort, "sort", false, "Sort output lines bytewise (testing and small runs only)")
	scanCmd.Flags().StringArrayVar(&scanSkip, "skip", nil, "Skip directories whose full path contains this substring (can be repeated)")
	scanCmd.Flags().StringVar(&scanCompress, "compress", "none", "Compress the output: none|gzip|zstd")
	scanCmd.Flags().DurationVar(&scanProgress, "progress-interval", 30*time.Second, "Non-TTY progress line interval (0 to disable)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	root = pathutil.Normalize(root)

	var compress scan.Compression
	switch scan.Compression(scanCompress) {
	case scan.CompressNone, scan.CompressGzip, scan.CompressZstd:
		compress = scan.Compression(scanCompress)
	default:
		return fmt.Errorf("invalid compression %q (expected none|gzip|zstd)", scanCompress)
	}

	output := scanOutput
	if output == "" {
		output = pathutil.OutputName(root)
	}
	switch compress {
	case scan.CompressGzip:
		output += ".gz"
	case scan.CompressZstd:
		output += ".zst"
	}

	opts := scan.DefaultOptions().
		WithThreads(scanThreads).
		WithSort(scanSort).
		WithCompression(compress)
	for _, s := range scanSkip {
		opts.AddSkip(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	fmt.Printf("Scanning %s with %d workers...\n", root, opts.Threads)

	scanner := scan.NewScanner(opts)
	progressDone := make(chan struct{})
	go displayScanProgress(scanner, progressDone)

	summary, err := scanner.Run(ctx, root, output)
	close(progressDone)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "\r\033[K")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Scan canceled.")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Output: %s\n", summary.Output)
	fmt.Printf("Scanned %s entries in %s (%s errors)\n",
		humanize.Comma(summary.Entries),
		summary.Elapsed.Round(time.Millisecond),
		humanize.Comma(summary.Errors))
	return nil
}

// displayScanProgress paints a spinner line on a TTY and periodic PROGRESS
// lines otherwise, until done is closed.
func displayScanProgress(scanner *scan.Scanner, done <-chan struct{}) {
	isTTY := isatty.IsTerminal(os.Stderr.Fd())
	interval := 80 * time.Millisecond
	if !isTTY {
		if scanProgress <= 0 {
			return
		}
		interval = scanProgress
	}

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var spinnerIdx int

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			entries, errs := scanner.Progress()
			elapsed := time.Since(start)
			rate := float64(0)
			if elapsed.Seconds() > 0 {
				rate = float64(entries) / elapsed.Seconds()
			}
			if isTTY {
				spinner := spinnerFrames[spinnerIdx%len(spinnerFrames)]
				spinnerIdx++
				errStr := ""
				if errs > 0 {
					errStr = fmt.Sprintf(" | %d errors", errs)
				}
				fmt.Fprintf(os.Stderr, "\r\033[K%s Scanning... %s entries | %.0f/sec | %s%s",
					spinner, humanize.Comma(entries), rate, elapsed.Round(time.Millisecond), errStr)
			} else {
				fmt.Fprintf(os.Stderr, "PROGRESS entries=%d rate=%.0f/sec elapsed=%s errors=%d\n",
					entries, rate, elapsed.Round(time.Second), errs)
			}
		}
	}
}
