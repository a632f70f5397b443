package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mhalverson/scour/internal/tui"
)

var topCmd = &cobra.Command{
	Use:   "top AGG",
	Short: "Browse an aggregate CSV interactively",
	Long: `Open a terminal browser over an aggregate CSV: per-folder disk
usage, file counts, owner breakdowns and stale-data share, navigable with
the keyboard.`,
	Args: cobra.ExactArgs(1),
	RunE: runTop,
}

func runTop(cmd *cobra.Command, args []string) error {
	idx, err := tui.Load(args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(idx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
