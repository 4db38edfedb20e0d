package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docdrift.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docdrift",
		Short: "Detect broken and retitled pages on documentation sites",
		Long: `docdrift crawls a documentation site, stores its page tree as a snapshot,
and later compares the snapshot against the live site to report pages
that are gone or whose heading changed.

Typical workflow:
  1. docdrift snapshot https://docs.example.com   (before a docs migration)
  2. docdrift diff --latest https://docs.example.com   (after it)`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory of the snapshot index (default: XDG data directory)")

	cmd.AddCommand(NewSnapshotCmd())
	cmd.AddCommand(NewDiffCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
