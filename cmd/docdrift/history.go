package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/database"
	"github.com/nao1215/docdrift/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [origin]",
		Short: "List indexed snapshots and diff runs",
		Long: `History lists the snapshots recorded in the local index, newest first.

Examples:
  # List every indexed snapshot
  docdrift history

  # List snapshots of one site with their diff runs
  docdrift history https://docs.trunk.io --runs

  # List all sites in the index
  docdrift history -L`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-origins", "L", false,
		"List all sites with indexed snapshots")
	cmd.Flags().Bool("runs", false,
		"Show the diff runs of each snapshot")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")

	return cmd
}

// historyEntry is one snapshot with its diff runs, as printed by --json.
type historyEntry struct {
	*model.SnapshotInfo
	Runs []*model.DiffRun `json:"runs,omitempty"`
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listOrigins, err := cmd.Flags().GetBool("list-origins")
	if err != nil {
		return err
	}
	showRuns, err := cmd.Flags().GetBool("runs")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var origin string
	if len(args) > 0 {
		origin, err = model.NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", config.ErrInvalidBaseURL, args[0])
		}
	}

	cfg := config.NewConfig()
	applyGlobalFlags(cmd, cfg)

	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer idx.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if listOrigins {
		return listIndexedOrigins(ctx, idx, out, jsonOutput)
	}
	return listSnapshotHistory(ctx, idx, out, origin, showRuns, jsonOutput)
}

// listIndexedOrigins lists all sites that have snapshots in the index.
func listIndexedOrigins(ctx context.Context, idx *database.Index, out io.Writer, jsonOutput bool) error {
	origins, err := idx.ListOrigins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list origins: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, origins)
	}

	if len(origins) == 0 {
		fmt.Fprintln(out, "No snapshots found in the index.")
		fmt.Fprintln(out, "\nUse 'docdrift snapshot <url>' to snapshot a site.")
		return nil
	}

	fmt.Fprintf(out, "Indexed sites (%d):\n\n", len(origins))
	for _, o := range origins {
		fmt.Fprintf(out, "  • %s\n", o)
	}
	fmt.Fprintln(out, "\nUse 'docdrift history <url>' to see the snapshots of a site.")
	return nil
}

// listSnapshotHistory lists snapshots, optionally restricted to origin.
func listSnapshotHistory(ctx context.Context, idx *database.Index, out io.Writer, origin string, showRuns, jsonOutput bool) error {
	snapshots, err := idx.ListSnapshots(ctx, origin)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	entries := make([]historyEntry, len(snapshots))
	for i, s := range snapshots {
		entries[i].SnapshotInfo = s
		if !showRuns {
			continue
		}
		entries[i].Runs, err = idx.ListDiffRuns(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("failed to list diff runs: %w", err)
		}
	}

	if jsonOutput {
		return writeJSON(out, entries)
	}

	if len(entries) == 0 {
		if origin != "" {
			fmt.Fprintf(out, "No snapshots found for %s\n", origin)
		} else {
			fmt.Fprintln(out, "No snapshots found in the index.")
		}
		fmt.Fprintln(out, "\nUse 'docdrift snapshot <url>' to snapshot a site.")
		return nil
	}

	if origin != "" {
		fmt.Fprintf(out, "Snapshots of %s (%d):\n\n", origin, len(entries))
	} else {
		fmt.Fprintf(out, "Snapshots (%d):\n\n", len(entries))
	}
	fmt.Fprintf(out, "  %-20s  %-6s  %s\n", "Captured", "Pages", "ID")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, e := range entries {
		fmt.Fprintf(out, "  %-20s  %-6d  %s\n",
			e.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			e.PageCount,
			e.ID,
		)
		for _, r := range e.Runs {
			fmt.Fprintf(out, "      diff #%d %s  %s  checked %d, missing %d, retitled %d\n",
				r.ID,
				r.CheckedAt.Local().Format("2006-01-02 15:04:05"),
				r.BaseURL,
				r.PagesChecked,
				r.MissingCount,
				r.RetitledCount,
			)
		}
	}

	fmt.Fprintln(out, "\nUse 'docdrift show <id>' to print a snapshot.")
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
