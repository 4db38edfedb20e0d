package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/report"
	"github.com/nao1215/docdrift/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <snapshot>",
		Short: "Print a snapshot as an indented outline",
		Long: `Show prints the page tree stored in a snapshot, one page per line with its
title, indented by link depth. The argument is a snapshot file or an id
from 'docdrift history'.

Examples:
  docdrift show snapshots/docs.trunk.io-1a2b3c4.json
  docdrift show docs.trunk.io-1a2b3c4 --depth 1
  docdrift show docs.trunk.io-1a2b3c4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().IntP("depth", "d", -1,
		"Only print pages up to this depth (-1 prints everything)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the snapshot file format instead of an outline")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	path, err := resolveSnapshotArg(cmd, args[0])
	if err != nil {
		return err
	}

	tree, err := snapshot.Load(path)
	if err != nil {
		return err
	}

	if jsonOutput {
		return snapshot.Encode(cmd.OutOrStdout(), tree)
	}
	_, err = report.NewTreeWriter(cmd.OutOrStdout(), report.WithMaxDepth(depth)).Write(tree)
	return err
}

// resolveSnapshotArg returns arg when it names an existing file, and
// otherwise looks it up as a snapshot id in the index.
func resolveSnapshotArg(cmd *cobra.Command, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}

	cfg := config.NewConfig()
	applyGlobalFlags(cmd, cfg)

	idx, err := openIndex(cfg)
	if err != nil {
		return "", err
	}
	defer idx.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := idx.GetSnapshot(ctx, arg)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", fmt.Errorf("%w: %s is neither a file nor an indexed snapshot id",
			snapshot.ErrSnapshotNotFound, arg)
	}
	return info.Path, nil
}
