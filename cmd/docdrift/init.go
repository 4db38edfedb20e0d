package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/docdrift.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .docdrift configuration file",
		Long: `Init writes a .docdrift file with the default title and not-found
selectors and commented per-site examples (cookies, headers, ignore and
follow patterns, browser rendering).

docdrift reads .docdrift from the working directory, then the home
directory, then config.yaml in the XDG config directory.

Examples:
  docdrift init
  docdrift init -o ~/.docdrift
  docdrift init --stdout > team.yaml
  docdrift init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "path of the file to write")
	cmd.Flags().BoolP("force", "f", false, "replace an existing file")
	cmd.Flags().Bool("stdout", false, "print the template instead of writing a file")
	cmd.MarkFlagsMutuallyExclusive("stdout", "output")
	cmd.MarkFlagsMutuallyExclusive("stdout", "force")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	if toStdout {
		_, err := cmd.OutOrStdout().Write(configTemplate)
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeTemplate(outputPath, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nAdjust titleSelector and the not-found settings to match your site, then run:")
	fmt.Fprintln(out, "  docdrift snapshot <url>")
	return nil
}

// writeTemplate creates path with the embedded template. Without force an
// existing file is left untouched.
func writeTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0600) //nolint:gosec // the path comes from the user
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
		}
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	_, werr := f.Write(configTemplate)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("failed to write configuration file: %w", werr)
	}
	return nil
}
