package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/differ"
	"github.com/nao1215/docdrift/internal/metrics"
	"github.com/nao1215/docdrift/internal/model"
	"github.com/nao1215/docdrift/internal/report"
	"github.com/nao1215/docdrift/internal/snapshot"
	"github.com/spf13/cobra"
)

// ErrDriftDetected is returned by diff --fail-on-drift when pages are
// missing or retitled.
var ErrDriftDetected = errors.New("documentation drift detected")

// diffOptions holds diff-only settings that do not belong in Config.
type diffOptions struct {
	failOnDrift bool
	chart       bool
}

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare a snapshot against the live site",
		Long: `Diff visits every page recorded in a snapshot on the live site and
reports two sets:

- missing pages: the fetch failed or the site rendered its not-found page
- retitled pages: the page loads but its title differs from the snapshot

Recorded paths are resolved against --url, so a snapshot of production can
be checked against a preview deployment.

Examples:
  # Compare a snapshot file against the live site
  docdrift diff -P snapshots/docs.trunk.io-1a2b3c4.json -u https://docs.trunk.io

  # Compare the newest indexed snapshot of a site
  docdrift diff --latest https://docs.trunk.io

  # Check a preview deployment and fail CI on drift
  docdrift diff --latest https://docs.trunk.io -u https://preview.docs.trunk.io --fail-on-drift

  # Markdown report for a pull request comment
  docdrift diff --latest https://docs.trunk.io -m -o drift.md`,
		Args: cobra.NoArgs,
		RunE: runDiffCmd,
	}

	cmd.Flags().StringP("path", "P", "",
		"Snapshot file to compare")
	cmd.Flags().StringP("url", "u", "",
		"Base URL of the live site (env BASE_URL; defaults to the snapshot origin with --latest)")
	cmd.Flags().String("latest", "",
		"Use the newest indexed snapshot of this site instead of --path")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of pages checked at once")
	cmd.Flags().Bool("fail-on-drift", false,
		"Exit with status 1 when any page is missing or retitled")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("chart", false,
		"Include a mermaid pie chart in the Markdown report")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	addFetchFlags(cmd)

	return cmd
}

// runDiffCmd executes the diff command.
func runDiffCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	path, err := flags.GetString("path")
	if err != nil {
		return err
	}
	latest, err := flags.GetString("latest")
	if err != nil {
		return err
	}
	baseURL, err := flags.GetString("url")
	if err != nil {
		return err
	}

	switch {
	case path == "" && latest == "":
		return config.ErrNoSnapshotPath
	case path != "" && latest != "":
		return errors.New("--path and --latest cannot be used together")
	}
	if baseURL == "" {
		if latest != "" {
			baseURL = latest
		} else if v, ok := os.LookupEnv(config.EnvBaseURL); !ok || strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: --url is required with --path", config.ErrNoBaseURL)
		}
	}

	cfg, err := buildConfig(cmd, baseURL, os.LookupEnv)
	if err != nil {
		return err
	}
	cfg.SnapshotPath = path
	cfg.Latest = latest

	opts, err := applyDiffFlags(cmd, cfg)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDiff(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	result, err := runDiff(ctx, cfg, opts, cmd.OutOrStdout(), logger)
	if err != nil {
		return err
	}
	if opts.failOnDrift && result.HasDrift() {
		return fmt.Errorf("%w: %d missing, %d retitled",
			ErrDriftDetected, result.MissingPages.Len(), result.RetitledPages.Len())
	}
	return nil
}

// applyDiffFlags copies diff-only flags into cfg.
func applyDiffFlags(cmd *cobra.Command, cfg *config.Config) (diffOptions, error) {
	flags := cmd.Flags()
	var (
		opts diffOptions
		err  error
	)

	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return opts, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return opts, err
	}
	if opts.failOnDrift, err = flags.GetBool("fail-on-drift"); err != nil {
		return opts, err
	}
	if opts.chart, err = flags.GetBool("chart"); err != nil {
		return opts, err
	}
	return opts, nil
}

// runDiff loads the snapshot, checks it against the live site, writes the
// report and records the run in the index.
func runDiff(ctx context.Context, cfg *config.Config, opts diffOptions, stdout io.Writer, logger *slog.Logger) (*model.DiffResult, error) {
	snapshotID, err := resolveSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tree, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("snapshot loaded", "path", cfg.SnapshotPath, "pages", tree.Count())

	ext, err := newExtractor(cfg)
	if err != nil {
		return nil, err
	}

	rec := metrics.NewRecorder()
	defer writeMetrics(cfg, rec, logger)

	f, closeFetcher, err := newFetcher(cfg, ext, rec, logger)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(logger, "fetcher", closeFetcher)

	d := differ.NewDiffer(f, ext,
		differ.WithLogger(logger),
		differ.WithMetrics(rec),
		differ.WithConcurrency(cfg.Concurrency),
	)

	baseURL := strings.TrimSpace(cfg.BaseURL)
	result, err := d.Diff(ctx, tree, baseURL)
	if err != nil {
		return nil, fmt.Errorf("diff failed: %w", err)
	}

	checkedAt := time.Now()
	if err := outputReport(cfg, opts, stdout, &model.DiffReport{
		SnapshotPath: cfg.SnapshotPath,
		BaseURL:      baseURL,
		CheckedAt:    checkedAt,
		Result:       result,
	}); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	recordDiffRun(ctx, cfg, &model.DiffRun{
		SnapshotID:    snapshotID,
		BaseURL:       baseURL,
		PagesChecked:  result.PagesChecked,
		MissingCount:  result.MissingPages.Len(),
		RetitledCount: result.RetitledPages.Len(),
		CheckedAt:     checkedAt,
	}, logger)

	return result, nil
}

// resolveSnapshot fills cfg.SnapshotPath from the index when --latest is
// used and returns the snapshot id.
func resolveSnapshot(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Latest == "" {
		return strings.TrimSuffix(filepath.Base(cfg.SnapshotPath), filepath.Ext(cfg.SnapshotPath)), nil
	}

	origin, err := model.NormalizeURL(cfg.Latest)
	if err != nil {
		return "", fmt.Errorf("%w: %q", config.ErrInvalidBaseURL, cfg.Latest)
	}

	idx, err := openIndex(cfg)
	if err != nil {
		return "", err
	}
	defer idx.Close()

	info, err := idx.LatestSnapshot(ctx, origin)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", fmt.Errorf("%w: no indexed snapshot for %s (run 'docdrift snapshot %s' first)",
			snapshot.ErrSnapshotNotFound, origin, origin)
	}
	cfg.SnapshotPath = info.Path
	return info.ID, nil
}

// outputReport writes the diff report in the requested format.
func outputReport(cfg *config.Config, opts diffOptions, stdout io.Writer, r *model.DiffReport) error {
	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output, report.WithChart(opts.chart))
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	if cfg.ReportFile != "" {
		// Keep a text summary on the terminal when the report goes to a file.
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
	}

	if _, err := w.Write(r); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return err
	}
	return closeOutput()
}

// recordDiffRun adds the run to the index. Failures are logged only.
func recordDiffRun(ctx context.Context, cfg *config.Config, run *model.DiffRun, logger *slog.Logger) {
	idx, err := openIndex(cfg)
	if err != nil {
		logger.Error("diff run not indexed", "error", err)
		return
	}
	defer closeQuietly(logger, "index", idx.Close)

	if _, err := idx.RecordDiffRun(ctx, run); err != nil {
		logger.Error("diff run not indexed", "error", err)
		return
	}
	logger.Debug("diff run indexed", "id", run.ID, "snapshot", run.SnapshotID)
}
