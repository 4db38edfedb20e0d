package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/crawler"
	"github.com/nao1215/docdrift/internal/metrics"
	"github.com/nao1215/docdrift/internal/model"
	"github.com/nao1215/docdrift/internal/snapshot"
	"github.com/spf13/cobra"
)

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [url]",
		Short: "Crawl a documentation site and save its page tree",
		Long: `Snapshot crawls a documentation site breadth-first from the given URL,
following same-site links up to --depth hops, and saves the discovered page
tree with each page's title to <out-dir>/<id>.json.

The id combines the site URL with the current git revision (or a timestamp
outside a git checkout), so snapshots taken before and after a docs change
sit side by side. The snapshot is also recorded in the local index for
'docdrift diff --latest' and 'docdrift history'.

Examples:
  # Snapshot the default site (BASE_URL or https://docs.trunk.io)
  docdrift snapshot

  # Snapshot a site two levels deep with a 200ms delay between requests
  docdrift snapshot https://docs.example.com -d 2 -r 200

  # Render JavaScript navigation with headless Chromium
  docdrift snapshot --browser https://docs.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSnapshotCmd,
	}

	cmd.Flags().StringP("url", "u", "",
		"Site URL to crawl (env BASE_URL, default "+config.DefaultBaseURL+")")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link depth from the start page (env MAX_DEPTH)")
	cmd.Flags().IntP("max-pages", "p", 0,
		"Stop after fetching this many pages (0 means no limit)")
	cmd.Flags().StringP("out-dir", "o", config.DefaultSnapshotDir,
		"Directory for snapshot files")
	cmd.Flags().String("revision", "",
		"Revision marker for the snapshot id (default: git short hash or timestamp)")
	cmd.Flags().Bool("overwrite", false,
		"Replace an existing snapshot with the same id")
	addFetchFlags(cmd)

	return cmd
}

// runSnapshotCmd executes the snapshot command.
func runSnapshotCmd(cmd *cobra.Command, args []string) error {
	baseURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if baseURL != "" && baseURL != args[0] {
			return fmt.Errorf("conflicting URLs: %q and --url %q", args[0], baseURL)
		}
		baseURL = args[0]
	}

	cfg, err := buildConfig(cmd, baseURL, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := applySnapshotFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	path, err := runSnapshot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// applySnapshotFlags copies snapshot-only flags into cfg.
func applySnapshotFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("depth") {
		if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
			return err
		}
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return err
	}
	if cfg.OutDir, err = flags.GetString("out-dir"); err != nil {
		return err
	}
	if cfg.Revision, err = flags.GetString("revision"); err != nil {
		return err
	}
	if cfg.Overwrite, err = flags.GetBool("overwrite"); err != nil {
		return err
	}
	return nil
}

// runSnapshot crawls cfg.BaseURL, saves the tree and records it in the
// index. It returns the snapshot path.
func runSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	origin, err := model.NormalizeURL(cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q", config.ErrInvalidBaseURL, cfg.BaseURL)
	}

	ext, err := newExtractor(cfg)
	if err != nil {
		return "", err
	}

	rec := metrics.NewRecorder()
	defer writeMetrics(cfg, rec, logger)

	f, closeFetcher, err := newFetcher(cfg, ext, rec, logger)
	if err != nil {
		return "", err
	}
	defer closeQuietly(logger, "fetcher", closeFetcher)

	spider := crawler.NewSpider(f, ext,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger),
		crawler.WithMetrics(rec),
		crawler.WithIgnorePatterns(cfg.Site.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.Site.FollowPatterns),
	)

	startTime := time.Now()
	tree, err := spider.Crawl(ctx, origin)
	if err != nil {
		// A partial tree would make every page the crawl did not reach
		// look missing in a later diff, so an interrupted crawl saves nothing.
		return "", fmt.Errorf("crawl failed: %w", err)
	}

	stats := spider.Stats()
	logger.Info("crawl completed",
		"origin", origin,
		"pages", tree.Count(),
		"fetched", stats.PagesFetched,
		"failed", stats.PagesFailed,
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	revision := cfg.Revision
	if revision == "" {
		revision = snapshot.Revision(ctx, time.Now())
	}
	id := snapshot.ID(origin, revision)

	store := snapshot.NewStore(cfg.OutDir, snapshot.WithOverwrite(cfg.Overwrite))
	path, err := store.Save(model.Relativize(tree, origin), id)
	if err != nil {
		return "", err
	}
	logger.Info("snapshot saved", "id", id, "path", path)

	recordSnapshot(ctx, cfg, &model.SnapshotInfo{
		ID:         id,
		Origin:     origin,
		Revision:   revision,
		Path:       absPath(path),
		PageCount:  tree.Count(),
		MaxDepth:   cfg.MaxDepth,
		CapturedAt: time.Now(),
	}, logger)

	return path, nil
}

// recordSnapshot adds the snapshot to the index. The snapshot file is the
// source of truth, so index failures are logged rather than returned.
func recordSnapshot(ctx context.Context, cfg *config.Config, info *model.SnapshotInfo, logger *slog.Logger) {
	idx, err := openIndex(cfg)
	if err != nil {
		logger.Error("snapshot not indexed", "id", info.ID, "error", err)
		return
	}
	defer closeQuietly(logger, "index", idx.Close)

	if err := idx.RecordSnapshot(ctx, info); err != nil {
		logger.Error("snapshot not indexed", "id", info.ID, "error", err)
		return
	}
	logger.Debug("snapshot indexed", "id", info.ID, "index", idx.Path())
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
