package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/docdrift/internal/config"
	"github.com/nao1215/docdrift/internal/database"
	"github.com/nao1215/docdrift/internal/extractor"
	"github.com/nao1215/docdrift/internal/fetcher"
	dlog "github.com/nao1215/docdrift/internal/log"
	"github.com/nao1215/docdrift/internal/metrics"
	"github.com/spf13/cobra"
)

// addFetchFlags registers the flags shared by commands that fetch pages.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("delay", "r", int(config.DefaultRateLimitDelay/time.Millisecond),
		"Minimum delay before each request in milliseconds (env RATE_LIMIT_DELAY)")
	cmd.Flags().Float64("rps", 0,
		"Maximum requests per second (0 disables the cap)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for each page fetch")
	cmd.Flags().BoolP("browser", "b", false,
		"Render pages with headless Chromium")
	cmd.Flags().String("browser-bin", "",
		"Path to the Chromium binary (default: detect or download)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header for HTTP requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes; larger pages count as fetch failures")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docdrift in current or home directory)")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics to this file in textfile collector format")
}

// buildConfig creates a Config from defaults, the config file, the
// environment and command flags. Later sources win.
func buildConfig(cmd *cobra.Command, baseURL string, lookup config.LookupFunc) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user named a config file, it must exist. Otherwise a missing
	// file just means no site overrides.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}
	cfg.ApplySite()

	// The environment outranks the config file.
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if err := applyFetchFlags(cmd, cfg); err != nil {
		return nil, err
	}

	applyGlobalFlags(cmd, cfg)
	return cfg, nil
}

// applyFetchFlags copies explicitly set fetch flags into cfg.
func applyFetchFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("delay") {
		ms, err := flags.GetInt("delay")
		if err != nil {
			return err
		}
		cfg.RateLimitDelay = time.Duration(ms) * time.Millisecond
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
		return err
	}
	if cfg.FetchTimeout, err = flags.GetDuration("timeout"); err != nil {
		return err
	}
	if flags.Changed("browser") {
		if cfg.UseBrowser, err = flags.GetBool("browser"); err != nil {
			return err
		}
	}
	if cfg.BrowserBin, err = flags.GetString("browser-bin"); err != nil {
		return err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return err
	}
	return nil
}

// applyGlobalFlags copies the root command's persistent flags into cfg.
func applyGlobalFlags(cmd *cobra.Command, cfg *config.Config) {
	cfg.Verbose = getGlobalBool(cmd, "verbose")
	cfg.LogJSON = getGlobalBool(cmd, "log-json")
	if dbDir := getGlobalString(cmd, "db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}
}

// getGlobalBool retrieves a persistent flag from the command or its root.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// getGlobalString retrieves a persistent flag from the command or its root.
func getGlobalString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return v
}

// setupLogger creates the redacting logger for a run. Logs go to stderr
// so that stdout stays clean for reports and snapshot paths.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := dlog.NewLogger(cmd.ErrOrStderr(), dlog.Options{
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
	})
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newExtractor builds the extractor from the effective site settings.
func newExtractor(cfg *config.Config) (*extractor.Extractor, error) {
	opts := []extractor.Option{
		extractor.WithTitleSelector(cfg.Site.TitleSelector),
		extractor.WithNotFoundSelector(cfg.Site.NotFoundSelector),
	}
	if cfg.Site.NotFoundText != "" {
		opts = append(opts, extractor.WithNotFoundText(cfg.Site.NotFoundText))
	}
	ext, err := extractor.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return ext, nil
}

// newFetcher builds the fetch stack: an HTTP or browser fetcher, wrapped
// with metrics, wrapped with the rate limit. The returned close function
// releases the browser, if one was started.
func newFetcher(cfg *config.Config, ext *extractor.Extractor, rec *metrics.Recorder, logger *slog.Logger) (fetcher.Fetcher, func() error, error) {
	var (
		base    fetcher.Fetcher
		closeFn = func() error { return nil }
	)

	if cfg.UseBrowser {
		headers := maps.Clone(cfg.Site.Headers)
		if cfg.Site.Cookie != "" {
			if headers == nil {
				headers = make(map[string]string)
			}
			headers["Cookie"] = cfg.Site.Cookie
		}
		b, err := fetcher.NewBrowserFetcher(
			fetcher.WithBrowserBin(cfg.BrowserBin),
			fetcher.WithStealth(true),
			fetcher.WithBrowserTimeout(cfg.FetchTimeout),
			fetcher.WithBrowserHeaders(headers),
			fetcher.WithBrowserNotFoundFunc(ext.IsNotFound),
			fetcher.WithBrowserLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("browser started")
		base, closeFn = b, b.Close
	} else {
		base = fetcher.NewHTTPFetcher(
			fetcher.WithTimeout(cfg.FetchTimeout),
			fetcher.WithUserAgent(cfg.UserAgent),
			fetcher.WithMaxBodySize(cfg.MaxBodySize),
			fetcher.WithNotFoundFunc(ext.IsNotFound),
			fetcher.WithCookie(cfg.Site.Cookie),
			fetcher.WithHeaders(cfg.Site.Headers),
		)
	}

	f := fetcher.NewThrottle(fetcher.NewInstrumented(base, rec), cfg.RateLimitDelay, cfg.RequestsPerSecond)
	return f, closeFn, nil
}

// openIndex opens the snapshot index in cfg.DBDir.
func openIndex(cfg *config.Config) (*database.Index, error) {
	idx, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot index: %w", err)
	}
	return idx, nil
}

// writeMetrics exports rec when a metrics file is configured.
func writeMetrics(cfg *config.Config, rec *metrics.Recorder, logger *slog.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		return
	}
	logger.Debug("metrics written", "path", cfg.MetricsFile)
}

// openOutput returns the report destination: the named file, or stdout.
// The returned close function is always safe to call.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// closeQuietly runs closeFn and logs a failure.
func closeQuietly(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Warn("failed to close "+what, "error", err)
	}
}
