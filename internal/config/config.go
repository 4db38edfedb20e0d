package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the documentation site crawled when nothing else
	// is configured.
	DefaultBaseURL = "https://docs.trunk.io"

	// DefaultRateLimitDelay is the minimum pause before every fetch.
	DefaultRateLimitDelay = 50 * time.Millisecond

	// DefaultMaxDepth bounds how many link hops from the seed are followed.
	DefaultMaxDepth = 5

	// DefaultFetchTimeout applies to each page fetch, not the whole run.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultConcurrency keeps the diff sequential.
	DefaultConcurrency = 1

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultSnapshotDir is where snapshot files are written.
	DefaultSnapshotDir = "snapshots"

	// AppName is the application name used for XDG directory paths.
	AppName = "docdrift"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL        = "BASE_URL"
	EnvRateLimitDelay = "RATE_LIMIT_DELAY"
	EnvMaxDepth       = "MAX_DEPTH"
)

// Config holds all configuration options for a snapshot or diff run.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed explicitly to the components that need it.
type Config struct {
	// BaseURL is the documentation site root. For snapshots it is the crawl
	// seed; for diffs it is prefixed to every recorded path.
	BaseURL string

	// RateLimitDelay is the minimum pause before each fetch.
	RateLimitDelay time.Duration

	// RequestsPerSecond additionally caps the fetch rate. 0 disables the cap.
	RequestsPerSecond float64

	// MaxDepth is the deepest level fetched during a crawl. Links found on
	// pages at this depth are recorded but not fetched.
	MaxDepth int

	// MaxPages stops the crawl after this many fetches. 0 means no limit.
	MaxPages int

	// FetchTimeout bounds each page fetch.
	FetchTimeout time.Duration

	// Concurrency is the number of pages the diff checks at once.
	Concurrency int

	// UserAgent overrides the HTTP User-Agent header when non-empty.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Set to 0 to use the fetcher's default.
	MaxBodySize int64

	// UseBrowser renders pages in headless Chromium instead of plain HTTP.
	UseBrowser bool

	// BrowserBin is an explicit Chromium binary; empty lets rod find or
	// download one.
	BrowserBin string

	// OutDir is the snapshot directory.
	OutDir string

	// Revision overrides the revision marker embedded in snapshot ids.
	Revision string

	// Overwrite allows replacing an existing snapshot file.
	Overwrite bool

	// SnapshotPath is the snapshot file a diff compares against.
	SnapshotPath string

	// Latest resolves SnapshotPath from the index for this origin.
	Latest string

	// JSONReport enables JSON diff output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown diff output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the diff report to a file instead of stdout.
	ReportFile string

	// MetricsFile writes Prometheus metrics in textfile format when set.
	MetricsFile string

	// DBDir is the directory of the snapshot index database.
	// Defaults to the XDG data directory (~/.local/share/docdrift on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .docdrift is searched for in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the parsed configuration file, if any.
	SiteConfigs *File

	// Site is the effective site configuration for BaseURL.
	Site SiteConfig
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (delay, depth, timeout).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		RateLimitDelay: DefaultRateLimitDelay,
		MaxDepth:       DefaultMaxDepth,
		FetchTimeout:   DefaultFetchTimeout,
		Concurrency:    DefaultConcurrency,
		MaxBodySize:    DefaultMaxBodySize,
		OutDir:         DefaultSnapshotDir,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for docdrift.
// On Linux: ~/.local/share/docdrift
// On macOS: ~/Library/Application Support/docdrift
// On Windows: %LOCALAPPDATA%\docdrift
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docdrift.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LookupFunc reports the value of an environment variable.
// os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from BASE_URL, RATE_LIMIT_DELAY (milliseconds)
// and MAX_DEPTH. Unset or empty variables leave the field unchanged.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRateLimitDelay); ok && strings.TrimSpace(v) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidDelay, EnvRateLimitDelay, v)
		}
		c.RateLimitDelay = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup(EnvMaxDepth); ok && strings.TrimSpace(v) != "" {
		depth, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidDepth, EnvMaxDepth, v)
		}
		c.MaxDepth = depth
	}
	return nil
}

// ApplySite resolves the site configuration for BaseURL from SiteConfigs
// and applies its depth and browser settings. Flags and environment
// variables applied afterwards take precedence.
func (c *Config) ApplySite() {
	if c.SiteConfigs == nil {
		return
	}
	c.Site = c.SiteConfigs.GetSiteConfig(HostKey(c.BaseURL))
	if c.Site.Depth != 0 {
		c.MaxDepth = c.Site.Depth
	}
	if c.Site.Browser {
		c.UseBrowser = true
	}
}

// HostKey returns the host of rawURL as used for keys in the config file,
// or "" when rawURL cannot be parsed.
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Validate checks the settings shared by every command.
// It returns the first problem found.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrNoBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.RateLimitDelay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// ValidateDiff checks the settings a diff needs on top of Validate.
func (c *Config) ValidateDiff() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SnapshotPath == "" && c.Latest == "" {
		return ErrNoSnapshotPath
	}
	return nil
}
