package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name docdrift looks for in the working and
// home directories.
const DefaultConfigFile = ".docdrift"

// xdgConfigFile is the file name inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a .docdrift file.
//
// Unknown keys are rejected so that a misspelled selector does not
// silently fall back to the default. Site keys may be written as hosts or
// as URLs; both are reduced to the lowercased host that ApplySite looks up.
// An empty file yields an empty configuration.
func LoadConfigFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // the path comes from the user
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	defer f.Close()

	var cf File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for key, site := range cf.Sites {
		host := siteKey(key)
		if host == "" {
			return nil, fmt.Errorf("failed to parse %s: site %q has no host", path, key)
		}
		if _, dup := sites[host]; dup {
			return nil, fmt.Errorf("failed to parse %s: host %s configured twice", path, host)
		}
		sites[host] = site
	}
	cf.Sites = sites

	return &cf, nil
}

// siteKey reduces a sites entry to the form HostKey produces.
func siteKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, "://") {
		return HostKey(key)
	}
	return strings.ToLower(strings.TrimSuffix(key, "/"))
}

// SearchPaths lists the implicit configuration locations in lookup order:
// the working directory, the home directory, then the XDG config directory.
// Directories that cannot be determined are left out.
func SearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), xdgConfigFile))
}

// FindConfigFile returns the configuration file to load, or "" when there
// is none. An explicit configPath is used only if it exists; otherwise the
// first existing entry of SearchPaths wins.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if isFile(configPath) {
			return configPath
		}
		return ""
	}
	for _, p := range SearchPaths() {
		if isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
