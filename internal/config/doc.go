// Package config provides configuration structures and utilities for docdrift.
// It defines crawl and diff settings, the optional .docdrift YAML file with
// per-site overrides, and the environment variables the tool honours.
package config
