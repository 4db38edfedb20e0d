package config

import "maps"

// SiteConfig holds per-site crawl settings. Sites differ in where they
// put the page heading and how they render a missing page, so the
// extractor selectors live here.
type SiteConfig struct {
	// TitleSelector is the CSS selector of the page heading.
	TitleSelector string `yaml:"titleSelector,omitempty"`

	// NotFoundSelector and NotFoundText identify the site's soft 404 page:
	// an element matching the selector whose text contains NotFoundText.
	NotFoundSelector string `yaml:"notFoundSelector,omitempty"`
	NotFoundText     string `yaml:"notFoundText,omitempty"`

	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the default crawl depth for this site.
	// If zero, the global depth is used.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths when non-empty.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// Browser renders this site in headless Chromium.
	Browser bool `yaml:"browser,omitempty"`
}

// File represents the structure of the .docdrift configuration file.
type File struct {
	// Sites maps hosts (e.g. "docs.example.com") to their configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merging the
// site-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.TitleSelector != "" {
		result.TitleSelector = siteConfig.TitleSelector
	}
	if siteConfig.NotFoundSelector != "" {
		result.NotFoundSelector = siteConfig.NotFoundSelector
	}
	if siteConfig.NotFoundText != "" {
		result.NotFoundText = siteConfig.NotFoundText
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	if siteConfig.Browser {
		result.Browser = true
	}

	return result
}
