package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotAbsoluteURL is returned when a URL lacks an http(s) scheme or a host.
var ErrNotAbsoluteURL = errors.New("url must be absolute http or https")

// NormalizeURL returns the canonical form used for deduplication:
// fragment removed, scheme and host lowercased, and an empty path
// replaced by "/".
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return normalize(u)
}

func normalize(u *url.URL) (string, error) {
	u.Scheme = strings.ToLower(u.Scheme)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNotAbsoluteURL, u.String())
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// ResolveURL resolves href against base and normalizes the result.
func ResolveURL(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return normalize(base.ResolveReference(ref))
}

// JoinURL turns a node URL recorded in a snapshot into an absolute URL
// on baseURL. Absolute node URLs are returned unchanged; origin-relative
// ones are appended to baseURL with its trailing slash removed.
func JoinURL(baseURL, nodeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNotAbsoluteURL, baseURL)
	}

	if ref, err := url.Parse(nodeURL); err == nil && ref.IsAbs() {
		return nodeURL, nil
	}

	path := nodeURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(baseURL, "/") + path, nil
}

// Relativize returns a copy of the tree whose URLs under origin are
// rewritten relative to it ("https://docs.example/guide" becomes
// "/guide"). URLs outside origin are kept absolute.
func Relativize(root *SiteNode, origin string) *SiteNode {
	prefix := strings.TrimSuffix(origin, "/")
	out := root.Clone()
	out.Walk(func(n *SiteNode) bool {
		if rest, ok := strings.CutPrefix(n.URL, prefix); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
			if rest == "" {
				rest = "/"
			}
			n.URL = rest
		}
		return true
	})
	return out
}
