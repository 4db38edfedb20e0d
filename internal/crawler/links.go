package crawler

import (
	"net/url"
	"path"
	"strings"

	"github.com/nao1215/docdrift/internal/extractor"
	"github.com/nao1215/docdrift/internal/model"
)

// linkVerdict is the outcome of classifying an anchor.
type linkVerdict int

const (
	linkAccepted linkVerdict = iota
	linkEmpty
	linkNonNavigable
	linkMalformed
	linkNotHTTP
	linkOffOrigin
	linkFiltered
	linkVisited
)

// nonNavigablePrefixes mark hrefs that never lead to another page.
var nonNavigablePrefixes = []string{"#", "mailto:", "tel:", "javascript:", "data:"}

// classifyLink resolves link against the page URL and decides whether it
// may become a child. The returned URL is only meaningful when the verdict
// is linkAccepted. The visited check is left to the caller so that rejected
// links never claim a URL.
func (s *Spider) classifyLink(base *url.URL, origin string, link extractor.Link) (string, linkVerdict) {
	href := strings.TrimSpace(link.Href)
	if href == "" || strings.TrimSpace(link.Text) == "" {
		return "", linkEmpty
	}

	lower := strings.ToLower(href)
	for _, prefix := range nonNavigablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", linkNonNavigable
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", linkMalformed
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", linkNotHTTP
	}

	target, err := model.NormalizeURL(resolved.String())
	if err != nil {
		return "", linkNotHTTP
	}
	if !strings.HasPrefix(target, origin) {
		return "", linkOffOrigin
	}
	if !s.shouldFollow(target) {
		return "", linkFiltered
	}
	return target, linkAccepted
}

// shouldFollow applies the ignore and follow patterns to the URL path.
// Ignore patterns win over follow patterns.
func (s *Spider) shouldFollow(target string) bool {
	if len(s.ignorePatterns) == 0 && len(s.followPatterns) == 0 {
		return true
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern reports whether a URL path matches a glob pattern.
//
//   - "/guide/*" matches "/guide" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use path.Match, where * stays within one segment
//     and a pattern without "/" is matched against the last segment
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*."); ok && strings.HasSuffix(p, "."+ext) {
		return true
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		matched, err := path.Match(pattern, path.Base(p))
		return err == nil && matched
	}
	return false
}
