// Package fetchertest provides an in-memory fetcher.Fetcher for tests of
// the crawl and diff engines.
package fetchertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nao1215/docdrift/internal/fetcher"
)

// Site serves canned HTML keyed by absolute URL. URLs without a page are
// reported as fetcher.ErrNotFound. It records every requested URL.
type Site struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	requests []string
}

// NewSite creates an empty Site.
func NewSite() *Site {
	return &Site{
		pages:    make(map[string]string),
		failures: make(map[string]error),
	}
}

// Page registers html for url.
func (s *Site) Page(url, html string) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
	return s
}

// Fail makes fetches of url return err.
func (s *Site) Fail(url string, err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = err
	return s
}

// Fetch implements fetcher.Fetcher.
func (s *Site) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.failures[url]; ok {
		return nil, &fetcher.FetchError{URL: url, Err: err}
	}
	html, ok := s.pages[url]
	if !ok {
		return nil, &fetcher.FetchError{URL: url, StatusCode: 404, Err: fetcher.ErrNotFound}
	}
	return &fetcher.Page{URL: url, FinalURL: url, HTML: html, StatusCode: 200}, nil
}

// Requests returns the requested URLs in call order.
func (s *Site) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Count returns how often url was requested.
func (s *Site) Count(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r == url {
			n++
		}
	}
	return n
}

// ErrUnreachable is a convenience transport failure for Fail.
var ErrUnreachable = errors.New("connection refused")

// DocPage renders a minimal documentation page with a header title and
// the given links, written as alternating href and text values.
func DocPage(title string, hrefAndText ...string) string {
	body := fmt.Sprintf("<html><body><header><h1>%s</h1></header><nav>", title)
	for i := 0; i+1 < len(hrefAndText); i += 2 {
		body += fmt.Sprintf(`<a href="%s">%s</a>`, hrefAndText[i], hrefAndText[i+1])
	}
	return body + "</nav></body></html>"
}
