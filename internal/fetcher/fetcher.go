package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the server answers 404/410 or the rendered
// page is the site's not-found placeholder.
var ErrNotFound = errors.New("page not found")

// Fetcher retrieves a page. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Page is a fetched page.
type Page struct {
	// URL is the requested URL.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// HTML is the rendered document.
	HTML string

	// StatusCode is the HTTP status, or 0 when the browser could not
	// report one.
	StatusCode int
}

// NotFoundFunc reports whether rendered HTML is a not-found page even
// though the transport succeeded.
type NotFoundFunc func(html string) bool

// FetchError describes a failed fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// statusError maps an HTTP status code to the fetch error for url,
// or nil for success codes.
func statusError(url string, status int) error {
	switch {
	case status == 404 || status == 410:
		return &FetchError{URL: url, StatusCode: status, Err: ErrNotFound}
	case status >= 400:
		return &FetchError{URL: url, StatusCode: status, Err: errors.New("unexpected status")}
	default:
		return nil
	}
}
