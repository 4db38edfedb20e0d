package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Defaults for HTTPFetcher.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "docdrift/1.0 (+https://github.com/nao1215/docdrift)"
	DefaultMaxBodySize = 10 * 1024 * 1024

	maxRedirects = 10
)

// Causes wrapped in a FetchError.
var (
	errNotHTML          = errors.New("response is not HTML")
	errTooManyRedirects = errors.New("too many redirects")
	errBodyTooLarge     = errors.New("response body exceeds size limit")
)

// HTTPFetcher fetches pages with net/http.
// Server-rendered documentation sites need nothing more; sites that build
// their content with JavaScript need BrowserFetcher.
type HTTPFetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	notFound    NotFoundFunc

	timeout time.Duration
	cookie  string
	headers map[string]string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize caps the size of a response body. Larger pages fail.
func WithMaxBodySize(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithNotFoundFunc sets the detector for soft not-found pages.
func WithNotFoundFunc(fn NotFoundFunc) HTTPOption {
	return func(f *HTTPFetcher) {
		f.notFound = fn
	}
}

// WithCookie sends a raw cookie string ("session=abc") with every request.
func WithCookie(cookie string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sends extra headers with every request.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
//
// The client keeps a cookie jar so that sites which set a session cookie on
// the first page keep serving the crawl. A chain of more than 10 redirects
// is a fetch failure.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	if f.cookie != "" || len(f.headers) > 0 {
		transport = &headerInjectingTransport{
			base:    transport,
			cookie:  f.cookie,
			headers: f.headers,
		}
	}

	f.client = &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errTooManyRedirects}
	}
	if err := statusError(url, resp.StatusCode); err != nil {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, err
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || (mediaType != "text/html" && mediaType != "application/xhtml+xml") {
			return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", errNotHTML, ct)}
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w (%d bytes)", errBodyTooLarge, f.maxBodySize)}
	}
	html := string(body)

	if f.notFound != nil && f.notFound(html) {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrNotFound}
	}

	return &Page{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		HTML:       html,
		StatusCode: resp.StatusCode,
	}, nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// configured headers and cookies into every request, redirects included.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
