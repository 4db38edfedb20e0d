package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// domStableWindow is how long the DOM must stay unchanged before the page
// counts as rendered.
const domStableWindow = 300 * time.Millisecond

// statusScript reads the navigation response status without CDP event
// listeners.
const statusScript = `() => {
	try {
		const entries = performance.getEntriesByType("navigation");
		if (entries.length > 0) return entries[0].responseStatus || 0;
	} catch (e) {}
	return 0;
}`

// BrowserFetcher renders pages in headless Chromium.
// One browser process is shared; every Fetch opens and closes its own tab.
type BrowserFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *slog.Logger

	bin      string
	stealth  bool
	timeout  time.Duration
	headers  map[string]string
	notFound NotFoundFunc
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithBrowserBin uses the given Chromium binary instead of the one rod
// downloads on first use.
func WithBrowserBin(path string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.bin = path
	}
}

// WithStealth injects go-rod/stealth into every page before navigation.
func WithStealth(enabled bool) BrowserOption {
	return func(b *BrowserFetcher) {
		b.stealth = enabled
	}
}

// WithBrowserTimeout bounds navigation and rendering of a single page.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithBrowserHeaders sends extra headers with every navigation.
func WithBrowserHeaders(headers map[string]string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.headers = headers
	}
}

// WithBrowserNotFoundFunc sets the detector for soft not-found pages.
func WithBrowserNotFoundFunc(fn NotFoundFunc) BrowserOption {
	return func(b *BrowserFetcher) {
		b.notFound = fn
	}
}

// WithBrowserLogger sets the logger for rendering diagnostics.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *BrowserFetcher) {
		b.logger = logger
	}
}

// NewBrowserFetcher launches headless Chromium and connects to it.
// Close must be called to terminate the browser process.
func NewBrowserFetcher(opts ...BrowserOption) (*BrowserFetcher, error) {
	b := &BrowserFetcher{
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	if b.bin != "" {
		l = l.Bin(b.bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.browser = browser
	b.launcher = l
	return b, nil
}

// Fetch implements Fetcher.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to open tab: %w", err)}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			b.logger.Debug("failed to close tab", "url", url, "error", closeErr)
		}
	}()

	if b.stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			b.logger.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if len(b.headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(b.headers)}).Call(page); err != nil {
			return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to set headers: %w", err)}
		}
	}

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("navigation failed: %w", err)}
	}
	if err := p.WaitDOMStable(domStableWindow, 0.1); err != nil {
		b.logger.Debug("DOM did not settle, using current DOM", "url", url, "error", err)
	}

	status := 0
	if res, err := p.Eval(statusScript); err == nil {
		status = res.Value.Int()
	}
	if err := statusError(url, status); err != nil {
		return nil, err
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: status, Err: fmt.Errorf("failed to read rendered HTML: %w", err)}
	}
	if b.notFound != nil && b.notFound(html) {
		return nil, &FetchError{URL: url, StatusCode: status, Err: ErrNotFound}
	}

	finalURL := url
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Page{
		URL:        url,
		FinalURL:   finalURL,
		HTML:       html,
		StatusCode: status,
	}, nil
}

// Close terminates the browser.
func (b *BrowserFetcher) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
