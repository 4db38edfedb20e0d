package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Default selectors and text.
const (
	DefaultTitleSelector    = "header h1"
	DefaultNotFoundSelector = "h2"
	DefaultNotFoundText     = "Page not found"
)

// linkSelector matches anchors that carry an href attribute.
var linkSelector = cascadia.MustCompile("a[href]")

// ErrInvalidSelector is returned when a configured CSS selector does not parse.
var ErrInvalidSelector = errors.New("invalid CSS selector")

// Link is an anchor found on a page.
type Link struct {
	// Href is the raw href attribute value, unresolved.
	Href string

	// Text is the anchor's visible text, whitespace trimmed.
	Text string
}

// Document is a parsed page.
type Document struct {
	doc *goquery.Document
}

// Extractor pulls titles, links and not-found markers out of HTML.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	titleSelector    string
	notFoundSelector string
	notFoundText     string

	title    cascadia.Selector
	notFound cascadia.Selector
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTitleSelector sets the CSS selector whose first match is the page title.
func WithTitleSelector(selector string) Option {
	return func(e *Extractor) {
		if selector != "" {
			e.titleSelector = selector
		}
	}
}

// WithNotFoundSelector sets the CSS selector inspected for the not-found text.
func WithNotFoundSelector(selector string) Option {
	return func(e *Extractor) {
		if selector != "" {
			e.notFoundSelector = selector
		}
	}
}

// WithNotFoundText sets the text that marks a not-found page.
// An empty string disables not-found detection.
func WithNotFoundText(text string) Option {
	return func(e *Extractor) {
		e.notFoundText = text
	}
}

// New creates an Extractor. Selectors are compiled once here so that a bad
// configuration fails before any page is fetched.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		titleSelector:    DefaultTitleSelector,
		notFoundSelector: DefaultNotFoundSelector,
		notFoundText:     DefaultNotFoundText,
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.title, err = cascadia.Compile(e.titleSelector); err != nil {
		return nil, fmt.Errorf("%w: title selector %q: %v", ErrInvalidSelector, e.titleSelector, err)
	}
	if e.notFound, err = cascadia.Compile(e.notFoundSelector); err != nil {
		return nil, fmt.Errorf("%w: not-found selector %q: %v", ErrInvalidSelector, e.notFoundSelector, err)
	}
	return e, nil
}

// TitleSelector returns the configured title selector.
func (e *Extractor) TitleSelector() string {
	return e.titleSelector
}

// Parse parses rendered HTML into a Document.
func (e *Extractor) Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Title returns the trimmed text of the first element matching the title
// selector, or "" when nothing matches.
func (e *Extractor) Title(d *Document) string {
	if d == nil {
		return ""
	}
	return strings.TrimSpace(d.doc.FindMatcher(e.title).First().Text())
}

// Links returns every anchor with a non-empty href and non-empty visible
// text, in document order. Hrefs are returned unresolved.
func (e *Extractor) Links(d *Document) []Link {
	if d == nil {
		return nil
	}
	var links []Link
	d.doc.FindMatcher(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		text := strings.TrimSpace(s.Text())
		if href == "" || text == "" {
			return
		}
		links = append(links, Link{Href: href, Text: text})
	})
	return links
}

// IsNotFound reports whether src renders the site's not-found page:
// some element matching the not-found selector contains the not-found text.
func (e *Extractor) IsNotFound(src string) bool {
	if e.notFoundText == "" {
		return false
	}
	d, err := e.Parse(src)
	if err != nil {
		return false
	}
	return e.IsNotFoundDocument(d)
}

// IsNotFoundDocument is IsNotFound for an already parsed page.
func (e *Extractor) IsNotFoundDocument(d *Document) bool {
	if d == nil || e.notFoundText == "" {
		return false
	}
	found := false
	d.doc.FindMatcher(e.notFound).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(s.Text(), e.notFoundText) {
			found = true
		}
		return !found
	})
	return found
}
