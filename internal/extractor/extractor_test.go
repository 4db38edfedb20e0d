package extractor

import (
	"errors"
	"testing"
)

const docsPage = `<!DOCTYPE html>
<html>
<head><title>Browser Title | Docs</title></head>
<body>
  <nav>
    <a href="/guide">  Guide </a>
    <a href="/api"><span>API</span> Reference</a>
    <a href="#top">Top</a>
    <a href="/icon"><img src="/icon.png"></a>
    <a href="">Empty</a>
    <a>No href</a>
  </nav>
  <header><h1>
    Getting Started
  </h1></header>
  <main><h1>Secondary</h1></main>
</body>
</html>`

const notFoundPage = `<html><body>
<header><h1>Docs</h1></header>
<h2>Oops</h2>
<h2>Page not found - try search</h2>
</body></html>`

func mustNew(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestExtractor_Title(t *testing.T) {
	t.Parallel()

	t.Run("uses header h1 by default", func(t *testing.T) {
		t.Parallel()

		e := mustNew(t)
		doc, err := e.Parse(docsPage)
		if err != nil {
			t.Fatal(err)
		}
		if got := e.Title(doc); got != "Getting Started" {
			t.Errorf("Title() = %q, want %q", got, "Getting Started")
		}
	})

	t.Run("custom selector", func(t *testing.T) {
		t.Parallel()

		e := mustNew(t, WithTitleSelector("title"))
		doc, err := e.Parse(docsPage)
		if err != nil {
			t.Fatal(err)
		}
		if got := e.Title(doc); got != "Browser Title | Docs" {
			t.Errorf("Title() = %q", got)
		}
	})

	t.Run("no match yields empty title", func(t *testing.T) {
		t.Parallel()

		e := mustNew(t)
		doc, err := e.Parse("<html><body><h1>Loose</h1></body></html>")
		if err != nil {
			t.Fatal(err)
		}
		if got := e.Title(doc); got != "" {
			t.Errorf("Title() = %q, want empty", got)
		}
	})
}

func TestExtractor_Links(t *testing.T) {
	t.Parallel()

	e := mustNew(t)
	doc, err := e.Parse(docsPage)
	if err != nil {
		t.Fatal(err)
	}

	links := e.Links(doc)
	want := []Link{
		{Href: "/guide", Text: "Guide"},
		{Href: "/api", Text: "API Reference"},
		{Href: "#top", Text: "Top"},
	}
	if len(links) != len(want) {
		t.Fatalf("Links() = %+v, want %+v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestExtractor_IsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		html string
		want bool
	}{
		{name: "matching h2", html: notFoundPage, want: true},
		{name: "regular page", html: docsPage, want: false},
		{name: "text outside selector", html: `<p>Page not found</p>`, want: false},
		{
			name: "custom selector and text",
			opts: []Option{WithNotFoundSelector("div.error"), WithNotFoundText("404")},
			html: `<div class="error">Error 404</div>`,
			want: true,
		},
		{name: "detection disabled", opts: []Option{WithNotFoundText("")}, html: notFoundPage, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := mustNew(t, tt.opts...)
			if got := e.IsNotFound(tt.html); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_InvalidSelector(t *testing.T) {
	t.Parallel()

	if _, err := New(WithTitleSelector("header >>> h1[")); !errors.Is(err, ErrInvalidSelector) {
		t.Errorf("expected ErrInvalidSelector, got %v", err)
	}
	if _, err := New(WithNotFoundSelector("h2[")); !errors.Is(err, ErrInvalidSelector) {
		t.Errorf("expected ErrInvalidSelector, got %v", err)
	}
}
