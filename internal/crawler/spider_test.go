package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/nao1215/docdrift/internal/extractor"
	"github.com/nao1215/docdrift/internal/fetcher"
	"github.com/nao1215/docdrift/internal/fetcher/fetchertest"
	dlog "github.com/nao1215/docdrift/internal/log"
	"github.com/nao1215/docdrift/internal/model"
)

const origin = "https://docs.example"

func newTestSpider(t *testing.T, site fetcher.Fetcher, opts ...SpiderOption) (*Spider, *dlog.Recorder) {
	t.Helper()

	ext, err := extractor.New()
	if err != nil {
		t.Fatal(err)
	}
	rec := dlog.NewRecorder()
	opts = append([]SpiderOption{WithLogger(rec.Logger())}, opts...)
	return NewSpider(site, ext, opts...), rec
}

func childURLs(n *model.SiteNode) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.URL)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSpider_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("builds tree with titles and depths", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/guide", "Guide", "/api", "API")).
			Page(origin+"/guide", fetchertest.DocPage("Guide", "/guide/install", "Install")).
			Page(origin+"/api", fetchertest.DocPage("API Reference")).
			Page(origin+"/guide/install", fetchertest.DocPage("Installation"))

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatalf("Crawl() error: %v", err)
		}

		if root.URL != origin+"/" || root.Title != "Home" || root.Depth != 0 {
			t.Errorf("unexpected root %+v", root)
		}
		if got := childURLs(root); !equalStrings(got, []string{origin + "/guide", origin + "/api"}) {
			t.Errorf("root children = %v", got)
		}
		guide := root.Children[0]
		if guide.Title != "Guide" || guide.Depth != 1 {
			t.Errorf("unexpected guide node %+v", guide)
		}
		install := guide.Children[0]
		if install.Title != "Installation" || install.Depth != 2 || len(install.Children) != 0 {
			t.Errorf("unexpected install node %+v", install)
		}
		if root.Children[1].Title != "API Reference" {
			t.Errorf("api title = %q", root.Children[1].Title)
		}

		stats := spider.Stats()
		if stats.PagesFetched != 4 || stats.PagesFailed != 0 || stats.URLsDiscovered != 4 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("three page site with back link and external link", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/guide", "Guide", "/api", "API")).
			Page(origin+"/guide", fetchertest.DocPage("Guide", "/", "Home", "https://external.example/blog", "Blog")).
			Page(origin+"/api", fetchertest.DocPage("API"))

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin+"/")
		if err != nil {
			t.Fatal(err)
		}

		want := model.NewSiteNode(origin+"/", 0)
		want.Title = "Home"
		want.AddChild(origin + "/guide").Title = "Guide"
		want.AddChild(origin + "/api").Title = "API"
		if !root.Equal(want) {
			t.Errorf("unexpected tree: got %+v", root)
		}
		for _, c := range root.Children {
			if c.Depth != 1 || len(c.Children) != 0 {
				t.Errorf("%s: depth %d with %d children", c.URL, c.Depth, len(c.Children))
			}
		}
		if got := len(site.Requests()); got != 3 {
			t.Errorf("fetched %d pages, want 3: %v", got, site.Requests())
		}
		if n := site.Count("https://external.example/blog"); n != 0 {
			t.Errorf("external link fetched %d times", n)
		}
	})

	t.Run("terminates on cycles and visits each url once", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("A", "/b", "B")).
			Page(origin+"/b", fetchertest.DocPage("B", "/c", "C", "/", "Home")).
			Page(origin+"/c", fetchertest.DocPage("C", "/", "Home", "/b", "B"))

		spider, _ := newTestSpider(t, site, WithMaxDepth(10))
		root, err := spider.Crawl(context.Background(), origin+"/")
		if err != nil {
			t.Fatal(err)
		}

		if root.Count() != 3 {
			t.Errorf("tree has %d nodes, want 3", root.Count())
		}
		for _, u := range []string{origin + "/", origin + "/b", origin + "/c"} {
			if n := site.Count(u); n != 1 {
				t.Errorf("%s fetched %d times", u, n)
			}
		}
	})

	t.Run("depth bound on a chain", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite()
		for i := range 10 {
			next := fmt.Sprintf("/p%d", i+1)
			u := fmt.Sprintf("%s/p%d", origin, i)
			if i == 0 {
				u = origin + "/"
			}
			site.Page(u, fetchertest.DocPage(fmt.Sprintf("Page %d", i), next, "Next"))
		}

		spider, _ := newTestSpider(t, site, WithMaxDepth(3))
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}

		if got := len(site.Requests()); got != 4 {
			t.Errorf("fetched %d pages, want 4: %v", got, site.Requests())
		}
		if got := root.MaxDepth(); got != 4 {
			t.Errorf("MaxDepth() = %d, want 4", got)
		}
		leaf := root
		for len(leaf.Children) > 0 {
			leaf = leaf.Children[0]
		}
		if leaf.URL != origin+"/p4" || leaf.Title != "" {
			t.Errorf("unexpected leaf %+v", leaf)
		}
	})

	t.Run("depth zero fetches only the seed", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/a", "A"))

		spider, _ := newTestSpider(t, site, WithMaxDepth(0))
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}
		if len(site.Requests()) != 1 {
			t.Errorf("requests = %v", site.Requests())
		}
		if len(root.Children) != 1 || root.Children[0].Title != "" {
			t.Errorf("expected one untitled leaf child, got %+v", root.Children)
		}
	})

	t.Run("same origin filter", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home",
				"/internal", "Internal",
				"https://other.example/x", "Other",
				"https://docs.example/absolute", "Absolute",
				"http://docs.example/insecure", "Insecure",
				"ftp://docs.example/file", "FTP",
			)).
			Page(origin+"/internal", fetchertest.DocPage("Internal")).
			Page(origin+"/absolute", fetchertest.DocPage("Absolute"))

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}

		want := []string{origin + "/internal", origin + "/absolute"}
		if got := childURLs(root); !equalStrings(got, want) {
			t.Errorf("children = %v, want %v", got, want)
		}
		for _, r := range site.Requests() {
			if r == "https://other.example/x" {
				t.Error("off-origin url was fetched")
			}
		}
	})

	t.Run("link exclusions", func(t *testing.T) {
		t.Parallel()

		page := `<html><body><header><h1>Home</h1></header>
			<a href="#section">Anchor</a>
			<a href="mailto:docs@example.com">Mail</a>
			<a href="tel:+100">Call</a>
			<a href="javascript:void(0)">Script</a>
			<a href="data:text/plain,hi">Data</a>
			<a href="/no-text"></a>
			<a href="/image"><img src="/i.png"></a>
			<a href="">Empty</a>
			<a href="/kept#frag">Kept</a>
			<a href="/kept">Kept again</a>
		</body></html>`
		site := fetchertest.NewSite().
			Page(origin+"/", page).
			Page(origin+"/kept", fetchertest.DocPage("Kept"))

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}

		if got := childURLs(root); !equalStrings(got, []string{origin + "/kept"}) {
			t.Errorf("children = %v", got)
		}
		if spider.Stats().LinksSkipped != 6 {
			// extractor drops empty href/text anchors; the rest are skipped here
			t.Errorf("LinksSkipped = %d, want 6", spider.Stats().LinksSkipped)
		}
	})

	t.Run("malformed link is skipped with a warning", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/bad%zz", "Bad", "/good", "Good")).
			Page(origin+"/good", fetchertest.DocPage("Good"))

		spider, rec := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}
		if got := childURLs(root); !equalStrings(got, []string{origin + "/good"}) {
			t.Errorf("children = %v", got)
		}
		if rec.Count(slog.LevelWarn, "skipping malformed link") != 1 {
			t.Error("expected malformed link warning")
		}
	})

	t.Run("malformed final url keeps the page and warns", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/a", "A")).
			Page(origin+"/a", fetchertest.DocPage("A"))
		f := &finalURLFetcher{Fetcher: site, finalURL: "http://[docs.example"}

		spider, rec := newTestSpider(t, f)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}
		if root.Title != "Home" || len(root.Children) != 0 {
			t.Errorf("unexpected root %+v", root)
		}
		warnings := rec.Find("skipping links of page with malformed final url")
		if len(warnings) != 1 {
			t.Fatalf("got %d warnings, want 1", len(warnings))
		}
		if got := warnings[0].Attrs["url"].String(); got != origin+"/" {
			t.Errorf("warning url = %q", got)
		}
	})

	t.Run("failed page keeps empty title and no children", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/down", "Down", "/gone", "Gone", "/ok", "OK")).
			Fail(origin+"/down", fetchertest.ErrUnreachable).
			Page(origin+"/ok", fetchertest.DocPage("OK"))

		spider, rec := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}

		if len(root.Children) != 3 {
			t.Fatalf("children = %v", childURLs(root))
		}
		for _, c := range root.Children[:2] {
			if c.Title != "" || len(c.Children) != 0 {
				t.Errorf("failed node %s has title %q", c.URL, c.Title)
			}
		}
		if root.Children[2].Title != "OK" {
			t.Error("crawl did not continue after failures")
		}
		if got := rec.Count(slog.LevelWarn, "page fetch failed"); got != 2 {
			t.Errorf("page fetch failed logged %d times, want 2", got)
		}
		if spider.Stats().PagesFailed != 2 {
			t.Errorf("PagesFailed = %d", spider.Stats().PagesFailed)
		}
	})

	t.Run("first discoverer wins", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/a", "A", "/b", "B")).
			Page(origin+"/a", fetchertest.DocPage("A", "/shared", "Shared")).
			Page(origin+"/b", fetchertest.DocPage("B", "/shared", "Shared")).
			Page(origin+"/shared", fetchertest.DocPage("Shared"))

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}
		if got := childURLs(root.Children[0]); !equalStrings(got, []string{origin + "/shared"}) {
			t.Errorf("/a children = %v", got)
		}
		if len(root.Children[1].Children) != 0 {
			t.Errorf("/b should have no children, got %v", childURLs(root.Children[1]))
		}
	})

	t.Run("max pages", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home", "/a", "A", "/b", "B", "/c", "C")).
			Page(origin+"/a", fetchertest.DocPage("A")).
			Page(origin+"/b", fetchertest.DocPage("B")).
			Page(origin+"/c", fetchertest.DocPage("C"))

		spider, _ := newTestSpider(t, site, WithMaxPages(2))
		if _, err := spider.Crawl(context.Background(), origin); err != nil {
			t.Fatal(err)
		}
		if got := len(site.Requests()); got != 2 {
			t.Errorf("fetched %d pages, want 2", got)
		}
	})

	t.Run("ignore and follow patterns", func(t *testing.T) {
		t.Parallel()

		site := fetchertest.NewSite().
			Page(origin+"/", fetchertest.DocPage("Home",
				"/guide/intro", "Intro",
				"/guide/old/legacy", "Legacy",
				"/blog/post", "Post",
				"/guide/manual.pdf", "PDF",
			)).
			Page(origin+"/guide/intro", fetchertest.DocPage("Intro"))

		spider, _ := newTestSpider(t, site,
			WithFollowPatterns([]string{"/guide/*"}),
			WithIgnorePatterns([]string{"/guide/old/*", "*.pdf"}),
		)
		root, err := spider.Crawl(context.Background(), origin)
		if err != nil {
			t.Fatal(err)
		}
		if got := childURLs(root); !equalStrings(got, []string{origin + "/guide/intro"}) {
			t.Errorf("children = %v", got)
		}
	})

	t.Run("cancelled context returns partial tree", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		site := &cancellingFetcher{
			inner:    fetchertest.NewSite().Page(origin+"/", fetchertest.DocPage("Home", "/a", "A")),
			cancelAt: origin + "/a",
			cancel:   cancel,
		}

		spider, _ := newTestSpider(t, site)
		root, err := spider.Crawl(ctx, origin)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if root == nil || root.Title != "Home" || len(root.Children) != 1 {
			t.Errorf("unexpected partial tree %+v", root)
		}
		if spider.Stats().PagesFailed != 0 {
			t.Error("cancellation must not count as a page failure")
		}
	})

	t.Run("invalid seed", func(t *testing.T) {
		t.Parallel()

		spider, _ := newTestSpider(t, fetchertest.NewSite())
		for _, seed := range []string{"", "docs.example", "ftp://docs.example/", "/guide"} {
			if _, err := spider.Crawl(context.Background(), seed); !errors.Is(err, ErrInvalidSeedURL) {
				t.Errorf("Crawl(%q) error = %v, want ErrInvalidSeedURL", seed, err)
			}
		}
	})
}

// cancellingFetcher cancels the crawl when a given URL is requested.
type cancellingFetcher struct {
	inner    *fetchertest.Site
	cancelAt string
	cancel   context.CancelFunc
}

func (c *cancellingFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	if url == c.cancelAt {
		c.cancel()
		return nil, ctx.Err()
	}
	return c.inner.Fetch(ctx, url)
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{pattern: "/guide/*", path: "/guide", want: true},
		{pattern: "/guide/*", path: "/guide/a/b", want: true},
		{pattern: "/guide/*", path: "/guides", want: false},
		{pattern: "*.pdf", path: "/files/manual.pdf", want: true},
		{pattern: "*.pdf", path: "/files/manual.html", want: false},
		{pattern: "/api/v?", path: "/api/v2", want: true},
		{pattern: "changelog*", path: "/release/changelog-2024", want: true},
		{pattern: "/exact", path: "/exact", want: true},
		{pattern: "[", path: "/x", want: false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

// finalURLFetcher reports a fixed FinalURL for every page it serves.
type finalURLFetcher struct {
	fetcher.Fetcher
	finalURL string
}

func (f *finalURLFetcher) Fetch(ctx context.Context, url string) (*fetcher.Page, error) {
	page, err := f.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	page.FinalURL = f.finalURL
	return page, nil
}
