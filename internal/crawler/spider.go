package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/nao1215/docdrift/internal/extractor"
	"github.com/nao1215/docdrift/internal/fetcher"
	"github.com/nao1215/docdrift/internal/metrics"
	"github.com/nao1215/docdrift/internal/model"
	"github.com/nao1215/docdrift/internal/traverse"
)

// DefaultMaxDepth is the depth limit used when none is configured.
const DefaultMaxDepth = 5

// Spider crawls a documentation site into a model.SiteNode tree.
//
// A Spider may run several crawls one after another; each Crawl starts with
// fresh visited state and statistics.
type Spider struct {
	fetcher   fetcher.Fetcher
	extractor *extractor.Extractor
	logger    *slog.Logger
	metrics   *metrics.Recorder

	// maxDepth is the deepest level that is fetched. Links found at this
	// level are recorded but not followed.
	maxDepth int

	// maxPages caps the number of fetches. 0 means unlimited.
	maxPages int

	ignorePatterns []string
	followPatterns []string

	mu    sync.Mutex
	stats SpiderStats
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesFetched is the number of pages fetched and parsed.
	PagesFetched int

	// PagesFailed is the number of pages whose fetch failed or that
	// rendered the not-found page.
	PagesFailed int

	// URLsDiscovered is the number of distinct URLs added to the tree,
	// the seed included.
	URLsDiscovered int

	// LinksSkipped is the number of anchors that did not become children.
	LinksSkipped int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 fetches only the seed, 1 the seed and the pages it links to, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages stops the crawl after the given number of fetches.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithLogger sets the logger for crawl events.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) SpiderOption {
	return func(s *Spider) {
		s.metrics = r
	}
}

// WithIgnorePatterns sets URL path patterns that are never followed.
// Patterns use glob syntax ("/changelog/*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts the crawl to URL paths matching at least
// one pattern. Empty means every path is allowed.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// NewSpider creates a Spider that fetches with f and reads pages with ext.
func NewSpider(f fetcher.Fetcher, ext *extractor.Extractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:   f,
		extractor: ext,
		logger:    slog.Default(),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// crawlState is the per-crawl traversal state.
type crawlState struct {
	origin   string
	visited  *model.VisitedSet
	frontier *traverse.Queue[*model.SiteNode]
}

// Crawl traverses the site reachable from seedURL and returns its tree.
//
// Individual page failures never abort the crawl. If ctx is cancelled the
// tree built so far is returned together with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.SiteNode, error) {
	seed, err := model.NormalizeURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeedURL, seedURL)
	}

	s.mu.Lock()
	s.stats = SpiderStats{URLsDiscovered: 1}
	s.mu.Unlock()

	root := model.NewSiteNode(seed, 0)
	state := &crawlState{
		origin:   seed,
		visited:  model.NewVisitedSet(),
		frontier: traverse.NewQueue[*model.SiteNode](),
	}
	state.visited.TryAdd(seed)
	state.frontier.Push(root)

	s.logger.Info("crawl started", "seed", seed, "max_depth", s.maxDepth)

	for !state.frontier.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return root, err
		}
		if s.maxPages > 0 && s.fetchCount() >= s.maxPages {
			s.logger.Info("page limit reached", "max_pages", s.maxPages, "pending", state.frontier.Len())
			break
		}

		node, _ := state.frontier.Pop()
		s.metrics.SetFrontierSize(state.frontier.Len())

		if node.Depth > s.maxDepth {
			s.metrics.CrawlPage(metrics.CrawlSkipped)
			continue
		}

		if err := s.visit(ctx, node, state); err != nil {
			return root, err
		}
	}

	stats := s.Stats()
	s.logger.Info("crawl finished",
		"seed", seed,
		"pages_fetched", stats.PagesFetched,
		"pages_failed", stats.PagesFailed,
		"urls_discovered", stats.URLsDiscovered,
	)
	return root, nil
}

// visit fetches node, sets its title and appends its unvisited links as
// children. Only context cancellation is returned as an error.
func (s *Spider) visit(ctx context.Context, node *model.SiteNode, state *crawlState) error {
	s.logger.Debug("crawling page", "url", node.URL, "depth", node.Depth)

	page, err := s.fetcher.Fetch(ctx, node.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.fail(node, err)
		return nil
	}

	doc, err := s.extractor.Parse(page.HTML)
	if err != nil {
		s.fail(node, err)
		return nil
	}

	node.Title = s.extractor.Title(doc)
	s.update(func(st *SpiderStats) { st.PagesFetched++ })
	s.metrics.CrawlPage(metrics.CrawlFetched)

	base, err := url.Parse(pageBase(page, node))
	if err != nil {
		s.logger.Warn("skipping links of page with malformed final url",
			"url", node.URL,
			"final_url", page.FinalURL,
			"error", err,
		)
		return nil
	}

	for _, link := range s.extractor.Links(doc) {
		target, verdict := s.classifyLink(base, state.origin, link)
		if verdict == linkMalformed {
			s.logger.Warn("skipping malformed link", "href", link.Href, "page", node.URL)
		}
		if verdict == linkAccepted && !state.visited.TryAdd(target) {
			verdict = linkVisited
		}
		if verdict != linkAccepted {
			s.update(func(st *SpiderStats) { st.LinksSkipped++ })
			continue
		}

		child := node.AddChild(target)
		state.frontier.Push(child)
		s.update(func(st *SpiderStats) { st.URLsDiscovered++ })
	}
	s.metrics.SetFrontierSize(state.frontier.Len())
	return nil
}

// pageBase is the URL relative links on page resolve against: the final
// URL after redirects when the fetcher reports one.
func pageBase(page *fetcher.Page, node *model.SiteNode) string {
	if page.FinalURL != "" {
		return page.FinalURL
	}
	return node.URL
}

func (s *Spider) fail(node *model.SiteNode, err error) {
	s.logger.Warn("page fetch failed",
		"url", node.URL,
		"depth", node.Depth,
		"outcome", fetcher.Outcome(err),
		"error", err,
	)
	s.update(func(st *SpiderStats) { st.PagesFailed++ })
	s.metrics.CrawlPage(metrics.CrawlFailed)
}

func (s *Spider) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.PagesFetched + s.stats.PagesFailed
}

func (s *Spider) update(fn func(*SpiderStats)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.stats)
}

// Stats returns the statistics of the current or most recent crawl.
func (s *Spider) Stats() SpiderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
