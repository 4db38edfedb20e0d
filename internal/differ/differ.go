package differ

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docdrift/internal/extractor"
	"github.com/nao1215/docdrift/internal/fetcher"
	"github.com/nao1215/docdrift/internal/metrics"
	"github.com/nao1215/docdrift/internal/model"
	"github.com/nao1215/docdrift/internal/traverse"
)

// Differ compares snapshots with the live site.
type Differ struct {
	fetcher     fetcher.Fetcher
	extractor   *extractor.Extractor
	logger      *slog.Logger
	metrics     *metrics.Recorder
	concurrency int
}

// Option configures a Differ.
type Option func(*Differ)

// WithLogger sets the logger for diff events.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Differ) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Differ) {
		d.metrics = r
	}
}

// WithConcurrency sets how many pages are checked at once. Values below
// one are treated as one.
func WithConcurrency(n int) Option {
	return func(d *Differ) {
		d.concurrency = max(n, 1)
	}
}

// NewDiffer creates a Differ.
func NewDiffer(f fetcher.Fetcher, ext *extractor.Extractor, opts ...Option) *Differ {
	d := &Differ{
		fetcher:     f,
		extractor:   ext,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// collector accumulates a DiffResult from concurrent checks.
type collector struct {
	mu     sync.Mutex
	result *model.DiffResult
}

func (c *collector) checked() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.PagesChecked++
}

func (c *collector) missing(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.MissingPages.Add(url)
}

func (c *collector) retitled(url, recorded, live string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.RetitledPages.Add(url)
	c.result.TitleChanges[url] = model.TitleChange{Recorded: recorded, Live: live}
}

// Diff checks every node of snapshot against baseURL.
//
// Node URLs are joined onto baseURL with model.JoinURL, so a snapshot taken
// from one host can be checked against another (production against
// staging). If ctx is cancelled the partial result is returned with
// ctx.Err().
func (d *Differ) Diff(ctx context.Context, snapshot *model.SiteNode, baseURL string) (*model.DiffResult, error) {
	if snapshot == nil {
		return nil, ErrNilSnapshot
	}
	if _, err := model.NormalizeURL(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &collector{result: model.NewDiffResult()}
	d.logger.Info("diff started", "base_url", baseURL, "pages", snapshot.Count(), "concurrency", d.concurrency)

	var err error
	if d.concurrency > 1 {
		err = d.diffConcurrent(ctx, snapshot, baseURL, c)
	} else {
		err = d.diffSequential(ctx, snapshot, baseURL, c)
	}
	if err != nil {
		return c.result, err
	}

	d.logger.Info("diff finished",
		"base_url", baseURL,
		"pages_checked", c.result.PagesChecked,
		"missing", c.result.MissingPages.Len(),
		"retitled", c.result.RetitledPages.Len(),
	)
	return c.result, nil
}

func (d *Differ) diffSequential(ctx context.Context, root *model.SiteNode, baseURL string, c *collector) error {
	stack := traverse.NewStack[*model.SiteNode]()
	stack.Push(root)
	for {
		node, ok := stack.Pop()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		stack.Push(node.Children...)

		if err := d.check(ctx, node, baseURL, c); err != nil {
			return err
		}
	}
}

func (d *Differ) diffConcurrent(ctx context.Context, root *model.SiteNode, baseURL string, c *collector) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	stack := traverse.NewStack[*model.SiteNode]()
	stack.Push(root)
	for {
		node, ok := stack.Pop()
		if !ok {
			break
		}
		if gctx.Err() != nil {
			break
		}
		stack.Push(node.Children...)

		g.Go(func() error {
			return d.check(gctx, node, baseURL, c)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// check fetches one node and records its status. It returns an error only
// when ctx is done.
func (d *Differ) check(ctx context.Context, node *model.SiteNode, baseURL string, c *collector) error {
	url, err := model.JoinURL(baseURL, node.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	d.logger.Debug("checking page", "url", url, "depth", node.Depth)

	page, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		d.logger.Warn("page missing", "url", url, "outcome", fetcher.Outcome(err), "error", err)
		c.checked()
		c.missing(url)
		d.metrics.DiffPage(metrics.DiffMissing)
		return nil
	}

	doc, err := d.extractor.Parse(page.HTML)
	if err != nil {
		d.logger.Warn("page missing", "url", url, "error", err)
		c.checked()
		c.missing(url)
		d.metrics.DiffPage(metrics.DiffMissing)
		return nil
	}

	c.checked()
	live := d.extractor.Title(doc)
	if live != node.Title {
		d.logger.Info("page retitled", "url", url, "recorded", node.Title, "live", live)
		c.retitled(url, node.Title, live)
		d.metrics.DiffPage(metrics.DiffRetitled)
		return nil
	}
	d.metrics.DiffPage(metrics.DiffUnchanged)
	return nil
}
