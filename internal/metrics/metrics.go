// Package metrics exposes crawl and diff counters in Prometheus form.
//
// docdrift is a short-lived CLI, so there is no scrape endpoint. Metrics are
// collected in a private registry and written once at exit in the
// node-exporter textfile collector format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Crawl page results.
const (
	CrawlFetched = "fetched"
	CrawlFailed  = "failed"
	CrawlSkipped = "skipped"
)

// Diff page statuses.
const (
	DiffUnchanged = "unchanged"
	DiffMissing   = "missing"
	DiffRetitled  = "retitled"
)

// Recorder records docdrift metrics. A nil *Recorder discards everything,
// so engines can call it unconditionally.
type Recorder struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	frontierSize  prometheus.Gauge
	crawlPages    *prometheus.CounterVec
	diffPages     *prometheus.CounterVec
}

// NewRecorder creates a Recorder backed by its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docdrift_fetch_total",
				Help: "Total number of page fetches by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docdrift_fetch_duration_seconds",
				Help:    "Duration of page fetches.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		frontierSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docdrift_frontier_size",
				Help: "Current number of pages waiting in the crawl frontier.",
			},
		),
		crawlPages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docdrift_crawl_pages_total",
				Help: "Total number of crawl frontier entries by result.",
			},
			[]string{"result"},
		),
		diffPages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docdrift_diff_pages_total",
				Help: "Total number of snapshot pages checked by status.",
			},
			[]string{"status"},
		),
	}
}

// ObserveFetch records one fetch and how long it took.
func (r *Recorder) ObserveFetch(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchTotal.WithLabelValues(outcome).Inc()
	r.fetchDuration.Observe(d.Seconds())
}

// SetFrontierSize records the current frontier length.
func (r *Recorder) SetFrontierSize(n int) {
	if r == nil {
		return
	}
	r.frontierSize.Set(float64(n))
}

// CrawlPage counts a frontier entry by result.
func (r *Recorder) CrawlPage(result string) {
	if r == nil {
		return
	}
	r.crawlPages.WithLabelValues(result).Inc()
}

// DiffPage counts a checked snapshot page by status.
func (r *Recorder) DiffPage(status string) {
	if r == nil {
		return
	}
	r.diffPages.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The write is atomic: the file is replaced only once fully written.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
