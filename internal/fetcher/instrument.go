package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/nao1215/docdrift/internal/metrics"
)

// Instrumented records the outcome and duration of every fetch.
type Instrumented struct {
	next     Fetcher
	recorder *metrics.Recorder
}

// NewInstrumented wraps next. A nil recorder makes it a pass-through.
func NewInstrumented(next Fetcher, recorder *metrics.Recorder) *Instrumented {
	return &Instrumented{next: next, recorder: recorder}
}

// Fetch implements Fetcher.
func (i *Instrumented) Fetch(ctx context.Context, url string) (*Page, error) {
	start := time.Now()
	page, err := i.next.Fetch(ctx, url)
	i.recorder.ObserveFetch(Outcome(err), time.Since(start))
	return page, err
}

// Outcome classifies a fetch error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
