package fetcher

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle delays every fetch of the wrapped Fetcher.
//
// Each call first sleeps for the fixed delay, then, when a request rate is
// configured, waits for a token from a shared limiter. The sleep keeps a
// polite floor between sequential requests; the limiter caps the aggregate
// rate when several goroutines fetch at once.
type Throttle struct {
	next    Fetcher
	delay   time.Duration
	limiter *rate.Limiter
}

// NewThrottle wraps next. rps <= 0 disables the limiter.
func NewThrottle(next Fetcher, delay time.Duration, rps float64) *Throttle {
	t := &Throttle{next: next, delay: delay}
	if rps > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return t
}

// Fetch implements Fetcher.
func (t *Throttle) Fetch(ctx context.Context, url string) (*Page, error) {
	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return t.next.Fetch(ctx, url)
}
