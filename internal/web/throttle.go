package web

import (
	"context"
	"sync"
	"time"

	"scout/internal/domain"
)

// Throttle enforces a minimum interval between operations. Wait blocks the
// caller until the interval since the previous operation has elapsed.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Wait blocks until the minimum interval has passed since the last call, or
// returns early with ctx.Err() when the context is cancelled. Concurrent
// callers serialize: each one pushes the next slot further out.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	next := t.last.Add(t.interval)
	if next.Before(now) {
		next = now
	}
	t.last = next
	t.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ThrottledSearcher wraps a Searcher behind one minimum-interval gate. Every
// path that issues searches must share a single instance, so a direct tool
// call cannot sidestep the spacing the pipeline observes.
type ThrottledSearcher struct {
	inner    domain.Searcher
	throttle *Throttle
}

func NewThrottledSearcher(inner domain.Searcher, interval time.Duration) *ThrottledSearcher {
	return &ThrottledSearcher{inner: inner, throttle: NewThrottle(interval)}
}

func (ts *ThrottledSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if err := ts.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return ts.inner.Search(ctx, query, maxResults)
}
