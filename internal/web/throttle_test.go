package web

import (
	"context"
	"testing"
	"time"
)

func TestThrottle_FirstCallImmediate(t *testing.T) {
	th := NewThrottle(time.Second)

	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("first call should not block, took %v", elapsed)
	}
}

func TestThrottle_EnforcesInterval(t *testing.T) {
	const interval = 80 * time.Millisecond
	th := NewThrottle(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Fatalf("three calls took %v, want >= %v", elapsed, 2*interval)
	}
}

func TestThrottle_CancelledContext(t *testing.T) {
	th := NewThrottle(time.Minute)
	if err := th.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := th.Wait(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("cancelled Wait should return promptly")
	}
}

func TestThrottle_ZeroIntervalNeverBlocks(t *testing.T) {
	th := NewThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("zero-interval throttle must not block")
	}
}

func TestThrottledSearcher_BackToBackSearchesSpaced(t *testing.T) {
	const interval = 60 * time.Millisecond
	ts := NewThrottledSearcher(&fakeSearcher{results: nResults(1)}, interval)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := ts.Search(context.Background(), "q", 1); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Fatalf("two searches took %v, want >= %v", elapsed, interval)
	}
}

func TestThrottledSearcher_GateSharedWithPipeline(t *testing.T) {
	const interval = 60 * time.Millisecond
	ts := NewThrottledSearcher(&fakeSearcher{results: nResults(1)}, interval)
	p := newTestPipeline(ts, &fakeFetcher{}, 1)

	// A direct search right after a pipeline run must still wait out the
	// interval; both paths go through the same gate.
	start := time.Now()
	if res := p.SearchAndRead(context.Background(), "q"); res.Err != nil {
		t.Fatal(res.Err)
	}
	if _, err := ts.Search(context.Background(), "q", 1); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < interval {
		t.Fatalf("pipeline run then direct search took %v, want >= %v", elapsed, interval)
	}
}

func TestThrottledSearcher_CancelledContext(t *testing.T) {
	ts := NewThrottledSearcher(&fakeSearcher{results: nResults(1)}, time.Minute)
	if _, err := ts.Search(context.Background(), "q", 1); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ts.Search(ctx, "q", 1); err == nil {
		t.Fatal("expected context error while gated")
	}
}
