package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	c := NewCollector()
	ctr := c.Counter("test_total")
	ctr.Inc()
	ctr.Add(4)
	if ctr.Value() != 5 {
		t.Fatalf("value = %d", ctr.Value())
	}
	// Same name returns the same counter.
	if c.Counter("test_total") != ctr {
		t.Fatal("counter not deduplicated")
	}
}

func TestCounterConcurrent(t *testing.T) {
	c := NewCollector()
	ctr := c.Counter("concurrent_total")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ctr.Inc()
			}
		}()
	}
	wg.Wait()
	if ctr.Value() != 1000 {
		t.Fatalf("value = %d", ctr.Value())
	}
}

func TestLatency(t *testing.T) {
	c := NewCollector()
	l := c.Latency("test_latency")
	l.Observe(10 * time.Millisecond)
	l.Observe(30 * time.Millisecond)

	count, avg, max := l.snapshot()
	if count != 2 || avg != 20*time.Millisecond || max != 30*time.Millisecond {
		t.Fatalf("count=%d avg=%s max=%s", count, avg, max)
	}
}

func TestSummary(t *testing.T) {
	c := NewCollector()
	c.Counter("b_total").Add(2)
	c.Counter("a_total").Inc()
	c.Latency("lat").Observe(time.Millisecond)

	out := c.Summary()
	for _, want := range []string{"uptime:", "a_total: 1", "b_total: 2", "lat: count=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	// Counters come out sorted.
	if strings.Index(out, "a_total") > strings.Index(out, "b_total") {
		t.Error("counters not sorted")
	}
}
