// Package metrics keeps lightweight in-process counters for the session
// status report, without pulling in a metrics client dependency.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector is the process-wide collector.
var Collector = NewCollector()

type MetricsCollector struct {
	counters  sync.Map // name -> *Counter
	latencies sync.Map // name -> *Latency
	startTime time.Time
}

func NewCollector() *MetricsCollector {
	return &MetricsCollector{startTime: time.Now()}
}

func (c *MetricsCollector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Add(n int64)  { c.value.Add(n) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Latency tracks count, total, and max of observed durations.
type Latency struct {
	name  string
	mu    sync.Mutex
	count int64
	sum   time.Duration
	max   time.Duration
}

func (l *Latency) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count++
	l.sum += d
	if d > l.max {
		l.max = d
	}
}

func (l *Latency) snapshot() (count int64, avg, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count > 0 {
		avg = l.sum / time.Duration(l.count)
	}
	return l.count, avg, l.max
}

// Counter returns or creates a counter with the given name.
func (c *MetricsCollector) Counter(name string) *Counter {
	if v, ok := c.counters.Load(name); ok {
		return v.(*Counter)
	}
	actual, _ := c.counters.LoadOrStore(name, &Counter{name: name})
	return actual.(*Counter)
}

// Latency returns or creates a latency tracker with the given name.
func (c *MetricsCollector) Latency(name string) *Latency {
	if v, ok := c.latencies.Load(name); ok {
		return v.(*Latency)
	}
	actual, _ := c.latencies.LoadOrStore(name, &Latency{name: name})
	return actual.(*Latency)
}

// Summary renders all metrics as readable text, names sorted.
func (c *MetricsCollector) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "uptime: %s\n", c.Uptime().Round(time.Second))

	var names []string
	c.counters.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(&sb, "%s: %d\n", n, c.Counter(n).Value())
	}

	names = names[:0]
	c.latencies.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	for _, n := range names {
		count, avg, max := c.Latency(n).snapshot()
		fmt.Fprintf(&sb, "%s: count=%d avg=%s max=%s\n",
			n, count, avg.Round(time.Millisecond), max.Round(time.Millisecond))
	}
	return sb.String()
}

// Pre-defined metrics used across the application.
var (
	MessagesTotal     = Collector.Counter("scout_messages_total")
	ProviderRequests  = Collector.Counter("scout_provider_requests_total")
	ProviderFallbacks = Collector.Counter("scout_provider_fallbacks_total")
	ToolExecutions    = Collector.Counter("scout_tool_executions_total")
	FactsStored       = Collector.Counter("scout_facts_stored_total")

	ProviderLatency = Collector.Latency("scout_provider_latency")
	ToolLatency     = Collector.Latency("scout_tool_latency")
)
