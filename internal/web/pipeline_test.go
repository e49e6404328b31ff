package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"scout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSearcher implements domain.Searcher.
type fakeSearcher struct {
	results []domain.SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

// fakeFetcher implements domain.Fetcher and tracks concurrency high-water mark.
type fakeFetcher struct {
	mu       sync.Mutex
	fail     map[string]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (f *fakeFetcher) FetchExtract(ctx context.Context, url string, maxChars int) domain.FetchedPage {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	failed := f.fail[url]
	f.mu.Unlock()
	if failed {
		return domain.FetchedPage{URL: url}
	}
	return domain.FetchedPage{
		URL:     url,
		Title:   "Title for " + url,
		Content: Truncate("content of "+url, maxChars),
		Success: true,
	}
}

func nResults(n int) []domain.SearchResult {
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{
			Title:   fmt.Sprintf("Result %d", i+1),
			URL:     fmt.Sprintf("https://example.com/%d", i+1),
			Snippet: fmt.Sprintf("snippet %d", i+1),
		}
	}
	return out
}

func newTestPipeline(s domain.Searcher, f domain.Fetcher, num int) *Pipeline {
	return NewPipeline(PipelineConfig{
		Searcher:    s,
		Fetcher:     f,
		NumResults:  num,
		MaxChars:    1000,
		Concurrency: 3,
		Logger:      testLogger(),
	})
}

// --- SearchAndRead ---

func TestPipeline_SearchAndRead(t *testing.T) {
	p := newTestPipeline(&fakeSearcher{results: nResults(3)}, &fakeFetcher{}, 3)

	res := p.SearchAndRead(context.Background(), "test query")
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.SearchResults) != 3 || len(res.Pages) != 3 {
		t.Fatalf("results=%d pages=%d", len(res.SearchResults), len(res.Pages))
	}
	if res.SourceCount() != 3 {
		t.Fatalf("SourceCount = %d", res.SourceCount())
	}
	// Pages keep search result order regardless of fetch completion order.
	for i, page := range res.Pages {
		if page.URL != res.SearchResults[i].URL {
			t.Errorf("page %d url = %q, want %q", i, page.URL, res.SearchResults[i].URL)
		}
	}
}

func TestPipeline_SearchError(t *testing.T) {
	p := newTestPipeline(&fakeSearcher{err: errors.New("network down")}, &fakeFetcher{}, 3)

	res := p.SearchAndRead(context.Background(), "q")
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(res.Err.Error(), "no valid search results") {
		t.Fatalf("error = %v", res.Err)
	}
}

func TestPipeline_EmptySearch(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := newTestPipeline(&fakeSearcher{}, fetcher, 3)

	res := p.SearchAndRead(context.Background(), "q")
	if !errors.Is(res.Err, domain.ErrNoSearchResults) {
		t.Fatalf("expected ErrNoSearchResults, got %v", res.Err)
	}
	if fetcher.calls.Load() != 0 {
		t.Fatalf("fetched %d pages with no search results", fetcher.calls.Load())
	}
}

func TestPipeline_PartialFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"https://example.com/2": true}}
	p := newTestPipeline(&fakeSearcher{results: nResults(3)}, fetcher, 3)

	res := p.SearchAndRead(context.Background(), "q")
	if res.Err != nil {
		t.Fatalf("fetch failures must not fail the run: %v", res.Err)
	}
	if res.SourceCount() != 2 {
		t.Fatalf("SourceCount = %d, want 2", res.SourceCount())
	}
	if res.Pages[1].Success {
		t.Fatal("failed page should keep its slot with Success=false")
	}
}

func TestPipeline_AllFetchesFailIsSoftEmpty(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{
		"https://example.com/1": true,
		"https://example.com/2": true,
	}}
	p := newTestPipeline(&fakeSearcher{results: nResults(2)}, fetcher, 3)

	res := p.SearchAndRead(context.Background(), "q")
	if res.Err != nil {
		t.Fatalf("zero readable pages is not a pipeline error: %v", res.Err)
	}
	if res.SourceCount() != 0 {
		t.Fatalf("SourceCount = %d", res.SourceCount())
	}
}

func TestPipeline_ConcurrencyBounded(t *testing.T) {
	fetcher := &fakeFetcher{delay: 30 * time.Millisecond}
	p := NewPipeline(PipelineConfig{
		Searcher:    &fakeSearcher{results: nResults(5)},
		Fetcher:     fetcher,
		NumResults:  5,
		Concurrency: 2,
		Logger:      testLogger(),
	})

	res := p.SearchAndRead(context.Background(), "q")
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if peak := fetcher.peak.Load(); peak > 2 {
		t.Fatalf("concurrency high-water mark = %d, want <= 2", peak)
	}
}

func TestPipeline_TruncatesResultCount(t *testing.T) {
	p := newTestPipeline(&fakeSearcher{results: nResults(5)}, &fakeFetcher{}, 2)

	res := p.SearchAndRead(context.Background(), "q")
	if len(res.SearchResults) != 2 || len(res.Pages) != 2 {
		t.Fatalf("results=%d pages=%d, want 2 each", len(res.SearchResults), len(res.Pages))
	}
}

// --- FormatWithCitations ---

func TestFormatWithCitations(t *testing.T) {
	p := newTestPipeline(&fakeSearcher{results: nResults(2)}, &fakeFetcher{}, 2)
	res := p.SearchAndRead(context.Background(), "golang news")

	out := FormatWithCitations(res)
	for _, want := range []string{
		"**Search Query:** golang news",
		"1. Result 1 — https://example.com/1",
		"### Source 1:",
		"### Source 2:",
		"**URL:** https://example.com/2",
		"---",
		"**Sources:**",
		"2. [Title for https://example.com/2](https://example.com/2)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// The consolidated source list follows the last page block.
	if strings.Index(out, "**Sources:**") < strings.Index(out, "### Source 2:") {
		t.Fatalf("source list must come after the page blocks:\n%s", out)
	}
}

func TestFormatWithCitations_SkipsFailedPages(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"https://example.com/1": true}}
	p := newTestPipeline(&fakeSearcher{results: nResults(2)}, fetcher, 2)
	res := p.SearchAndRead(context.Background(), "q")

	out := FormatWithCitations(res)
	// The surviving page is renumbered as Source 1.
	if !strings.Contains(out, "### Source 1:") {
		t.Fatalf("missing source block:\n%s", out)
	}
	if strings.Contains(out, "### Source 2:") {
		t.Fatalf("failed page should not get a source block:\n%s", out)
	}
	// The raw result list still shows both hits.
	if !strings.Contains(out, "2. Result 2") {
		t.Fatalf("result list incomplete:\n%s", out)
	}
	// The footer lists only the surviving page, renumbered.
	if !strings.Contains(out, "1. [Title for https://example.com/2](https://example.com/2)") {
		t.Fatalf("source footer wrong:\n%s", out)
	}
}

// --- Truncate ---

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Truncate(long, 10)
	if !strings.HasPrefix(got, strings.Repeat("a", 10)) || !strings.Contains(got, "[content truncated]") {
		t.Fatalf("got %q", got)
	}
	if Truncate("short", 10) != "short" {
		t.Fatal("short content must pass through unchanged")
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "héllo" — the cut at byte 2 would land inside the two-byte é.
	got := Truncate("héllo wörld", 2)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if !strings.HasPrefix(got, "h") || strings.HasPrefix(got, "h\xc3") {
		t.Fatalf("got %q", got)
	}
}
