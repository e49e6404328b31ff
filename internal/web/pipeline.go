package web

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"scout/internal/domain"
)

// Result is the outcome of one search-and-read run. Pages holds one entry
// per search result in result order; failed fetches keep their slot with
// Success=false. Err is set only when the search step itself produced
// nothing usable.
type Result struct {
	Query         string
	SearchResults []domain.SearchResult
	Pages         []domain.FetchedPage
	Err           error
	Elapsed       time.Duration
}

// SourceCount reports how many pages were fetched successfully.
func (r *Result) SourceCount() int {
	n := 0
	for _, p := range r.Pages {
		if p.Success {
			n++
		}
	}
	return n
}

// Pipeline runs the compound research operation: one search, then concurrent
// bounded fetches of the top results. Search rate limiting belongs to the
// Searcher itself (see ThrottledSearcher) so that all search paths share it.
type Pipeline struct {
	searcher    domain.Searcher
	fetcher     domain.Fetcher
	numResults  int
	maxChars    int
	concurrency int
	logger      *slog.Logger
}

type PipelineConfig struct {
	Searcher    domain.Searcher
	Fetcher     domain.Fetcher
	NumResults  int // pages to read per run (1-5)
	MaxChars    int // per-page content cap
	Concurrency int // simultaneous fetches (1-3)
	Logger      *slog.Logger
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.NumResults < 1 {
		cfg.NumResults = 3
	}
	if cfg.NumResults > 5 {
		cfg.NumResults = 5
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 5000
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 3
	}
	if cfg.Concurrency > 3 {
		cfg.Concurrency = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		searcher:    cfg.Searcher,
		fetcher:     cfg.Fetcher,
		numResults:  cfg.NumResults,
		maxChars:    cfg.MaxChars,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// SearchAndRead searches for query and reads the top results concurrently.
// A failed or empty search sets Result.Err; individual fetch failures only
// mark their page unsuccessful.
func (p *Pipeline) SearchAndRead(ctx context.Context, query string) Result {
	start := time.Now()
	res := Result{Query: query}

	results, err := p.searcher.Search(ctx, query, p.numResults)
	if err != nil {
		res.Err = fmt.Errorf("no valid search results: %w", err)
		res.Elapsed = time.Since(start)
		return res
	}
	if len(results) == 0 {
		res.Err = fmt.Errorf("no valid search results: %w", domain.ErrNoSearchResults)
		res.Elapsed = time.Since(start)
		return res
	}
	if len(results) > p.numResults {
		results = results[:p.numResults]
	}
	res.SearchResults = results

	p.logger.Info("reading sources", "query", query, "count", len(results))

	res.Pages = make([]domain.FetchedPage, len(results))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.concurrency)
	for i, r := range results {
		wg.Add(1)
		go func(idx int, target domain.SearchResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			page := p.fetcher.FetchExtract(ctx, target.URL, p.maxChars)
			if page.Title == "" {
				page.Title = target.Title
			}
			res.Pages[idx] = page
		}(i, r)
	}
	wg.Wait()

	res.Elapsed = time.Since(start)
	p.logger.Info("research complete",
		"query", query,
		"sources", res.SourceCount(),
		"elapsed", res.Elapsed,
	)
	return res
}

// FormatWithCitations renders a Result as a Markdown digest: the query, the
// raw result list, then one source block per successfully read page.
func FormatWithCitations(res Result) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "**Search Query:** %s\n\n", res.Query)

	sb.WriteString("**Results Found:**\n")
	for i, r := range res.SearchResults {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Snippet)
		}
	}
	sb.WriteString("\n")

	n := 0
	var sources []string
	for i, page := range res.Pages {
		if !page.Success {
			continue
		}
		n++
		if n > 1 {
			sb.WriteString("\n---\n\n")
		}
		title := page.Title
		if title == "" && i < len(res.SearchResults) {
			title = res.SearchResults[i].Title
		}
		fmt.Fprintf(&sb, "### Source %d: %s\n", n, title)
		fmt.Fprintf(&sb, "**URL:** %s\n\n", page.URL)
		sb.WriteString(page.Content)
		sb.WriteString("\n")
		sources = append(sources, fmt.Sprintf("%d. [%s](%s)", n, title, page.URL))
	}

	if n == 0 {
		sb.WriteString("None of the result pages could be read.\n")
		return sb.String()
	}

	sb.WriteString("\n**Sources:**\n")
	for _, s := range sources {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}
