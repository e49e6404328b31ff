package domain

import "context"

// SearchResult is one hit returned by a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// FetchedPage is the extracted main content of a single URL. Success is false
// when the fetch or extraction failed; Content then holds a short error note.
type FetchedPage struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Success bool   `json:"success"`
}

// Searcher is the raw web-search capability.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Fetcher fetches a URL and extracts its main content, truncated to maxChars.
// A failed fetch is reported through the Success flag, not an error: page
// failures are per-source and must not abort sibling fetches.
type Fetcher interface {
	FetchExtract(ctx context.Context, url string, maxChars int) FetchedPage
}
