package tool

import (
	"context"
	"fmt"
	"strings"

	"scout/internal/domain"
)

// ResearchFunc runs the full search-fetch-format pipeline for a query and
// returns a citation-formatted digest.
type ResearchFunc func(ctx context.Context, query string) (string, error)

type WebToolsConfig struct {
	Searcher   domain.Searcher
	Fetcher    domain.Fetcher
	Research   ResearchFunc
	NumResults int // results returned by web_search
	MaxChars   int // content cap for read_webpage
}

// RegisterWebTools wires the web tools into the registry. Registration order
// matches the trigger table: the compound tool first, then the single-step
// ones.
func RegisterWebTools(reg *Registry, cfg WebToolsConfig) {
	if cfg.NumResults <= 0 {
		cfg.NumResults = 3
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 5000
	}

	reg.Register(Spec{
		Name:        "search_and_read",
		Description: "Search the web, read the top results, and return their content with source citations. Use for questions needing current or factual information.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "The search query", Required: true},
		},
		Examples: []string{`TOOL_CALL: search_and_read(query="latest Go release notes")`},
		Run: func(ctx context.Context, params map[string]string) (string, error) {
			query := strings.TrimSpace(params["query"])
			if query == "" {
				return "", fmt.Errorf("search_and_read: query parameter is required")
			}
			return cfg.Research(ctx, query)
		},
	})

	reg.Register(Spec{
		Name:        "web_search",
		Description: "Search the web and return result titles, links, and snippets without reading the pages.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "The search query", Required: true},
		},
		Examples: []string{`TOOL_CALL: web_search(query="golang slog examples")`},
		Run: func(ctx context.Context, params map[string]string) (string, error) {
			query := strings.TrimSpace(params["query"])
			if query == "" {
				return "", fmt.Errorf("web_search: query parameter is required")
			}
			results, err := cfg.Searcher.Search(ctx, query, cfg.NumResults)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No results found for: " + query, nil
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "Search results for %q:\n", query)
			for i, r := range results {
				fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
				if r.Snippet != "" {
					fmt.Fprintf(&sb, "   %s\n", r.Snippet)
				}
			}
			return sb.String(), nil
		},
	})

	reg.Register(Spec{
		Name:        "read_webpage",
		Description: "Fetch a URL and return its readable text content.",
		Params: []Param{
			{Name: "url", Type: "string", Description: "The page URL to read", Required: true},
		},
		Examples: []string{`TOOL_CALL: read_webpage(url="https://example.com/article")`},
		Run: func(ctx context.Context, params map[string]string) (string, error) {
			url := strings.TrimSpace(params["url"])
			if url == "" {
				return "", fmt.Errorf("read_webpage: url parameter is required")
			}
			page := cfg.Fetcher.FetchExtract(ctx, url, cfg.MaxChars)
			if !page.Success {
				return "", fmt.Errorf("could not read %s", url)
			}
			var sb strings.Builder
			if page.Title != "" {
				fmt.Fprintf(&sb, "# %s\n\n", page.Title)
			}
			sb.WriteString(page.Content)
			return sb.String(), nil
		},
	})
}
