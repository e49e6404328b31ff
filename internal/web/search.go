package web

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"scout/internal/domain"
)

const searchUserAgent = "Mozilla/5.0 (compatible; Scout/1.0)"

// DuckDuckGo implements domain.Searcher against the DuckDuckGo HTML
// endpoint, which needs no API key.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

type DuckDuckGoConfig struct {
	// Endpoint overrides the DuckDuckGo HTML URL, mainly for tests.
	Endpoint string
	Client   *http.Client
	Logger   *slog.Logger
}

func NewDuckDuckGo(cfg DuckDuckGoConfig) *DuckDuckGo {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://html.duckduckgo.com/html/"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DuckDuckGo{
		endpoint: cfg.Endpoint,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	searchURL := fmt.Sprintf("%s?q=%s", d.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	results := parseResults(string(body), maxResults)
	d.logger.Debug("search complete", "query", query, "results", len(results))
	return results, nil
}

var (
	resultLinkRe    = regexp.MustCompile(`<a rel="nofollow" class="result__a" href="([^"]*)"[^>]*>(.*?)</a>`)
	resultSnippetRe = regexp.MustCompile(`<a class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
	htmlEntityRe    = regexp.MustCompile(`&[a-z]+;|&#[0-9]+;`)
)

func parseResults(html string, max int) []domain.SearchResult {
	links := resultLinkRe.FindAllStringSubmatch(html, max)
	snippets := resultSnippetRe.FindAllStringSubmatch(html, max)

	var results []domain.SearchResult
	for i, link := range links {
		if len(link) < 3 {
			continue
		}
		href := link[1]
		title := stripHTML(link[2])

		// DuckDuckGo wraps URLs in a redirect; extract the actual URL.
		if u, err := url.Parse(href); err == nil {
			if actual := u.Query().Get("uddg"); actual != "" {
				href = actual
			}
		}

		snippet := ""
		if i < len(snippets) && len(snippets[i]) >= 2 {
			snippet = stripHTML(snippets[i][1])
		}

		results = append(results, domain.SearchResult{
			Title:   title,
			URL:     href,
			Snippet: snippet,
		})
	}
	return results
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = htmlEntityRe.ReplaceAllStringFunc(s, func(entity string) string {
		switch entity {
		case "&amp;":
			return "&"
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&quot;":
			return "\""
		case "&#39;", "&apos;":
			return "'"
		case "&nbsp;":
			return " "
		}
		return entity
	})
	return strings.TrimSpace(s)
}
