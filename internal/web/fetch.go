package web

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"scout/internal/domain"
)

const maxFetchBytes = 512 * 1024

// ReadabilityFetcher implements domain.Fetcher: it downloads a page,
// extracts the main article with readability, and converts it to Markdown.
// Fetch failures are reported through FetchedPage.Success so a pipeline run
// degrades per page instead of aborting.
type ReadabilityFetcher struct {
	client    *http.Client
	converter *md.Converter
	// browser optionally renders JS-heavy pages when plain extraction
	// comes back empty.
	browser *BrowserFetcher
	logger  *slog.Logger
}

type FetcherConfig struct {
	Client  *http.Client
	Browser *BrowserFetcher
	Logger  *slog.Logger
}

func NewReadabilityFetcher(cfg FetcherConfig) *ReadabilityFetcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ReadabilityFetcher{
		client:    cfg.Client,
		converter: md.NewConverter("", true, nil),
		browser:   cfg.Browser,
		logger:    cfg.Logger,
	}
}

func (f *ReadabilityFetcher) FetchExtract(ctx context.Context, rawURL string, maxChars int) domain.FetchedPage {
	page := domain.FetchedPage{URL: rawURL}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		f.logger.Warn("fetch failed", "url", rawURL, "error", err)
		return page
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("fetch failed", "url", rawURL, "error", err)
		return page
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("fetch failed", "url", rawURL, "status", resp.StatusCode)
		return page
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		f.logger.Warn("fetch failed", "url", rawURL, "error", err)
		return page
	}

	title, content := f.extract(body, rawURL)
	if content == "" && f.browser != nil {
		// Likely a JS-rendered page; retry with the headless browser.
		if rendered, err := f.browser.Render(ctx, rawURL); err == nil {
			title, content = f.extract([]byte(rendered), rawURL)
		} else {
			f.logger.Warn("browser render failed", "url", rawURL, "error", err)
		}
	}
	if content == "" {
		// Pages too small for article extraction still have usable text.
		title, content = plainText(body)
	}
	if content == "" {
		return page
	}

	page.Title = title
	page.Content = Truncate(content, maxChars)
	page.Success = true
	return page
}

// extract pulls the readable article from raw HTML and converts it to
// Markdown. Falls back to the article's plain text when conversion fails.
func (f *ReadabilityFetcher) extract(body []byte, rawURL string) (title, content string) {
	pageURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", ""
	}

	content = strings.TrimSpace(article.TextContent)
	if article.Content != "" {
		if markdown, err := f.converter.ConvertString(article.Content); err == nil {
			if m := strings.TrimSpace(markdown); m != "" {
				content = m
			}
		}
	}
	return article.Title, content
}

var (
	titleTagRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTagRe  = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr)[^>]*>|<br\s*/?>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// plainText strips tags from raw HTML, keeping rough block structure.
func plainText(body []byte) (title, content string) {
	html := string(body)
	if m := titleTagRe.FindStringSubmatch(html); m != nil {
		title = stripHTML(m[1])
	}
	html = scriptTagRe.ReplaceAllString(html, "")
	html = blockCloseRe.ReplaceAllString(html, "\n")
	html = stripHTML(html)

	lines := strings.Split(html, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	content = blankLinesRe.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n")
	return title, content
}

// Truncate caps s at maxChars bytes and appends a marker when content was
// cut. The cut backs up to a rune boundary so multibyte text stays valid.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n\n[content truncated]"
}
