package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders a page in headless Chrome and returns the resulting
// HTML. Used as a fallback for pages that serve an empty shell to plain HTTP
// clients.
type BrowserFetcher struct {
	timeout time.Duration
	logger  *slog.Logger
}

type BrowserConfig struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewBrowserFetcher(cfg BrowserConfig) *BrowserFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &BrowserFetcher{timeout: cfg.Timeout, logger: cfg.Logger}
}

// Render navigates to rawURL, waits for the body to appear, and returns the
// rendered document HTML.
func (b *BrowserFetcher) Render(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("user-agent", searchUserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitVisible("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	b.logger.Debug("rendered page", "url", rawURL, "bytes", len(html))
	return html, nil
}
