package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultRenderTimeout bounds a single page render.
const DefaultRenderTimeout = 30 * time.Second

// renderSettleDelay gives the score box time to populate after the document
// is ready; the page fills it from a follow-up request.
const renderSettleDelay = 2 * time.Second

// userAgent presented to the site. Match pages serve a degraded layout to
// unknown agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Renderer produces fully rendered HTML for a URL.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders pages in a headless Chrome instance. Requires
// Chrome/Chromium on the system.
type Browser struct {
	Timeout time.Duration
}

// NewBrowser returns a Browser with the default render timeout.
func NewBrowser() *Browser {
	return &Browser{Timeout: DefaultRenderTimeout}
}

// Render navigates to the URL in a headless browser, waits for the page to
// settle, dismisses the cookie consent overlay if present, and returns the
// rendered HTML. Render failures are retryable.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultRenderTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1920, 1080),
			chromedp.UserAgent(userAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(renderSettleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Accept the consent overlay so it does not cover the score box.
			// Not all regions get one; ignore failures.
			_ = chromedp.Click(`#onetrust-accept-btn-handler, [aria-label="Accept all"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		// Respect caller cancellation: a cancelled context means the shard is
		// shutting down, not that the page misbehaved.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &Error{URL: url, Message: "browser rendering failed", Retryable: true, Cause: err}
	}
	if strings.TrimSpace(html) == "" {
		return "", &Error{URL: url, Message: "browser returned empty document", Retryable: true}
	}
	return html, nil
}
