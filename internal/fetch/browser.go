// Package fetch - browser.go provides headless browser rendering for script-heavy profile pages.
package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider an HTTP fetch useful.
// Shorter pages are likely rendered client-side and are retried in a browser.
const MinContentLength = 500

// DefaultSettleDelay is how long a rendered page is given to run its scripts.
const DefaultSettleDelay = 2 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer returns fully rendered HTML for a URL.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders pages in headless Chrome. Requires Chrome/Chromium on the host.
// Each Render call starts its own browser, so a Browser is safe for concurrent use.
type Browser struct {
	Timeout     time.Duration
	SettleDelay time.Duration
	Verbose     bool
}

// NewBrowser creates a Browser with the given per-page timeout.
func NewBrowser(timeout time.Duration, verbose bool) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Browser{
		Timeout:     timeout,
		SettleDelay: DefaultSettleDelay,
		Verbose:     verbose,
	}
}

// Render navigates to url and returns the outer HTML of the rendered document.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	if b.Verbose {
		log.Printf("[BROWSER] Rendering %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.SettleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	if b.Verbose {
		log.Printf("[BROWSER] Rendered %s: %d bytes", url, len(html))
	}

	return html, nil
}

// String describes the renderer for logs.
func (b *Browser) String() string {
	return fmt.Sprintf("chromedp(timeout=%s)", b.Timeout)
}
