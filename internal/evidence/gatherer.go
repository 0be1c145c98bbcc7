// Package evidence turns web searches and page fetches into EvidenceResults for the research agent.
// Failures are reported inside the result; Search and Fetch never return errors.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/resume-auditor/internal/fetch"
	"github.com/jonathan/resume-auditor/internal/ratelimit"
	"github.com/jonathan/resume-auditor/internal/search"
	"github.com/jonathan/resume-auditor/internal/types"
)

const (
	// DefaultFetchTimeout bounds a single page fetch, including browser rendering.
	DefaultFetchTimeout = 20 * time.Second
	// MaxContentLength is the default rune cap on fetched page text.
	MaxContentLength = 5000
	// searchLimiterKey is the rate limiter bucket shared by all search calls.
	searchLimiterKey = "search"
)

// Gatherer executes evidence queries. It is safe for concurrent use when its
// collaborators are.
type Gatherer struct {
	Searcher         search.Searcher
	Limiter          *ratelimit.Limiter // nil disables throttling
	Renderer         fetch.Renderer     // nil disables the headless browser fallback
	Fetcher          *fetch.Client
	SearchLimit      int
	MaxContentLength int
	FetchTimeout     time.Duration
	Verbose          bool
}

// New creates a Gatherer with default limits.
func New(searcher search.Searcher) *Gatherer {
	return &Gatherer{
		Searcher:         searcher,
		Fetcher:          fetch.NewClient(),
		SearchLimit:      search.DefaultLimit,
		MaxContentLength: MaxContentLength,
		FetchTimeout:     DefaultFetchTimeout,
	}
}

// Run dispatches a query by kind.
func (g *Gatherer) Run(ctx context.Context, q types.EvidenceQuery) types.EvidenceResult {
	switch q.Kind {
	case types.EvidenceWebSearch:
		return g.Search(ctx, q.Query)
	case types.EvidencePageFetch:
		return g.Fetch(ctx, q.URL)
	default:
		return types.EvidenceFailure(q.Kind, q.Target(), fmt.Sprintf("unknown evidence kind %q", q.Kind))
	}
}

// Search runs a web search and formats the hits as a numbered list.
func (g *Gatherer) Search(ctx context.Context, query string) types.EvidenceResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.EvidenceFailure(types.EvidenceWebSearch, query, "search failed: empty query")
	}
	if g.Searcher == nil {
		return types.EvidenceFailure(types.EvidenceWebSearch, query, "search failed: no search provider configured")
	}

	if err := g.Limiter.Wait(ctx, searchLimiterKey); err != nil {
		return g.searchFailure(query, err)
	}

	start := time.Now()
	hits, err := g.Searcher.Search(ctx, query, g.SearchLimit)
	if err != nil {
		return g.searchFailure(query, err)
	}
	if g.Verbose {
		log.Printf("[EVIDENCE] Search %q returned %d hits in %v", query, len(hits), time.Since(start).Round(time.Millisecond))
	}
	return types.EvidenceSuccess(types.EvidenceWebSearch, query, search.FormatHits(query, hits))
}

func (g *Gatherer) searchFailure(query string, err error) types.EvidenceResult {
	if g.Verbose {
		log.Printf("[EVIDENCE] Search %q failed: %v", query, err)
	}
	return types.EvidenceFailure(types.EvidenceWebSearch, query, "search failed: "+err.Error())
}

// Fetch retrieves a page and returns its main text, truncated to MaxContentLength runes.
func (g *Gatherer) Fetch(ctx context.Context, rawURL string) types.EvidenceResult {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return types.EvidenceFailure(types.EvidencePageFetch, rawURL, "fetch failed: empty URL")
	}
	parsed, err := fetch.ValidateURL(rawURL)
	if err != nil {
		return types.EvidenceFailure(types.EvidencePageFetch, rawURL, "fetch failed: invalid URL")
	}

	timeout := g.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.Limiter.Wait(ctx, strings.ToLower(parsed.Hostname())); err != nil {
		return g.fetchFailure(rawURL, err)
	}

	text, title, err := g.readPage(ctx, rawURL)
	if err != nil {
		return g.fetchFailure(rawURL, err)
	}

	if title != "" {
		text = "Title: " + title + "\n\n" + text
	}
	content := fetch.Truncate(text, g.MaxContentLength)
	if g.Verbose {
		log.Printf("[EVIDENCE] Fetched %s (%d chars)", rawURL, len(content))
	}
	return types.EvidenceSuccess(types.EvidencePageFetch, rawURL, content)
}

func (g *Gatherer) fetchFailure(rawURL string, err error) types.EvidenceResult {
	if g.Verbose {
		log.Printf("[EVIDENCE] Fetch %s failed: %v", rawURL, err)
	}
	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "timed out"
	}
	return types.EvidenceFailure(types.EvidencePageFetch, rawURL, "fetch failed: "+msg)
}

// readPage fetches over HTTP and falls back to the renderer when the static text is too thin.
func (g *Gatherer) readPage(ctx context.Context, rawURL string) (text, title string, err error) {
	platform := fetch.DetectPlatform(rawURL)

	fetcher := g.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient()
	}
	resp, fetchErr := fetcher.Get(ctx, rawURL)
	if fetchErr == nil {
		page, err := fetch.ParsePage(resp.Body)
		if err != nil {
			return "", "", err
		}
		text, title = page.MainText(platform), page.Title
	}

	if g.Renderer != nil && fetch.ShouldUseBrowser(text) && ctx.Err() == nil {
		if g.Verbose {
			log.Printf("[EVIDENCE] Static text for %s is thin (%d chars), rendering with %v", rawURL, len(text), g.Renderer)
		}
		html, renderErr := g.Renderer.Render(ctx, rawURL)
		switch {
		case renderErr != nil:
			if g.Verbose {
				log.Printf("[EVIDENCE] Render %s failed: %v", rawURL, renderErr)
			}
		default:
			if page, err := fetch.ParsePage(html); err == nil {
				if rendered := page.MainText(platform); len(rendered) > len(text) {
					text = rendered
					if page.Title != "" {
						title = page.Title
					}
					fetchErr = nil
				}
			}
		}
	}

	if fetchErr != nil {
		return "", "", fetchErr
	}
	if strings.TrimSpace(text) == "" {
		return "", "", errors.New("no readable content")
	}
	return text, title, nil
}
