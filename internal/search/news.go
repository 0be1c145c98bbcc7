package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// DefaultNewsBaseURL is the Google News RSS search endpoint.
const DefaultNewsBaseURL = "https://news.google.com/rss/search"

// NewsSearch queries the Google News RSS feed. It needs no credentials, which makes it
// the fallback when Custom Search is not configured.
type NewsSearch struct {
	BaseURL string
	HL      string // e.g. "en-US"
	GL      string // e.g. "US"
	CEID    string // e.g. "US:en"
	Client  *http.Client
}

// NewNewsSearch returns a NewsSearch for US English results.
func NewNewsSearch() *NewsSearch {
	return &NewsSearch{
		BaseURL: DefaultNewsBaseURL,
		HL:      "en-US",
		GL:      "US",
		CEID:    "US:en",
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (n *NewsSearch) feedURL(query string) string {
	base := n.BaseURL
	if base == "" {
		base = DefaultNewsBaseURL
	}
	values := url.Values{}
	values.Set("q", query)
	if n.HL != "" {
		values.Set("hl", n.HL)
	}
	if n.GL != "" {
		values.Set("gl", n.GL)
	}
	if n.CEID != "" {
		values.Set("ceid", n.CEID)
	}
	return base + "?" + values.Encode()
}

// Search implements Searcher.
func (n *NewsSearch) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	parser := gofeed.NewParser()
	parser.UserAgent = "Mozilla/5.0 (compatible; ResumeAuditor/1.0)"
	if n.Client != nil {
		parser.Client = n.Client
	}

	feed, err := parser.ParseURLWithContext(n.feedURL(query), ctx)
	if err != nil {
		return nil, fmt.Errorf("google news rss failed: %w", err)
	}

	hits := make([]Hit, 0, min(limit, len(feed.Items)))
	for _, it := range feed.Items {
		if len(hits) >= limit {
			break
		}
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		source := "Google News"
		if it.Author != nil && it.Author.Name != "" {
			source = it.Author.Name
		}
		if pub := it.PublishedParsed; pub != nil {
			source = fmt.Sprintf("%s, %s", source, pub.Format("2006-01-02"))
		}
		hits = append(hits, Hit{
			Title:   strings.TrimSpace(it.Title),
			URL:     link,
			Snippet: stripTags(it.Description),
			Source:  source,
		})
	}
	return hits, nil
}

// stripTags reduces an HTML description to its text; Google News fills it with anchors.
func stripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
