package search

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// maxCustomSearchResults is the API's per-request ceiling.
const maxCustomSearchResults = 10

// CustomSearch queries the Google Programmable Search (Custom Search JSON) API.
type CustomSearch struct {
	svc *customsearch.Service
	cx  string
}

// NewCustomSearch creates a CustomSearch. Extra client options are appended after the API key.
func NewCustomSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*CustomSearch, error) {
	if apiKey == "" {
		return nil, errors.New("custom search API key is required")
	}
	if cx == "" {
		return nil, errors.New("custom search engine ID (cx) is required")
	}
	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &CustomSearch{svc: svc, cx: cx}, nil
}

// Search implements Searcher.
func (c *CustomSearch) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, maxCustomSearchResults)

	resp, err := c.svc.Cse.List().Cx(c.cx).Q(query).Num(int64(limit)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search failed: %w", err)
	}

	hits := make([]Hit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		hits = append(hits, Hit{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
			Source:  item.DisplayLink,
		})
	}
	return hits, nil
}
