// Package search provides web search backends used to gather public evidence about a candidate.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// DefaultLimit is the number of hits requested per query.
const DefaultLimit = 5

// Hit is a single search result.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Searcher runs a free-text query against a search backend.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// ErrNoBackends is returned by Multi when it has nothing to query.
var ErrNoBackends = errors.New("no search backends configured")

// Multi queries backends in order and merges their hits, deduplicated by URL.
// Later backends are only consulted while fewer than limit hits have been collected.
// It fails only when every backend fails.
type Multi struct {
	Backends []Searcher
	Verbose  bool
}

// NewMulti builds a Multi over the non-nil backends.
func NewMulti(backends ...Searcher) *Multi {
	m := &Multi{}
	for _, b := range backends {
		if b != nil {
			m.Backends = append(m.Backends, b)
		}
	}
	return m
}

// Search implements Searcher.
func (m *Multi) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if len(m.Backends) == 0 {
		return nil, ErrNoBackends
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		hits []Hit
		errs []error
		seen = make(map[string]bool)
	)
	for _, backend := range m.Backends {
		if len(hits) >= limit {
			break
		}
		found, err := backend.Search(ctx, query, limit)
		if err != nil {
			if m.Verbose {
				log.Printf("[SEARCH] Backend %T failed for %q: %v", backend, query, err)
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, h := range found {
			key := normalizeURL(h.URL)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, h)
			if len(hits) >= limit {
				break
			}
		}
	}

	if len(errs) == len(m.Backends) {
		return nil, errors.Join(errs...)
	}
	return hits, nil
}

// FormatHits renders hits as the plain text handed to the model.
func FormatHits(query string, hits []Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for %q.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Results for %q:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, strings.TrimSpace(h.Title), h.URL)
		if snippet := strings.TrimSpace(h.Snippet); snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", strings.Join(strings.Fields(snippet), " "))
		}
		if h.Source != "" {
			fmt.Fprintf(&sb, "   source: %s\n", h.Source)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// normalizeURL lowercases the host and drops fragments and trailing slashes for dedup.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Host = strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	u.Fragment = ""
	u.Scheme = ""
	return strings.TrimSuffix(u.String(), "/")
}
