package types

// EvidenceKind distinguishes the two evidence-gathering operations
type EvidenceKind string

const (
	// EvidenceWebSearch is a free-text web search
	EvidenceWebSearch EvidenceKind = "web_search"
	// EvidencePageFetch retrieves one page's readable content
	EvidencePageFetch EvidenceKind = "page_fetch"
)

// EvidenceQuery is a single request to the evidence gatherer.
type EvidenceQuery struct {
	Kind  EvidenceKind `json:"kind"`
	Query string       `json:"query,omitempty"`
	URL   string       `json:"url,omitempty"`
}

// WebSearch builds a search query.
func WebSearch(query string) EvidenceQuery {
	return EvidenceQuery{Kind: EvidenceWebSearch, Query: query}
}

// PageFetch builds a fetch query.
func PageFetch(url string) EvidenceQuery {
	return EvidenceQuery{Kind: EvidencePageFetch, URL: url}
}

// Target returns the query text or URL the query addresses.
func (q EvidenceQuery) Target() string {
	if q.Kind == EvidencePageFetch {
		return q.URL
	}
	return q.Query
}

// EvidenceResult is the payload returned for one evidence query.
// Failed results carry a diagnostic instead of content.
type EvidenceResult struct {
	Kind       EvidenceKind `json:"kind"`
	Target     string       `json:"target"`
	Content    string       `json:"content,omitempty"`
	OK         bool         `json:"ok"`
	Diagnostic string       `json:"error,omitempty"`
}

// EvidenceFailure builds a failed result.
func EvidenceFailure(kind EvidenceKind, target, diagnostic string) EvidenceResult {
	return EvidenceResult{Kind: kind, Target: target, OK: false, Diagnostic: diagnostic}
}

// EvidenceSuccess builds a successful result.
func EvidenceSuccess(kind EvidenceKind, target, content string) EvidenceResult {
	return EvidenceResult{Kind: kind, Target: target, Content: content, OK: true}
}

// AsToolResponse renders the result as a function-response payload for the model.
func (r EvidenceResult) AsToolResponse() map[string]any {
	resp := map[string]any{
		"ok":     r.OK,
		"target": r.Target,
	}
	if r.OK {
		resp["content"] = r.Content
	} else {
		resp["error"] = r.Diagnostic
	}
	return resp
}
