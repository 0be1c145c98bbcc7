// Package fetch downloads evidence pages and reduces them to readable text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout bounds one page download.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent identifies the auditor to the sites it reads.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeAuditor/1.0)"

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 4 << 20

// TruncationMarker is appended to text cut by Truncate.
const TruncationMarker = "\n[truncated]"

// boilerplate is stripped from every page before content selection.
const boilerplate = "nav, footer, header, script, style, noscript, svg, iframe, form, " +
	".ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup"

// ErrUnsupportedContent is returned for responses that are not HTML or plain text.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Error describes a failed download. StatusCode is set when the server answered.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP status %d", e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, msg, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client downloads pages. The zero value is usable.
type Client struct {
	HTTP      *http.Client // nil means a per-call client bounded by Timeout
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// NewClient creates a Client with the default timeout and user agent.
func NewClient() *Client {
	return &Client{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
}

// Response is a downloaded page body.
type Response struct {
	URL         string
	Body        string
	ContentType string
	StatusCode  int
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	return u, nil
}

// Get downloads rawURL. A non-200 answer returns the Response together with an *Error.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	hc := c.HTTP
	if hc == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	page := &Response{
		URL:         rawURL,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return page, &Error{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if !readable(page.ContentType) {
		return page, &Error{URL: rawURL, Message: page.ContentType, Cause: ErrUnsupportedContent}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return page, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	page.Body = string(body)
	return page, nil
}

// readable reports whether a Content-Type can be reduced to text. A missing header is allowed.
func readable(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// Page is a parsed HTML document. Text extraction removes nodes, so call
// MainText or Text once per Page.
type Page struct {
	Title string
	doc   *goquery.Document
}

// ParsePage parses an HTML (or plain text) body.
func ParsePage(body string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		doc:   doc,
	}, nil
}

// MainText extracts readable text using the selectors for platform.
func (p *Page) MainText(platform Platform) string {
	return p.Text(PlatformContentSelectors(platform), PlatformNoiseSelectors(platform))
}

// Text strips boilerplate and noise, then returns the text of the first
// content selector that matches, or of the body.
func (p *Page) Text(contentSelectors, noiseSelectors []string) string {
	p.doc.Find(boilerplate).Remove()
	if len(noiseSelectors) > 0 {
		p.doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	content := p.doc.Find("body")
	for _, selector := range contentSelectors {
		if match := p.doc.Find(selector); match.Length() > 0 {
			content = match.First()
			break
		}
	}
	return cleanWhitespace(content.Text())
}

// DefaultTextSelectors returns content selectors for pages on no known platform.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		"[role='main']",
		".profile",
		".bio",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// Truncate cuts text to at most maxRunes runes, appending TruncationMarker when it cuts.
// maxRunes <= 0 disables truncation.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + TruncationMarker
}

// cleanWhitespace trims every line, collapses runs of spaces and drops blank lines.
func cleanWhitespace(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(fields, " "))
	}
	return sb.String()
}
