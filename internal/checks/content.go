package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/balticscan/domain-analyzer/internal/model"
)

const (
	// DefaultMaxBodyBytes caps how much of a page the content check
	// reads.
	DefaultMaxBodyBytes = 256 * 1024

	contentUserAgent = "domain-analyzer/1.0 (+https://github.com/balticscan/domain-analyzer)"
)

var (
	titleRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlLangRe  = regexp.MustCompile(`(?is)<html[^>]*\slang=["']?([a-zA-Z-]+)`)
	metaTagRe   = regexp.MustCompile(`(?is)<meta\s[^>]*>`)
	linkTagRe   = regexp.MustCompile(`(?is)<link\s[^>]*>`)
	attrRe      = regexp.MustCompile(`(?is)([a-z-]+)\s*=\s*("([^"]*)"|'([^']*)'|([^\s>]+))`)
	h1Re        = regexp.MustCompile(`(?i)<h1[\s>]`)
	ltLettersRe = regexp.MustCompile(`[ąčęėįšųūž]`)
)

// capturedHeaders are the response headers the content check records
// for the downstream header and tech checks.
var capturedHeaders = []string{
	"Server",
	"X-Powered-By",
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
	"Content-Type",
}

// ContentFetcher performs the single capped GET the content check is
// built on.
type ContentFetcher struct {
	client   *http.Client
	maxBytes int
}

// NewContentFetcher builds a fetcher with the given timeout and body
// cap (0 means DefaultMaxBodyBytes).
func NewContentFetcher(timeout time.Duration, maxBodyBytes int) *ContentFetcher {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		maxBytes: maxBodyBytes,
	}
}

// Fetch GETs the domain's landing page (following redirects) and
// extracts the page signals. When httpData carries a final URL from
// the earlier probe, the fetch starts there to avoid re-walking the
// redirect chain.
func (f *ContentFetcher) Fetch(ctx context.Context, domain string, httpData *model.HTTPData) (*model.ContentData, error) {
	target := "http://" + domain + "/"
	if httpData != nil && httpData.FinalURL != "" {
		target = httpData.FinalURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("content request for %s: %w", domain, err)
	}
	req.Header.Set("User-Agent", contentUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	// Read one byte past the cap to learn whether the page was larger.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)+1))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", target, err)
	}
	truncated := len(body) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
	}

	data := ParseContent(string(body))
	data.FetchedURL = resp.Request.URL.String()
	data.StatusCode = resp.StatusCode
	data.SizeBytes = len(body)
	data.Truncated = truncated

	data.Headers = make(map[string]string)
	for _, h := range capturedHeaders {
		if v := resp.Header.Get(h); v != "" {
			data.Headers[h] = v
		}
	}
	return data, nil
}

// ParseContent extracts the page signals from raw HTML.
func ParseContent(html string) *model.ContentData {
	data := &model.ContentData{}

	if m := titleRe.FindStringSubmatch(html); m != nil {
		data.Title = collapseSpace(stripTags(m[1]))
	}
	if m := htmlLangRe.FindStringSubmatch(html); m != nil {
		data.Language = strings.ToLower(m[1])
	}

	for _, tag := range metaTagRe.FindAllString(html, -1) {
		attrs := parseAttrs(tag)
		switch strings.ToLower(attrs["name"]) {
		case "description":
			data.MetaDescription = collapseSpace(attrs["content"])
		case "generator":
			data.Generator = attrs["content"]
		}
	}
	for _, tag := range linkTagRe.FindAllString(html, -1) {
		attrs := parseAttrs(tag)
		if strings.EqualFold(attrs["rel"], "canonical") {
			data.Canonical = attrs["href"]
		}
	}

	data.H1Count = len(h1Re.FindAllString(html, -1))
	data.Lithuanian = looksLithuanian(data.Language, data.Title, data.MetaDescription)
	return data
}

// looksLithuanian reports whether the page declares or displays
// Lithuanian: an lt language tag, or Lithuanian-only letters in the
// title or description.
func looksLithuanian(lang, title, description string) bool {
	if lang == "lt" || strings.HasPrefix(lang, "lt-") {
		return true
	}
	text := strings.ToLower(title + " " + description)
	return ltLettersRe.MatchString(text)
}

// parseAttrs pulls key=value attributes out of one HTML tag.
func parseAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(m[1])
		value := m[3]
		if value == "" {
			value = m[4]
		}
		if value == "" {
			value = m[5]
		}
		attrs[key] = value
	}
	return attrs
}

var tagRe = regexp.MustCompile(`(?s)<[^>]*>`)

func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
