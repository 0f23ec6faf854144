// Package checks implements the analysis and intelligence checks that
// run after the network probes: page content, security headers, a
// security grade, SEO signals, and a technology fingerprint. Checks
// consume data already gathered by earlier profiles and are looked up
// by name from a registry.
package checks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// Input carries the per-domain data accumulated by earlier checks.
// A check reads the fields it needs; missing prerequisites are an
// error, not a panic.
type Input struct {
	Domain  string
	HTTP    *model.HTTPData
	DNS     *model.DNSData
	TLS     *model.TLSData
	Content *model.ContentData
	Headers *model.HeadersData
}

// CheckFunc executes one named check and returns its payload.
type CheckFunc func(ctx context.Context, in *Input) (interface{}, error)

// Runner holds the shared state the registry checks need (the content
// fetcher) and maps check names to implementations.
type Runner struct {
	fetcher  *ContentFetcher
	logger   *zap.Logger
	registry map[string]CheckFunc
}

// NewRunner builds a Runner whose content fetches use the given
// timeout and body cap.
func NewRunner(timeout time.Duration, maxBodyBytes int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		fetcher: NewContentFetcher(timeout, maxBodyBytes),
		logger:  logger,
	}
	r.registry = map[string]CheckFunc{
		"content_fetch":    r.contentFetch,
		"security_headers": r.securityHeaders,
		"security_grade":   r.securityGrade,
		"seo_signals":      r.seoSignals,
		"tech_fingerprint": r.techFingerprint,
	}
	return r
}

// Lookup returns the check registered under name.
func (r *Runner) Lookup(name string) (CheckFunc, bool) {
	fn, ok := r.registry[name]
	return fn, ok
}

// Names lists the registered check names.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	return names
}

func (r *Runner) contentFetch(ctx context.Context, in *Input) (interface{}, error) {
	data, err := r.fetcher.Fetch(ctx, in.Domain, in.HTTP)
	if err != nil {
		return nil, err
	}
	in.Content = data
	return data, nil
}

func (r *Runner) securityHeaders(ctx context.Context, in *Input) (interface{}, error) {
	if in.Content == nil {
		return nil, fmt.Errorf("security_headers: no content data for %s", in.Domain)
	}
	data := AnalyzeHeaders(in.Content)
	in.Headers = data
	return data, nil
}

func (r *Runner) securityGrade(ctx context.Context, in *Input) (interface{}, error) {
	if in.Headers == nil {
		return nil, fmt.Errorf("security_grade: no header data for %s", in.Domain)
	}
	return Grade(in.Headers, in.TLS, in.HTTP), nil
}

func (r *Runner) seoSignals(ctx context.Context, in *Input) (interface{}, error) {
	if in.Content == nil {
		return nil, fmt.Errorf("seo_signals: no content data for %s", in.Domain)
	}
	return SEOSignals(in.Content), nil
}

func (r *Runner) techFingerprint(ctx context.Context, in *Input) (interface{}, error) {
	if in.Content == nil {
		return nil, fmt.Errorf("tech_fingerprint: no content data for %s", in.Domain)
	}
	return Fingerprint(in.Content, in.Headers), nil
}
