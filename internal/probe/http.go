package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// HTTP probe defaults.
const (
	DefaultHTTPTimeout    = 5 * time.Second
	DefaultMaxRedirects   = 10
	defaultProbeUserAgent = "domain-analyzer/1.0 (+availability probe)"
)

// HTTPProber performs one HEAD (GET fallback on 405) per probe,
// following redirects up to a hop cap and recording the chain.
type HTTPProber struct {
	timeout      time.Duration
	maxRedirects int
	transport    http.RoundTripper
	logger       *zap.Logger
}

// NewHTTPProber creates a prober with the given per-call timeout.
func NewHTTPProber(timeout time.Duration, logger *zap.Logger) *HTTPProber {
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPProber{
		timeout:      timeout,
		maxRedirects: DefaultMaxRedirects,
		transport: &http.Transport{
			// Capture certificates from broken sites too; the TLS
			// prober does the real verification reporting.
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
		logger: logger,
	}
}

// Probe probes http://<domain>. It always returns a data record; wire
// failures are reported through ErrorKind with the hops observed so
// far, plus a non-nil error.
func (p *HTTPProber) Probe(ctx context.Context, domain string) (*model.HTTPData, error) {
	return p.ProbeURL(ctx, "http://"+domain)
}

// ProbeURL probes an explicit start URL.
func (p *HTTPProber) ProbeURL(ctx context.Context, startURL string) (*model.HTTPData, error) {
	data := &model.HTTPData{URL: startURL, RedirectChain: []string{startURL}}

	var mu sync.Mutex
	client := &http.Client{
		Transport: p.transport,
		Timeout:   p.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			mu.Lock()
			data.RedirectChain = append(data.RedirectChain, req.URL.String())
			mu.Unlock()
			if len(via) >= p.maxRedirects {
				// Stop following but keep the last response.
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	start := time.Now()
	resp, err := p.do(ctx, client, startURL, http.MethodHead)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp.Body.Close()
		data.Method = http.MethodGet
		data.RedirectChain = []string{startURL}
		resp, err = p.do(ctx, client, startURL, http.MethodGet)
	} else {
		data.Method = http.MethodHead
	}
	data.ResponseTimeMs = time.Since(start).Milliseconds()

	if err != nil {
		data.ErrorKind = ClassifyErrorKind(err)
		return data, fmt.Errorf("http probe %s: %w", startURL, err)
	}
	defer resp.Body.Close()

	data.Reachable = true
	data.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		data.FinalURL = resp.Request.URL.String()
		data.HTTPS = resp.Request.URL.Scheme == "https"
	}
	return data, nil
}

func (p *HTTPProber) do(ctx context.Context, client *http.Client, url, method string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultProbeUserAgent)
	return client.Do(req)
}

// ClassifyErrorKind tags a transport failure: "timeout", "tls",
// "connect" or "protocol".
func ClassifyErrorKind(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuth) || errors.As(err, &hostErr) ||
		strings.Contains(err.Error(), "tls:") {
		return "tls"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connect"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "connect"
	}
	return "protocol"
}

// ConnectFailed reports whether the probe never reached an HTTP
// response at all. The active analyzer distinguishes this from
// application-level failures.
func ConnectFailed(data *model.HTTPData) bool {
	return data != nil && !data.Reachable &&
		(data.ErrorKind == "connect" || data.ErrorKind == "timeout" || data.ErrorKind == "tls")
}
