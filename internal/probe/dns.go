package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// DNS probe defaults.
const (
	DefaultResolver   = "8.8.8.8:53"
	DefaultDNSTimeout = 5 * time.Second
)

// dnsQueryTypes lists the record types resolved per probe.
var dnsQueryTypes = []struct {
	Qtype uint16
	Name  string
}{
	{dns.TypeA, "A"},
	{dns.TypeAAAA, "AAAA"},
	{dns.TypeMX, "MX"},
	{dns.TypeNS, "NS"},
	{dns.TypeTXT, "TXT"},
	{dns.TypeCNAME, "CNAME"},
}

// DNSProber resolves all supported record types for one domain
// concurrently against a configured resolver.
type DNSProber struct {
	resolver string
	client   *dns.Client
	logger   *zap.Logger
}

// NewDNSProber creates a prober. resolver is "host:port"; empty picks
// the default public resolver.
func NewDNSProber(resolver string, timeout time.Duration, logger *zap.Logger) *DNSProber {
	if resolver == "" {
		resolver = DefaultResolver
	}
	if timeout == 0 {
		timeout = DefaultDNSTimeout
	}
	return &DNSProber{
		resolver: resolver,
		client:   &dns.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Probe resolves every record type for domain. NXDOMAIN is a success
// with empty sets; an error is returned only when all lookups failed
// at the transport layer.
func (p *DNSProber) Probe(ctx context.Context, domain string) (*model.DNSData, error) {
	data := &model.DNSData{
		Domain:  domain,
		Records: make(map[string]model.RecordSet, len(dnsQueryTypes)),
	}

	var mu sync.Mutex
	failures := 0

	g, ctx := errgroup.WithContext(ctx)
	for _, qt := range dnsQueryTypes {
		qt := qt
		g.Go(func() error {
			set := p.lookup(ctx, domain, qt.Qtype)
			mu.Lock()
			data.Records[qt.Name] = set
			if set.Error != "" {
				failures++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	a := data.Records["A"]
	aaaa := data.Records["AAAA"]
	data.HasAddress = len(a.Values) > 0 || len(aaaa.Values) > 0

	if failures == len(dnsQueryTypes) {
		return data, fmt.Errorf("dns probe %s: all lookups failed", domain)
	}
	return data, nil
}

// lookup queries one record type. Transport failures land in
// RecordSet.Error; negative answers are empty sets.
func (p *DNSProber) lookup(ctx context.Context, domain string, qtype uint16) model.RecordSet {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true

	resp, _, err := p.client.ExchangeContext(ctx, msg, p.resolver)
	if err != nil {
		return model.RecordSet{Error: err.Error()}
	}
	if resp.Rcode == dns.RcodeNameError {
		// NXDOMAIN: authoritative "nothing there".
		return model.RecordSet{Values: []string{}}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return model.RecordSet{Error: dns.RcodeToString[resp.Rcode]}
	}

	set := model.RecordSet{Values: []string{}}
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		if set.TTL == 0 {
			set.TTL = rr.Header().Ttl
		}
		set.Values = append(set.Values, formatRR(rr))
	}
	return set
}

// formatRR renders one resource record's data portion.
func formatRR(rr dns.RR) string {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String()
	case *dns.AAAA:
		return r.AAAA.String()
	case *dns.MX:
		return fmt.Sprintf("%d %s", r.Preference, strings.TrimSuffix(r.Mx, "."))
	case *dns.NS:
		return strings.TrimSuffix(r.Ns, ".")
	case *dns.TXT:
		return strings.Join(r.Txt, "")
	case *dns.CNAME:
		return strings.TrimSuffix(r.Target, ".")
	default:
		return rr.String()
	}
}
