package analyzer

import (
	"reflect"
	"testing"

	"github.com/balticscan/domain-analyzer/internal/model"
)

var opts = Options{
	KeepPatterns: []string{".gov.lt", ".lrv.lt", ".edu.lt", ".mil.lt"},
	Ignore:       []string{"www.serveriai.lt"},
}

func TestClassifyNoDNS(t *testing.T) {
	httpData := &model.HTTPData{URL: "http://dead.lt", ErrorKind: "connect"}
	dnsData := &model.DNSData{Domain: "dead.lt", HasAddress: false}

	out := Classify("dead.lt", httpData, dnsData, opts)
	if out.Active {
		t.Error("Active = true")
	}
	if out.Reason != model.ReasonNoDNS {
		t.Errorf("Reason = %q, want no_dns", out.Reason)
	}
}

func TestClassifySameFamilyActive(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://example.lt",
		FinalURL:   "https://www.example.lt",
		StatusCode: 200,
		Reachable:  true,
		RedirectChain: []string{
			"http://example.lt",
			"https://example.lt",
			"https://www.example.lt",
		},
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("example.lt", httpData, dnsData, opts)
	if !out.Active {
		t.Fatalf("Active = false: %+v", out)
	}
	if len(out.CapturedDomains) != 0 {
		t.Errorf("same-family chain captured %v", out.CapturedDomains)
	}
}

// The canonical policy: same-family 4xx is still active.
func TestClassify404Active(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://example.lt",
		FinalURL:   "http://example.lt",
		StatusCode: 404,
		Reachable:  true,
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("example.lt", httpData, dnsData, opts)
	if !out.Active {
		t.Errorf("404 same-family should be active: %+v", out)
	}
}

func TestClassifyServerErrorInactive(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://broken.lt",
		FinalURL:   "http://broken.lt",
		StatusCode: 503,
		Reachable:  true,
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("broken.lt", httpData, dnsData, opts)
	if out.Active {
		t.Error("5xx should be inactive")
	}
	if out.Reason != model.ReasonServerError {
		t.Errorf("Reason = %q, want server_error", out.Reason)
	}
}

func TestClassifyOffsiteLTRedirect(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://gyvigali.lt",
		FinalURL:   "https://augalyn.lt",
		StatusCode: 200,
		Reachable:  true,
		RedirectChain: []string{
			"http://gyvigali.lt",
			"https://augalyn.lt",
		},
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("gyvigali.lt", httpData, dnsData, opts)
	if out.Active {
		t.Error("offsite redirect should be inactive")
	}
	if out.Reason != model.ReasonOffsiteRedirect {
		t.Errorf("Reason = %q, want offsite_redirect", out.Reason)
	}
	if !reflect.DeepEqual(out.CapturedDomains, []string{"augalyn.lt"}) {
		t.Errorf("CapturedDomains = %v, want [augalyn.lt]", out.CapturedDomains)
	}
}

func TestClassifyOffsiteNonLTRedirect(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://old.lt",
		FinalURL:   "https://example.com",
		StatusCode: 200,
		Reachable:  true,
		RedirectChain: []string{
			"http://old.lt",
			"https://example.com",
		},
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("old.lt", httpData, dnsData, opts)
	if out.Active {
		t.Error("offsite non-lt redirect should be inactive")
	}
	if out.Reason != model.ReasonOffsiteRedirect {
		t.Errorf("Reason = %q", out.Reason)
	}
	if len(out.CapturedDomains) != 0 {
		t.Errorf("non-lt target captured: %v", out.CapturedDomains)
	}
}

func TestClassifyUnreachableWithDNS(t *testing.T) {
	httpData := &model.HTTPData{URL: "http://slow.lt", ErrorKind: "timeout"}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("slow.lt", httpData, dnsData, opts)
	if out.Active {
		t.Error("unreachable should be inactive")
	}
	if out.Reason != model.ReasonUnreachable {
		t.Errorf("Reason = %q, want unreachable", out.Reason)
	}
	if !out.HasDNS {
		t.Error("HasDNS should reflect the DNS probe")
	}
}

func TestClassifyGovSubdomainCapture(t *testing.T) {
	httpData := &model.HTTPData{
		URL:        "http://senas.lt",
		FinalURL:   "https://stat.gov.lt",
		StatusCode: 200,
		Reachable:  true,
		RedirectChain: []string{
			"http://senas.lt",
			"https://stat.gov.lt",
		},
	}
	dnsData := &model.DNSData{HasAddress: true}

	out := Classify("senas.lt", httpData, dnsData, opts)
	// Captured as stat.gov.lt, not collapsed to gov.lt.
	if !reflect.DeepEqual(out.CapturedDomains, []string{"stat.gov.lt"}) {
		t.Errorf("CapturedDomains = %v, want [stat.gov.lt]", out.CapturedDomains)
	}
}

func TestClassifyNilProbes(t *testing.T) {
	out := Classify("x.lt", nil, nil, opts)
	if out.Active {
		t.Error("nil probes cannot be active")
	}
	if out.Reason != model.ReasonNoDNS {
		t.Errorf("Reason = %q, want no_dns", out.Reason)
	}
}
