// Package analyzer classifies a probed domain as active or inactive
// and extracts captured .lt domains from offsite redirect chains.
package analyzer

import (
	"github.com/balticscan/domain-analyzer/internal/domainutil"
	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/probe"
)

// Options carries the redirect-capture configuration.
type Options struct {
	// KeepPatterns are host suffixes whose subdomains are preserved
	// when reducing to a registrable root (".gov.lt" and friends).
	KeepPatterns []string
	// Ignore lists exact hostnames never reported as captures
	// (registrar parking pages, URL shorteners).
	Ignore []string
}

// Classify runs the activity decision tree with first-match semantics.
// httpData and dnsData may each be nil when the corresponding probe
// did not run or crashed; nil is treated as a failed probe.
func Classify(domain string, httpData *model.HTTPData, dnsData *model.DNSData, opts Options) *model.ActiveData {
	out := &model.ActiveData{}

	if dnsData != nil {
		out.HasDNS = dnsData.HasAddress
	}
	if httpData != nil {
		out.Responds = httpData.Reachable
		out.StatusCode = httpData.StatusCode
		out.FinalURL = httpData.FinalURL
		out.RedirectChain = httpData.RedirectChain
	}

	// Rule 1: nothing resolves and HTTP never connected.
	if !out.HasDNS && (httpData == nil || probe.ConnectFailed(httpData)) {
		out.Reason = model.ReasonNoDNS
		return finish(out, domain, opts)
	}

	if httpData != nil && httpData.Reachable {
		sameFamily := domainutil.SameFamily(httpData.FinalURL, domain, opts.KeepPatterns)

		// Rules 2 and 3: the site answered under its own family.
		// 4xx still counts as active; the domain is clearly in use.
		if sameFamily && httpData.StatusCode >= 200 && httpData.StatusCode < 500 {
			out.Active = true
			return finish(out, domain, opts)
		}

		// Rule 4: server-side failure.
		if httpData.StatusCode >= 500 && httpData.StatusCode < 600 {
			out.Reason = model.ReasonServerError
			return finish(out, domain, opts)
		}

		// Rules 5 and 6: the chain left the family. Offsite .lt
		// targets become discovery candidates either way.
		if !sameFamily {
			out.Reason = model.ReasonOffsiteRedirect
			return finish(out, domain, opts)
		}
	}

	// Rule 7: timeout or connection refused.
	out.Reason = model.ReasonUnreachable
	return finish(out, domain, opts)
}

// finish attaches captured .lt domains from the redirect chain. Runs
// for every outcome so that even an offsite-inactive classification
// records its discoveries.
func finish(out *model.ActiveData, domain string, opts Options) *model.ActiveData {
	if len(out.RedirectChain) > 0 {
		out.CapturedDomains = domainutil.ExtractLTFromChain(
			out.RedirectChain, domain, opts.KeepPatterns, opts.Ignore)
	}
	return out
}
