package catalog

import "time"

// BuiltinOptions tunes the built-in catalog.
type BuiltinOptions struct {
	// MonitorUsesFullWhois makes the monitor meta profile include the
	// port-43 whois profile instead of the DAS-only quick-whois.
	MonitorUsesFullWhois bool
}

// Builtin returns the default profile catalog. The catalog is
// validated; a failure here is a programming error.
func Builtin(opts BuiltinOptions) *Catalog {
	monitorWhois := "quick-whois"
	if opts.MonitorUsesFullWhois {
		monitorWhois = "whois"
	}

	c, err := New([]Profile{
		// --- CORE ---
		{
			Name:              "quick-whois",
			Category:          CategoryCore,
			Checks:            []string{"das_availability"},
			Description:       "Registration status via the DAS bulk protocol only",
			EstimatedDuration: 1 * time.Second,
		},
		{
			Name:              "whois",
			Category:          CategoryCore,
			Checks:            []string{"das_availability", "whois_lookup"},
			Description:       "Registration status plus registrar, dates and nameservers over port 43",
			EstimatedDuration: 2 * time.Second,
		},
		{
			Name:              "dns",
			Category:          CategoryCore,
			Checks:            []string{"dns_records"},
			Description:       "A/AAAA/MX/NS/TXT/CNAME resolution",
			EstimatedDuration: 2 * time.Second,
		},
		{
			Name:              "http",
			Category:          CategoryCore,
			Checks:            []string{"http_probe"},
			Description:       "HEAD probe with redirect chain capture",
			EstimatedDuration: 3 * time.Second,
		},
		{
			Name:              "ssl",
			Category:          CategoryCore,
			Checks:            []string{"tls_handshake"},
			Description:       "TLS certificate and protocol capture on 443",
			EstimatedDuration: 3 * time.Second,
		},

		// --- ANALYSIS ---
		{
			Name:              "active",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"http", "dns"},
			Checks:            []string{"activity_classification"},
			Description:       "Active/inactive classification with captured-domain discovery",
			EstimatedDuration: 1 * time.Second,
		},
		{
			Name:              "content",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"http"},
			Checks:            []string{"content_fetch"},
			Description:       "Page fetch: title, description, language, size",
			EstimatedDuration: 4 * time.Second,
		},
		{
			Name:              "headers",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"content"},
			Checks:            []string{"security_headers"},
			Description:       "Security and server header analysis",
			EstimatedDuration: 1 * time.Second,
		},
		{
			Name:              "security",
			Category:          CategoryAnalysis,
			Dependencies:      []string{"headers", "ssl"},
			Checks:            []string{"security_grade"},
			Description:       "Aggregate security grade from headers and TLS",
			EstimatedDuration: 1 * time.Second,
		},

		// --- INTELLIGENCE ---
		{
			Name:              "seo",
			Category:          CategoryIntelligence,
			Dependencies:      []string{"content"},
			Checks:            []string{"seo_signals"},
			Description:       "Title/description/canonical/H1 checks",
			EstimatedDuration: 1 * time.Second,
		},
		{
			Name:              "tech",
			Category:          CategoryIntelligence,
			Dependencies:      []string{"content", "headers"},
			Checks:            []string{"tech_fingerprint"},
			Description:       "Server and CMS fingerprinting",
			EstimatedDuration: 1 * time.Second,
		},

		// --- META ---
		{
			Name:        "quick-check",
			Category:    CategoryMeta,
			Members:     []string{"quick-whois", "dns", "http", "active"},
			Description: "Cheapest registration + activity pass",
		},
		{
			Name:        "standard",
			Category:    CategoryMeta,
			Members:     []string{"whois", "dns", "http", "ssl", "active", "content", "headers"},
			Description: "Default scan",
		},
		{
			Name:        "monitor",
			Category:    CategoryMeta,
			Members:     []string{monitorWhois, "http", "ssl", "active"},
			Description: "Recurring availability and certificate watch",
		},
		{
			Name:        "complete",
			Category:    CategoryMeta,
			Members:     []string{"standard", "seo", "tech", "security"},
			Description: "Everything",
		},
	})
	if err != nil {
		panic("builtin catalog invalid: " + err.Error())
	}
	return c
}
