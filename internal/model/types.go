// Package model defines the data types for scan output. A scan emits
// one Result per domain; results are serialized to JSON, exported to
// files, and persisted as opaque blobs by the store.
// Schema version: 1.0.0
package model

import "time"

// SchemaVersion identifies the result record layout.
const SchemaVersion = "1.0.0"

// Status classifies a whole-domain scan outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// CheckStatus classifies one check's outcome inside a scan.
type CheckStatus string

const (
	CheckSuccess     CheckStatus = "success"
	CheckError       CheckStatus = "error"
	CheckRateLimited CheckStatus = "rate_limited"
	CheckSkipped     CheckStatus = "skipped"
)

// Skip reasons for gated-out domains.
const (
	SkipUnregistered = "unregistered"
	SkipInactive     = "inactive"
)

// --- Result: top-level per-domain output ---

// Result is the complete output for one scanned domain.
type Result struct {
	Domain     string                  `json:"domain"`
	Status     Status                  `json:"status"`
	SkipReason string                  `json:"skip_reason,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Checks     map[string]*CheckResult `json:"checks"`
	Summary    Summary                 `json:"summary"`
	Meta       Meta                    `json:"meta"`
}

// CheckResult is the normalized output of any check. Data holds the
// check-specific payload and may be nil.
type CheckResult struct {
	Status CheckStatus `json:"status"`
	Data   interface{} `json:"data"`
	Error  string      `json:"error,omitempty"`
	// Kind tags the error class: "timeout", "connect", "tls",
	// "protocol".
	Kind string `json:"kind,omitempty"`
	// TimeUntilAvailableSec is set on rate_limited results.
	TimeUntilAvailableSec float64 `json:"time_until_available_sec,omitempty"`
	DurationMs            int64   `json:"duration_ms,omitempty"`
}

// Summary is the pre-computed per-domain assessment.
type Summary struct {
	Reachable bool     `json:"reachable"`
	HTTPS     bool     `json:"https"`
	Issues    []string `json:"issues"`
	Warnings  []string `json:"warnings"`
	Grade     string   `json:"grade"`
}

// Meta identifies the scan run and the resolved profile plan.
type Meta struct {
	Timestamp        string       `json:"timestamp"`
	ExecutionTimeSec float64      `json:"execution_time_sec"`
	SchemaVersion    string       `json:"schema_version"`
	TaskID           string       `json:"task_id,omitempty"`
	Profiles         ProfilesMeta `json:"profiles"`
}

// ProfilesMeta records how the requested profile set resolved.
type ProfilesMeta struct {
	Requested      []string   `json:"requested"`
	Expanded       []string   `json:"expanded"`
	Executed       []string   `json:"executed"`
	ExecutionOrder []string   `json:"execution_order"`
	ParallelGroups [][]string `json:"parallel_groups"`
}

// --- Typed data structs per check ---

// RegistrationData is the whois-gate payload: DAS answer plus the
// port-43 enrichment when it ran.
type RegistrationData struct {
	Domain    string `json:"domain"`
	DASStatus string `json:"das_status,omitempty"`
	// Registered is tri-state: nil means the registry could not be
	// asked or answered unexpectedly.
	Registered *bool      `json:"registered"`
	Whois      *WhoisData `json:"whois,omitempty"`
}

// WhoisData holds the parsed port-43 response for a .lt domain.
type WhoisData struct {
	Domain              string       `json:"domain,omitempty"`
	Status              string       `json:"status,omitempty"`
	Registered          string       `json:"registered,omitempty"` // YYYY-MM-DD
	Expires             string       `json:"expires,omitempty"`    // YYYY-MM-DD
	Registrar           string       `json:"registrar,omitempty"`
	RegistrarWebsite    string       `json:"registrar_website,omitempty"`
	RegistrarEmail      string       `json:"registrar_email,omitempty"`
	ContactOrganization string       `json:"contact_organization,omitempty"`
	ContactEmail        string       `json:"contact_email,omitempty"`
	Nameservers         []Nameserver `json:"nameservers,omitempty"`

	AgeDays          *int `json:"age_days,omitempty"`
	DaysUntilExpiry  *int `json:"days_until_expiry,omitempty"`
	PrivacyProtected bool `json:"privacy_protected"`
}

// Nameserver is one Nameserver line; IP is present only for the
// "<host> [<ip>]" glue form.
type Nameserver struct {
	Host string `json:"host"`
	IP   string `json:"ip,omitempty"`
}

// HTTPData is the HTTP probe payload.
type HTTPData struct {
	URL            string   `json:"url"`
	FinalURL       string   `json:"final_url,omitempty"`
	StatusCode     int      `json:"status_code,omitempty"`
	Method         string   `json:"method,omitempty"`
	RedirectChain  []string `json:"redirect_chain,omitempty"`
	ResponseTimeMs int64    `json:"response_time_ms"`
	HTTPS          bool     `json:"https"`
	Reachable      bool     `json:"reachable"`
	ErrorKind      string   `json:"error_kind,omitempty"`
}

// DNSData is the DNS probe payload, keyed by record type.
type DNSData struct {
	Domain  string               `json:"domain"`
	Records map[string]RecordSet `json:"records"`
	// HasAddress reports whether any A or AAAA record resolved.
	HasAddress bool `json:"has_address"`
}

// RecordSet holds one record type's answers.
type RecordSet struct {
	Values []string `json:"values"`
	TTL    uint32   `json:"ttl,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// TLSData is the TLS probe payload.
type TLSData struct {
	Domain          string    `json:"domain"`
	Issuer          string    `json:"issuer,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	NotBefore       time.Time `json:"not_before,omitempty"`
	NotAfter        time.Time `json:"not_after,omitempty"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
	SANs            []string  `json:"sans,omitempty"`
	Version         string    `json:"version,omitempty"`
	CipherSuite     string    `json:"cipher_suite,omitempty"`
	ChainLength     int       `json:"chain_length,omitempty"`
	SelfSigned      bool      `json:"self_signed,omitempty"`
}

// ActiveData is the activity-classification payload.
type ActiveData struct {
	Active          bool     `json:"active"`
	Reason          string   `json:"reason,omitempty"`
	HasDNS          bool     `json:"has_dns"`
	Responds        bool     `json:"responds"`
	StatusCode      int      `json:"status_code,omitempty"`
	FinalURL        string   `json:"final_url,omitempty"`
	RedirectChain   []string `json:"redirect_chain,omitempty"`
	CapturedDomains []string `json:"captured_domains,omitempty"`
}

// Activity reasons, first-match order per the analyzer.
const (
	ReasonNoDNS           = "no_dns"
	ReasonServerError     = "server_error"
	ReasonOffsiteRedirect = "offsite_redirect"
	ReasonUnreachable     = "unreachable"
)

// ContentData is the content check payload.
type ContentData struct {
	FetchedURL      string            `json:"fetched_url"`
	StatusCode      int               `json:"status_code"`
	SizeBytes       int               `json:"size_bytes"`
	Truncated       bool              `json:"truncated,omitempty"`
	Title           string            `json:"title,omitempty"`
	MetaDescription string            `json:"meta_description,omitempty"`
	Language        string            `json:"language,omitempty"`
	Lithuanian      bool              `json:"lithuanian_content"`
	Generator       string            `json:"generator,omitempty"`
	Canonical       string            `json:"canonical,omitempty"`
	H1Count         int               `json:"h1_count"`
	Headers         map[string]string `json:"headers,omitempty"`
}

// HeadersData is the security-headers check payload.
type HeadersData struct {
	Present map[string]string `json:"present"`
	Missing []string          `json:"missing"`
	Server  string            `json:"server,omitempty"`
	Powered string            `json:"powered_by,omitempty"`
}

// SecurityData is the aggregate security check payload.
type SecurityData struct {
	Grade    string   `json:"grade"`
	Score    int      `json:"score"`
	Findings []string `json:"findings,omitempty"`
}

// SEOData is the SEO check payload.
type SEOData struct {
	TitleLength       int      `json:"title_length"`
	DescriptionLength int      `json:"description_length"`
	HasCanonical      bool     `json:"has_canonical"`
	HasH1             bool     `json:"has_h1"`
	Issues            []string `json:"issues,omitempty"`
}

// TechData is the technology-fingerprint check payload.
type TechData struct {
	Server    string   `json:"server,omitempty"`
	Powered   string   `json:"powered_by,omitempty"`
	Generator string   `json:"generator,omitempty"`
	Detected  []string `json:"detected,omitempty"`
}
