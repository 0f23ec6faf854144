package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/ratelimit"
)

// WHOIS defaults for the .lt registry. The registry documents a hard
// ceiling of 100 queries per 30 minutes on port 43.
const (
	DefaultWhoisServer   = "whois.domreg.lt"
	DefaultWhoisPort     = 43
	DefaultWhoisTimeout  = 5 * time.Second
	DefaultWhoisCapacity = 100
	DefaultWhoisPeriod   = 30 * time.Minute
)

// ErrRateLimited is returned when the WHOIS token bucket is empty.
// Callers degrade gracefully instead of waiting.
var ErrRateLimited = errors.New("whois rate limit exhausted")

// whoisDateLayout is the registry's date format.
const whoisDateLayout = "2006-01-02"

// WhoisConfig configures the port-43 client.
type WhoisConfig struct {
	Server   string
	Port     int
	Timeout  time.Duration
	Capacity int
	Period   time.Duration
}

// WhoisClient enriches registered .lt domains with registrar, dates,
// nameservers and contact fields over port 43. Queries are strictly
// non-blocking against the rate limiter.
type WhoisClient struct {
	addr    string
	timeout time.Duration
	dialer  Dialer
	bucket  *ratelimit.Bucket
	logger  *zap.Logger

	now func() time.Time // test hook for derived date fields
}

// NewWhoisClient creates a WHOIS client with the .lt registry defaults
// for any zero config field.
func NewWhoisClient(cfg WhoisConfig, logger *zap.Logger) *WhoisClient {
	if cfg.Server == "" {
		cfg.Server = DefaultWhoisServer
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultWhoisPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultWhoisTimeout
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultWhoisCapacity
	}
	if cfg.Period == 0 {
		cfg.Period = DefaultWhoisPeriod
	}
	return &WhoisClient{
		addr:    fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		timeout: cfg.Timeout,
		dialer:  &netDialer{d: net.Dialer{Timeout: cfg.Timeout}},
		bucket:  ratelimit.New(cfg.Capacity, cfg.Period),
		logger:  logger,
		now:     time.Now,
	}
}

// TimeUntilAvailable reports how long until the next query would be
// admitted. Used to annotate rate_limited check results.
func (c *WhoisClient) TimeUntilAvailable() time.Duration {
	return c.bucket.TimeUntilToken()
}

// Lookup queries and parses the WHOIS record for domain. When the
// bucket is empty it fails fast with ErrRateLimited; it never waits.
func (c *WhoisClient) Lookup(ctx context.Context, domain string) (*model.WhoisData, error) {
	if !c.bucket.TryAcquire() {
		wait := c.bucket.TimeUntilToken()
		if c.logger != nil {
			c.logger.Warn("whois rate limited",
				zap.String("domain", domain),
				zap.Duration("retry_in", wait))
		}
		return nil, fmt.Errorf("%w: next token in %s", ErrRateLimited, wait.Round(time.Second))
	}

	raw, err := c.query(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("whois query %s: %w", domain, err)
	}
	return parseWhoisResponse(raw, c.now()), nil
}

// query sends "<domain>\r\n" and reads until remote close.
func (c *WhoisClient) query(ctx context.Context, domain string) (string, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := fmt.Fprintf(conn, "%s\r\n", domain); err != nil {
		return "", err
	}
	raw, err := io.ReadAll(conn)
	if err != nil {
		return string(raw), err
	}
	return string(raw), nil
}

// parseWhoisResponse parses the line-oriented .lt WHOIS format. Keys
// are case-exact; "%"-prefixed lines are comments. Field-level parse
// errors are non-fatal: the field is simply absent.
func parseWhoisResponse(raw string, now time.Time) *model.WhoisData {
	data := &model.WhoisData{}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "Domain":
			data.Domain = value
		case "Status":
			data.Status = value
		case "Registered":
			data.Registered = value
		case "Expires":
			data.Expires = value
		case "Registrar":
			data.Registrar = value
		case "Registrar website":
			data.RegistrarWebsite = value
		case "Registrar email":
			data.RegistrarEmail = value
		case "Contact organization":
			data.ContactOrganization = value
		case "Contact email":
			data.ContactEmail = value
		case "Nameserver":
			data.Nameservers = append(data.Nameservers, parseNameserver(value))
		}
	}

	deriveWhoisFields(data, now)
	return data
}

// parseNameserver handles both "<host>" and "<host> [<ip>]" forms.
func parseNameserver(value string) model.Nameserver {
	host, rest, found := strings.Cut(value, " ")
	ns := model.Nameserver{Host: strings.TrimSpace(host)}
	if found {
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
			ns.IP = strings.TrimSpace(rest[1 : len(rest)-1])
		}
	}
	return ns
}

// deriveWhoisFields computes age, expiry distance, and privacy flag.
func deriveWhoisFields(data *model.WhoisData, now time.Time) {
	if t, err := time.Parse(whoisDateLayout, data.Registered); err == nil {
		age := int(now.Sub(t).Hours() / 24)
		data.AgeDays = &age
	}
	if t, err := time.Parse(whoisDateLayout, data.Expires); err == nil {
		days := int(t.Sub(now).Hours() / 24)
		data.DaysUntilExpiry = &days
	}
	data.PrivacyProtected = data.ContactOrganization == ""
}
