package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/ratelimit"
)

// DAS protocol defaults for the .lt registry.
const (
	DefaultDASServer  = "das.domreg.lt"
	DefaultDASPort    = 4343
	DefaultDASTimeout = 5 * time.Second

	// DefaultDASRate is a soft cap well below what the registry
	// tolerates (several dozen queries per second).
	DefaultDASRate = 4.0

	// dasStatsEvery controls periodic stats logging.
	dasStatsEvery = 100
)

// dasRegisteredStatuses are the DAS status values that mean the domain
// exists in the registry. Anything else except "available" is treated
// as unknown.
var dasRegisteredStatuses = map[string]bool{
	"registered":         true,
	"blocked":            true,
	"reserved":           true,
	"restricteddisposal": true,
	"restrictedrights":   true,
	"stopped":            true,
	"pendingcreate":      true,
	"pendingdelete":      true,
	"pendingrelease":     true,
	"outofservice":       true,
}

// DASConfig configures the DAS client.
type DASConfig struct {
	Server       string
	Port         int
	Timeout      time.Duration
	MaxPerSecond float64
}

// DASClient answers "is this .lt domain registered?" in one cheap
// round-trip over the registry's line protocol. Queries are paced by a
// token bucket plus a minimum inter-query interval.
type DASClient struct {
	addr        string
	timeout     time.Duration
	dialer      Dialer
	bucket      *ratelimit.Bucket
	minInterval time.Duration
	logger      *zap.Logger

	mu        sync.Mutex
	lastQuery time.Time
	queries   uint64
	errors    uint64
}

// NewDASClient creates a DAS client. Zero config fields fall back to
// the .lt registry defaults.
func NewDASClient(cfg DASConfig, logger *zap.Logger) *DASClient {
	if cfg.Server == "" {
		cfg.Server = DefaultDASServer
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultDASPort
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultDASTimeout
	}
	if cfg.MaxPerSecond <= 0 {
		cfg.MaxPerSecond = DefaultDASRate
	}
	return &DASClient{
		addr:        fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		timeout:     cfg.Timeout,
		dialer:      &netDialer{d: net.Dialer{Timeout: cfg.Timeout}},
		bucket:      ratelimit.NewPerSecond(cfg.MaxPerSecond),
		minInterval: time.Duration(float64(time.Second) / cfg.MaxPerSecond),
		logger:      logger,
	}
}

// Check queries registration status for domain. Network and protocol
// failures return the conservative answer (Registered == nil, caller
// assumes registered) together with the error.
func (c *DASClient) Check(ctx context.Context, domain string) (*model.RegistrationData, error) {
	data := &model.RegistrationData{Domain: domain}

	if err := c.pace(ctx); err != nil {
		return data, err
	}

	echoed, status, err := c.query(ctx, domain)
	c.countQuery(err)
	if err != nil {
		return data, fmt.Errorf("das query %s: %w", domain, err)
	}
	if echoed != "" {
		data.Domain = echoed
	}
	data.DASStatus = status

	switch {
	case status == "available":
		reg := false
		data.Registered = &reg
	case dasRegisteredStatuses[status]:
		reg := true
		data.Registered = &reg
	default:
		// Unknown status: keep it in the output, leave registration
		// undetermined so the orchestrator does not skip a real domain.
		return data, fmt.Errorf("das query %s: unexpected status %q", domain, status)
	}
	return data, nil
}

// pace enforces the bulk-speed ceiling: take a token (sleeping out an
// empty bucket) and keep the minimum inter-query interval.
func (c *DASClient) pace(ctx context.Context) error {
	for !c.bucket.TryAcquire() {
		wait := c.bucket.TimeUntilToken()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	sleep := c.minInterval - time.Since(c.lastQuery)
	c.lastQuery = time.Now()
	c.mu.Unlock()

	if sleep > 0 {
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// query performs one wire round-trip: send "get 1.0 <domain>\n", read
// until a Status line or remote close.
func (c *DASClient) query(ctx context.Context, domain string) (echoed, status string, err error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	// LF-terminated, no CR. The registry rejects anything else.
	if _, err := fmt.Fprintf(conn, "get 1.0 %s\n", domain); err != nil {
		return "", "", err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Domain:"):
			echoed = strings.TrimSpace(strings.TrimPrefix(line, "Domain:"))
		case strings.HasPrefix(line, "Status:"):
			status = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "Status:")))
			return echoed, status, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return echoed, status, err
	}
	if status == "" {
		return echoed, status, fmt.Errorf("malformed response: no Status line")
	}
	return echoed, status, nil
}

// countQuery updates stats and logs a line every dasStatsEvery queries.
func (c *DASClient) countQuery(err error) {
	c.mu.Lock()
	c.queries++
	if err != nil {
		c.errors++
	}
	queries, errs := c.queries, c.errors
	c.mu.Unlock()

	if queries%dasStatsEvery == 0 && c.logger != nil {
		c.logger.Info("das stats",
			zap.Uint64("queries", queries),
			zap.Uint64("errors", errs),
			zap.Float64("tokens", c.bucket.Tokens()))
	}
}
