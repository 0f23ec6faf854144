package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// TLS probe defaults.
const (
	DefaultTLSPort    = 443
	DefaultTLSTimeout = 5 * time.Second
)

// TLSProber opens a TLS handshake and captures certificate and
// protocol details. Verification is disabled on purpose: the point is
// to report what the site presents, bad certificates included.
type TLSProber struct {
	port    int
	timeout time.Duration
	logger  *zap.Logger

	now func() time.Time // test hook for expiry math
}

// NewTLSProber creates a prober for the given port (0 means 443).
func NewTLSProber(port int, timeout time.Duration, logger *zap.Logger) *TLSProber {
	if port == 0 {
		port = DefaultTLSPort
	}
	if timeout == 0 {
		timeout = DefaultTLSTimeout
	}
	return &TLSProber{port: port, timeout: timeout, logger: logger, now: time.Now}
}

// Probe handshakes with domain:port and extracts the certificate
// chain summary. Handshake failure returns an error with the alert
// reason when the library surfaces one.
func (p *TLSProber) Probe(ctx context.Context, domain string) (*model.TLSData, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName:         domain,
			InsecureSkipVerify: true,
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", domain, p.port))
	if err != nil {
		return nil, fmt.Errorf("tls handshake %s: %w", domain, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	data := &model.TLSData{
		Domain:      domain,
		Version:     tls.VersionName(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
		ChainLength: len(state.PeerCertificates),
	}

	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		data.Issuer = leaf.Issuer.String()
		data.Subject = leaf.Subject.String()
		data.NotBefore = leaf.NotBefore
		data.NotAfter = leaf.NotAfter
		data.SANs = leaf.DNSNames
		data.SelfSigned = len(state.PeerCertificates) == 1 &&
			leaf.Issuer.String() == leaf.Subject.String()
		data.DaysUntilExpiry = int(leaf.NotAfter.Sub(p.now()).Hours() / 24)
	}
	return data, nil
}
