// Package probe contains the protocol clients a scan runs against
// external sources: the DAS bulk registration protocol, WHOIS port 43,
// HTTP(S), DNS and TLS. Clients are safe for concurrent use; each
// query opens a fresh connection.
package probe

import (
	"context"
	"net"
)

// Dialer abstracts TCP dialing so the line-protocol clients can be
// tested against in-process listeners.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// netDialer is the default Dialer backed by net.Dialer.
type netDialer struct {
	d net.Dialer
}

func (n *netDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return n.d.DialContext(ctx, network, address)
}
