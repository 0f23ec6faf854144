package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

const sampleWhoisResponse = "" +
	"% Hello, this is the Lithuanian whois server.\r\n" +
	"% Rate limits apply.\r\n" +
	"Domain: example.lt\r\n" +
	"Status: registered\r\n" +
	"Registered: 2015-03-10\r\n" +
	"Expires: 2026-03-10\r\n" +
	"Registrar: UAB Interneto vizija\r\n" +
	"Registrar website: https://www.iv.lt\r\n" +
	"Registrar email: hostmaster@iv.lt\r\n" +
	"Contact organization: Example UAB\r\n" +
	"Contact email: info@example.lt\r\n" +
	"Nameserver: ns1.example.lt [192.0.2.53]\r\n" +
	"Nameserver: ns2.hoster.lt\r\n"

var whoisNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestParseWhoisResponse(t *testing.T) {
	data := parseWhoisResponse(sampleWhoisResponse, whoisNow)

	if data.Domain != "example.lt" {
		t.Errorf("Domain = %q", data.Domain)
	}
	if data.Status != "registered" {
		t.Errorf("Status = %q", data.Status)
	}
	if data.Registrar != "UAB Interneto vizija" {
		t.Errorf("Registrar = %q", data.Registrar)
	}
	if data.RegistrarWebsite != "https://www.iv.lt" {
		t.Errorf("RegistrarWebsite = %q", data.RegistrarWebsite)
	}
	if data.ContactOrganization != "Example UAB" {
		t.Errorf("ContactOrganization = %q", data.ContactOrganization)
	}

	if len(data.Nameservers) != 2 {
		t.Fatalf("got %d nameservers, want 2", len(data.Nameservers))
	}
	if ns := data.Nameservers[0]; ns.Host != "ns1.example.lt" || ns.IP != "192.0.2.53" {
		t.Errorf("nameserver with glue = %+v", ns)
	}
	if ns := data.Nameservers[1]; ns.Host != "ns2.hoster.lt" || ns.IP != "" {
		t.Errorf("nameserver without glue = %+v", ns)
	}
}

func TestWhoisDerivedFields(t *testing.T) {
	data := parseWhoisResponse(sampleWhoisResponse, whoisNow)

	if data.AgeDays == nil {
		t.Fatal("AgeDays not derived")
	}
	// 2015-03-10 to 2025-03-10: ten years, two leap days within range.
	if *data.AgeDays < 3650 || *data.AgeDays > 3655 {
		t.Errorf("AgeDays = %d, want ~3652", *data.AgeDays)
	}
	if data.DaysUntilExpiry == nil {
		t.Fatal("DaysUntilExpiry not derived")
	}
	if *data.DaysUntilExpiry < 360 || *data.DaysUntilExpiry > 366 {
		t.Errorf("DaysUntilExpiry = %d, want ~365", *data.DaysUntilExpiry)
	}
	if data.PrivacyProtected {
		t.Error("PrivacyProtected true despite Contact organization present")
	}
}

func TestWhoisPrivacyProtected(t *testing.T) {
	raw := "Domain: hidden.lt\nStatus: registered\n"
	data := parseWhoisResponse(raw, whoisNow)
	if !data.PrivacyProtected {
		t.Error("missing Contact organization should mean privacy protected")
	}
}

func TestWhoisFieldErrorsNonFatal(t *testing.T) {
	raw := "Domain: odd.lt\nRegistered: not-a-date\nExpires: also bad\nStatus: registered\n"
	data := parseWhoisResponse(raw, whoisNow)

	if data.Domain != "odd.lt" || data.Status != "registered" {
		t.Errorf("recognized fields lost: %+v", data)
	}
	if data.AgeDays != nil || data.DaysUntilExpiry != nil {
		t.Error("unparseable dates must leave derived fields absent")
	}
}

func TestWhoisCommentAndJunkLines(t *testing.T) {
	raw := "% comment: with colon\nnot a key value line\nDomain: x.lt\n"
	data := parseWhoisResponse(raw, whoisNow)
	if data.Domain != "x.lt" {
		t.Errorf("Domain = %q", data.Domain)
	}
}

// startWhoisServer answers every connection with response after
// reading one CRLF-terminated line.
func startWhoisServer(t *testing.T, response string) (addr string, requests *[]string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	var reqs []string
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				buf := make([]byte, 256)
				n, _ := conn.Read(buf)
				reqs = append(reqs, string(buf[:n]))
				io.WriteString(conn, response)
			}(conn)
		}
	}()
	return ln.Addr().String(), &reqs
}

func newTestWhoisClient(t *testing.T, addr string) *WhoisClient {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	c := NewWhoisClient(WhoisConfig{
		Server:   host,
		Port:     port,
		Timeout:  2 * time.Second,
		Capacity: 100,
		Period:   30 * time.Minute,
	}, nil)
	c.now = func() time.Time { return whoisNow }
	return c
}

func TestWhoisLookupWire(t *testing.T) {
	addr, requests := startWhoisServer(t, sampleWhoisResponse)
	c := newTestWhoisClient(t, addr)

	data, err := c.Lookup(context.Background(), "example.lt")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if data.Domain != "example.lt" {
		t.Errorf("Domain = %q", data.Domain)
	}

	if len(*requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(*requests))
	}
	if got, want := (*requests)[0], "example.lt\r\n"; got != want {
		t.Errorf("request = %q, want %q (CRLF-terminated)", got, want)
	}
}

func TestWhoisRateLimitFailsFast(t *testing.T) {
	addr, _ := startWhoisServer(t, sampleWhoisResponse)
	c := newTestWhoisClient(t, addr)

	// Drain the bucket out of band.
	for c.bucket.TryAcquire() {
	}

	start := time.Now()
	_, err := c.Lookup(context.Background(), "example.lt")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Errorf("rate-limited lookup took %v, must not block", elapsed)
	}
	if c.TimeUntilAvailable() <= 0 {
		t.Error("TimeUntilAvailable should report a positive wait")
	}
}

func TestWhoisAcceptsAnyWhitespaceAfterColon(t *testing.T) {
	raw := "Domain:\texample.lt\nStatus:   registered\n"
	data := parseWhoisResponse(raw, whoisNow)
	if data.Domain != "example.lt" || data.Status != "registered" {
		t.Errorf("whitespace variants not accepted: %+v", data)
	}
}

func TestWhoisKeysCaseExact(t *testing.T) {
	raw := "domain: lower.lt\nDOMAIN: upper.lt\nDomain: exact.lt\n"
	data := parseWhoisResponse(raw, whoisNow)
	if data.Domain != "exact.lt" {
		t.Errorf("Domain = %q, only case-exact key should match", data.Domain)
	}
}
