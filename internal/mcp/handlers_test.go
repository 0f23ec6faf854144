package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/balticscan/domain-analyzer/internal/catalog"
	"github.com/balticscan/domain-analyzer/internal/checks"
	"github.com/balticscan/domain-analyzer/internal/config"
	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/orchestrator"
)

func boolPtr(b bool) *bool { return &b }

type stubDAS struct{ registered bool }

func (s *stubDAS) Check(ctx context.Context, domain string) (*model.RegistrationData, error) {
	return &model.RegistrationData{Domain: domain, Registered: boolPtr(s.registered)}, nil
}

type stubWhois struct{}

func (s *stubWhois) Lookup(ctx context.Context, domain string) (*model.WhoisData, error) {
	return &model.WhoisData{Status: "registered"}, nil
}
func (s *stubWhois) TimeUntilAvailable() time.Duration { return 0 }

type stubHTTP struct{}

func (s *stubHTTP) Probe(ctx context.Context, domain string) (*model.HTTPData, error) {
	return &model.HTTPData{
		URL:        "http://" + domain,
		FinalURL:   "http://" + domain + "/",
		StatusCode: 200,
		Reachable:  true,
	}, nil
}

type stubDNS struct{}

func (s *stubDNS) Probe(ctx context.Context, domain string) (*model.DNSData, error) {
	return &model.DNSData{
		Domain:     domain,
		Records:    map[string]model.RecordSet{"A": {Values: []string{"193.219.1.1"}}},
		HasAddress: true,
	}, nil
}

type stubTLS struct{}

func (s *stubTLS) Probe(ctx context.Context, domain string) (*model.TLSData, error) {
	return &model.TLSData{Domain: domain, DaysUntilExpiry: 90, Version: "TLS 1.3"}, nil
}

func testServer(t *testing.T, registered bool) *Server {
	t.Helper()
	cat := catalog.Builtin(catalog.BuiltinOptions{})
	orch := orchestrator.New(orchestrator.Deps{
		Catalog: cat,
		Config:  config.Default(),
		DAS:     &stubDAS{registered: registered},
		Whois:   &stubWhois{},
		HTTP:    &stubHTTP{},
		DNS:     &stubDNS{},
		TLS:     &stubTLS{},
		Checks:  checks.NewRunner(time.Second, 0, nil),
	})
	return NewServer("test", orch, cat)
}

func callRequest(args map[string]interface{}) mcplib.CallToolRequest {
	var req mcplib.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("content = %+v", result.Content)
	}
	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatalf("content type %T", result.Content[0])
	}
	return text.Text
}

func TestCheckAvailabilityRegistered(t *testing.T) {
	s := testServer(t, true)

	result, err := s.handleCheckAvailability(context.Background(),
		callRequest(map[string]interface{}{"domain": "example.lt"}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", textOf(t, result))
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(textOf(t, result)), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["domain"] != "example.lt" {
		t.Errorf("domain = %v", decoded["domain"])
	}
	reg, ok := decoded["registration"].(map[string]interface{})
	if !ok {
		t.Fatalf("registration = %v", decoded["registration"])
	}
	if reg["registered"] != true {
		t.Errorf("registered = %v", reg["registered"])
	}
}

func TestCheckAvailabilityMissingDomain(t *testing.T) {
	s := testServer(t, true)

	result, err := s.handleCheckAvailability(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("missing domain should be a tool error")
	}
}

func TestAnalyzeDomainRejectsForeignTLD(t *testing.T) {
	s := testServer(t, true)

	result, err := s.handleAnalyzeDomain(context.Background(),
		callRequest(map[string]interface{}{"domain": "example.com"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("non-.lt domain should be a tool error")
	}
}

func TestAnalyzeDomainReturnsResult(t *testing.T) {
	s := testServer(t, true)

	result, err := s.handleAnalyzeDomain(context.Background(),
		callRequest(map[string]interface{}{"domain": "example.lt", "profiles": "quick-whois,dns"}))
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", textOf(t, result))
	}

	var decoded model.Result
	if err := json.Unmarshal([]byte(textOf(t, result)), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Domain != "example.lt" {
		t.Errorf("domain = %q", decoded.Domain)
	}
	if decoded.Checks["dns"] == nil {
		t.Error("dns check missing")
	}
}

func TestListProfiles(t *testing.T) {
	s := testServer(t, true)

	result, err := s.handleListProfiles(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	text := textOf(t, result)

	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no profiles listed")
	}
	if !strings.Contains(text, "quick-check") || !strings.Contains(text, "standard") {
		t.Error("meta profiles missing from listing")
	}
}
