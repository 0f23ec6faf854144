package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/balticscan/domain-analyzer/internal/domainutil"
)

// analyzeTimeout caps one MCP-triggered scan.
const analyzeTimeout = 2 * time.Minute

// availabilityTimeout caps the single DAS round-trip.
const availabilityTimeout = 15 * time.Second

func (s *Server) handleAnalyzeDomain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	args := getArgs(request)
	domain := stringArg(args, "domain", "")
	if domain == "" {
		return errResult("domain is required"), nil
	}
	if !domainutil.IsLithuanian(domainutil.Normalize(domain)) {
		return errResult(fmt.Sprintf("%q is not a .lt domain", domain)), nil
	}
	profiles := stringArg(args, "profiles", "standard")

	results, err := s.orch.RunBatch(ctx, []string{domain}, profiles)
	if err != nil {
		return errResult(fmt.Sprintf("scan failed: %v", err)), nil
	}

	jsonData, err := json.Marshal(results[0])
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

func (s *Server) handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	args := getArgs(request)
	domain := stringArg(args, "domain", "")
	if domain == "" {
		return errResult("domain is required"), nil
	}

	results, err := s.orch.RunBatch(ctx, []string{domain}, "quick-whois")
	if err != nil {
		return errResult(fmt.Sprintf("availability check failed: %v", err)), nil
	}

	result := results[0]
	check, ok := result.Checks["whois"]
	if !ok {
		return errResult("no registry answer"), nil
	}

	summary := map[string]interface{}{
		"domain": result.Domain,
		"status": check.Status,
	}
	if check.Data != nil {
		summary["registration"] = check.Data
	}
	if check.Error != "" {
		summary["error"] = check.Error
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

func (s *Server) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Name         string   `json:"name"`
		Category     string   `json:"category"`
		Dependencies []string `json:"dependencies,omitempty"`
		Members      []string `json:"members,omitempty"`
		Checks       []string `json:"checks,omitempty"`
		Description  string   `json:"description,omitempty"`
	}

	var entries []entry
	for _, p := range s.catalog.All() {
		entries = append(entries, entry{
			Name:         p.Name,
			Category:     string(p.Category),
			Dependencies: p.Dependencies,
			Members:      p.Members,
			Checks:       p.Checks,
			Description:  p.Description,
		})
	}

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// getArgs normalizes the request arguments to a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates a tool-level error result (IsError=true), not a
// transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
