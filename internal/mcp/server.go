// Package mcp exposes the analyzer over the Model Context Protocol so
// AI agents can scan .lt domains through stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/balticscan/domain-analyzer/internal/catalog"
	"github.com/balticscan/domain-analyzer/internal/orchestrator"
)

// Server wraps the MCP server instance and the scan pipeline behind
// it.
type Server struct {
	mcpServer *server.MCPServer
	orch      *orchestrator.Orchestrator
	catalog   *catalog.Catalog
}

// NewServer creates an MCP server with the analyzer tools registered.
func NewServer(version string, orch *orchestrator.Orchestrator, cat *catalog.Catalog) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer("domain-analyzer", version, server.WithLogging()),
		orch:      orch,
		catalog:   cat,
	}
	s.registerTools()
	return s
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool("analyze_domain",
		mcp.WithDescription("Run a full analysis of a .lt domain: registration, DNS, HTTP, TLS, activity classification, and optional content checks. Returns the complete JSON result."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Domain to analyze, e.g. 'example.lt'"),
		),
		mcp.WithString("profiles",
			mcp.Description("Comma-separated profile set: quick-check, standard, monitor, complete, or individual profiles like dns,http"),
			mcp.DefaultString("standard"),
		),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeDomain)

	availabilityTool := mcp.NewTool("check_availability",
		mcp.WithDescription("Fast DAS registry lookup: is the .lt domain registered or free? One query, no web probing."),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Domain to check, e.g. 'example.lt'"),
		),
	)
	s.mcpServer.AddTool(availabilityTool, s.handleCheckAvailability)

	profilesTool := mcp.NewTool("list_profiles",
		mcp.WithDescription("List the available analysis profiles with their categories, dependencies, and what each one checks."),
	)
	s.mcpServer.AddTool(profilesTool, s.handleListProfiles)
}
