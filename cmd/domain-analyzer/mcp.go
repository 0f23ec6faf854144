package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/balticscan/domain-analyzer/internal/config"
	"github.com/balticscan/domain-analyzer/internal/mcp"
	"github.com/balticscan/domain-analyzer/internal/orchestrator"
)

// newMCPCmd starts the stdio MCP server so AI agents can drive scans.
func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start Model Context Protocol (MCP) server",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP).
This lets AI agents (e.g. Claude Desktop, Cursor) analyze .lt domains
interactively.

Communication happens over standard input/output (stdio).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return configError{err}
			}
			// MCP logs must not pollute the stdio protocol stream.
			logger, err := newLogger("error")
			if err != nil {
				return configError{err}
			}
			defer logger.Sync()

			deps, closeStore, err := buildDeps(cfg, logger, false)
			if err != nil {
				return configError{err}
			}
			defer closeStore()

			srv := mcp.NewServer(version, orchestrator.New(deps), deps.Catalog)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	return cmd
}
