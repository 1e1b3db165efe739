package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/arvindk/medcompare/config"
	"github.com/arvindk/medcompare/internal/aggregator"
)

// Serve starts the MCP stdio server with all tools registered.
func Serve(agg *aggregator.Aggregator, cfg *config.Config) error {
	s := server.NewMCPServer(
		"medcompare",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	registerTools(s, agg, cfg)

	return server.ServeStdio(s)
}
