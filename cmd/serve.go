package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	mcpserver "github.com/arvindk/medcompare/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	agg := buildAggregator()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MedCompare MCP server on stdio...")

	if err := mcpserver.Serve(agg, cfg); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return nil
}
