package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tao-shen/CiteTrack-sub002/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can read
cached scholar profiles and citing articles and schedule fetches.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  # Stdio mode (for desktop assistants)
  citetrack mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  citetrack mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "citetrack": {
        "command": "/path/to/citetrack",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Cache:       cacheService,
		Coordinator: coordinator,
		Settings:    settingsService,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
