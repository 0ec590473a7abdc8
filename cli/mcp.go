// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio. The coordinator must already be loaded.
func MCPCommand(ctx context.Context, coord *engine.Coordinator, logger *log.Logger, version string) error {
	logger.Info("starting MCP server", "user", coord.UserID(), "engagements", len(coord.List()))

	server := handlers.NewServer(coord, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
