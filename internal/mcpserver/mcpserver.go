// Package mcpserver exposes workspace analysis and trash inspection as
// MCP tools over stdio, so LLM assistants can audit a workspace without
// shelling out. Tools never modify the workspace; deletion stays behind
// the interactive clean command.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers the deadwood tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates an MCP server with all tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "deadwood",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_workspace",
		Description: describeScan(),
	}, handleScanWorkspace)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_trash_sessions",
		Description: describeTrashSessions(),
	}, handleListTrashSessions)
}
