// Package mcpserver exposes the diagram engine over the Model Context
// Protocol, so editor hosts and agents can drive the canvas: pin blocks,
// draw arrows, renumber z-order, undo and redo.
package mcpserver

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rany1024/CodeMapFree/internal/app"
	"github.com/rany1024/CodeMapFree/internal/engine"
)

// Server is the MCP server over one workspace's diagram.
type Server struct {
	mcp        *server.MCPServer
	app        *app.App
	controller *engine.Controller
}

// New creates and configures the MCP server with all diagram tools.
func New(a *app.App) *Server {
	s := &Server{
		app:        a,
		controller: a.Controller(),
	}

	s.mcp = server.NewMCPServer(
		"codemap-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerPageTools()
	s.registerBlockTools()
	s.registerArrowTools()
	s.registerHistoryTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireString fetches a mandatory string argument.
func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// getFloat fetches a numeric argument with a fallback.
func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// getInt fetches an integer argument with a fallback. MCP numbers arrive as
// float64.
func getInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}
