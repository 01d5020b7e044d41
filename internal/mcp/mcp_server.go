// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the srcmeasure MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"srcmeasure",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: walk_dependencies ---
	s.AddTool(mcp.NewTool("walk_dependencies",
		mcp.WithDescription("List the components reachable from a definition in processing order, with their work item keys. Nothing is measured."),
		mcp.WithString("definition", mcp.Description("Definition identifier relative to the definitions tree, e.g. systems/base-system-x86_64-generic.morph."), mcp.Required()),
		mcp.WithString("definitions_dir", mcp.Description("Path to the definitions tree (defaults to the server's configured tree).")),
		mcp.WithString("order", mcp.Description("Processing order. Defaults to 'reverse'."), mcp.Enum("reverse", "dependency")),
		mcp.WithBoolean("include_root", mcp.Description("Whether the root definition itself is listed. Defaults to true.")),
	), h.handleWalkDependencies)

	// --- 2. Tool: measure_component ---
	s.AddTool(mcp.NewTool("measure_component",
		mcp.WithDescription("Measure source lines and git activity for every unique work item reachable from a definition."),
		mcp.WithString("definition", mcp.Description("Definition identifier relative to the definitions tree."), mcp.Required()),
		mcp.WithString("definitions_dir", mcp.Description("Path to the definitions tree.")),
		mcp.WithString("order", mcp.Description("Processing order."), mcp.Enum("reverse", "dependency")),
		mcp.WithBoolean("include_root", mcp.Description("Whether the root definition itself is measured.")),
		mcp.WithString("line_counter", mcp.Description("Line counter to use. Defaults to 'sloccount'."), mcp.Enum("sloccount", "native")),
		mcp.WithString("on_error", mcp.Description("What to do when one work item fails. Defaults to 'skip'."), mcp.Enum("skip", "abort")),
	), h.handleMeasureComponent)

	return s
}

// StartMCPServer starts the srcmeasure MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
