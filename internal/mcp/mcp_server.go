// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the liftwatch MCP server without starting it.
// The runner only needs a record source; the tools never publish.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, runner *core.Runner, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Liftwatch Transit Availability Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		runner:  runner,
	}

	// --- 1. Tool: list_jobs ---
	s.AddTool(mcp.NewTool("list_jobs",
		mcp.WithDescription("List the configured chart jobs with their dataset, grouping, metric and window."),
	), h.handleListJobs)

	// --- 2. Tool: list_periods ---
	s.AddTool(mcp.NewTool("list_periods",
		mcp.WithDescription("List the most recent distinct periods available in a job's dataset."),
		mcp.WithString("job", mcp.Description("Name of the chart job."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Number of periods to return (defaults to the job's recent window).")),
	), h.handleListPeriods)

	// --- 3. Tool: preview_chart ---
	s.AddTool(mcp.NewTool("preview_chart",
		mcp.WithDescription("Fetch and aggregate a chart job without publishing, returning each chart table as JSON."),
		mcp.WithString("job", mcp.Description("Name of the chart job."), mcp.Required()),
		mcp.WithString("period", mcp.Description("Restrict the preview to one period, e.g. '2024-05-01T00:00:00.000'.")),
	), h.handlePreviewChart)

	return s
}

// StartMCPServer serves the liftwatch MCP tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, runner *core.Runner, version string) error {
	s := NewMCPServer(baseCfg, runner, version)
	return server.ServeStdio(s)
}
