package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	runner  *core.Runner
}

// jobSummary is the list_jobs entry of one job.
type jobSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Dataset     string         `json:"dataset"`
	PeriodField string         `json:"period_field"`
	GroupBy     schema.GroupBy `json:"group_by"`
	Metric      schema.Metric  `json:"metric"`
	Split       string         `json:"split"`
	Window      string         `json:"window"`
	Charts      int            `json:"charts"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleListJobs(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs := make([]jobSummary, 0, len(h.baseCfg.Jobs))
	for _, j := range h.baseCfg.Jobs {
		jobs = append(jobs, jobSummary{
			Name:        j.Name,
			Description: j.Description,
			Dataset:     j.Dataset,
			PeriodField: j.PeriodField,
			GroupBy:     j.Spec.GroupBy,
			Metric:      j.Spec.Metric,
			Split:       string(j.Split),
			Window:      j.Window.Kind(),
			Charts:      len(j.Charts),
		})
	}
	return jsonResult(jobs)
}

func (h *toolHandler) handleListPeriods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, err := h.baseCfg.FindJob(request.GetString("job", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	periods, err := h.runner.ListPeriods(ctx, job, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("period discovery failed: %v", err)), nil
	}
	return jsonResult(periods)
}

func (h *toolHandler) handlePreviewChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, err := h.baseCfg.FindJob(request.GetString("job", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p := request.GetString("period", ""); p != "" {
		if _, err := schema.ParsePeriod(p); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
		}
		job.Window = schema.Window{Periods: []string{p}}
	}

	previews, err := h.runner.Preview(ctx, job)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}
	return jsonResult(previews)
}
