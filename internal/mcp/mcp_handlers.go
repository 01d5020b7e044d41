package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/huangsam/srcmeasure/core"
	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// walkItem is one component of a walk_dependencies response.
type walkItem struct {
	Order int    `json:"order"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Key   string `json:"key,omitempty"`
}

// measureResponse is the measure_component response body.
type measureResponse struct {
	Summary *schema.RunSummary     `json:"summary"`
	Results []schema.MetricsRecord `json:"results"`
}

// requestConfig applies the per-call overrides shared by every tool.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	cfg.Root = request.GetString("definition", "")
	if cfg.Root == "" {
		return nil, errors.New("definition is required")
	}
	if dir := request.GetString("definitions_dir", ""); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid definitions_dir %q: %w", dir, err)
		}
		cfg.DefinitionsDir = abs
	}
	if o := request.GetString("order", ""); o != "" {
		cfg.Order = schema.ProcessOrder(o)
		if _, ok := schema.ValidProcessOrders[cfg.Order]; !ok {
			return nil, fmt.Errorf("invalid order %q", o)
		}
	}
	cfg.IncludeRoot = request.GetBool("include_root", cfg.IncludeRoot)
	if lc := request.GetString("line_counter", ""); lc != "" {
		cfg.LineCounter = schema.LineCounterKind(lc)
		if _, ok := schema.ValidLineCounters[cfg.LineCounter]; !ok {
			return nil, fmt.Errorf("invalid line_counter %q", lc)
		}
	}
	if oe := request.GetString("on_error", ""); oe != "" {
		cfg.OnError = schema.FailurePolicy(oe)
		if _, ok := schema.ValidFailurePolicies[cfg.OnError]; !ok {
			return nil, fmt.Errorf("invalid on_error %q", oe)
		}
	}
	return cfg, nil
}

func (h *toolHandler) handleWalkDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	defs, err := core.LoadDefinitions(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := core.PlanWalk(ctx, defs, cfg, cfg.Root)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("walk failed: %v", err)), nil
	}

	items := make([]walkItem, len(records))
	for i, r := range records {
		items[i] = walkItem{Order: i + 1, ID: r.ID, Name: r.DisplayName(), Kind: r.Kind}
		if r.IsMeasurable() {
			items[i].Key = r.Key().String()
		}
	}
	jsonData, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleMeasureComponent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	defs, err := core.LoadDefinitions(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	runner := core.NewRunner(cfg, defs, h.mgr, contract.NopObserver{})
	results, summary, err := runner.Run(ctx, cfg.Root)
	if err != nil && !errors.Is(err, core.ErrAborted) {
		return mcp.NewToolResultError(fmt.Sprintf("measurement failed: %v", err)), nil
	}

	resp := measureResponse{Summary: summary, Results: results.Records()}
	jsonData, _ := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		// Partial results are still useful to the caller
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", err, jsonData)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
