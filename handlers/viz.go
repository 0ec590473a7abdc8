// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	coord *engine.Coordinator
}

func NewVizHandlers(coord *engine.Coordinator) *VizHandlers {
	return &VizHandlers{coord: coord}
}

type GenerateGraphInput struct {
	Type         string `json:"type" jsonschema:"Graph type: pipeline or engagement"`
	EngagementID string `json:"engagement_id,omitempty" jsonschema:"Engagement ID (required for engagement graphs)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	generator := viz.NewGraphGenerator()
	var dot string
	var err error

	switch input.Type {
	case "pipeline":
		dot, err = generator.GeneratePipelineGraph(ctx, h.coord.List())

	case "engagement":
		if input.EngagementID == "" {
			return nil, GenerateGraphOutput{}, fmt.Errorf("engagement_id required for engagement graph")
		}
		vm, ok := h.coord.Get(input.EngagementID)
		if !ok {
			return nil, GenerateGraphOutput{}, fmt.Errorf("engagement not found: %s", input.EngagementID)
		}
		dot, err = generator.GenerateEngagementGraph(ctx, vm)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, engagement)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
