// ABOUTME: MCP resource handlers for exposing engagement data
// ABOUTME: Provides read-only access to engagements and the pipeline via pursuit:// URIs
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "pursuit://"

type ResourceHandlers struct {
	coord *engine.Coordinator
	now   func() time.Time
}

func NewResourceHandlers(coord *engine.Coordinator) *ResourceHandlers {
	return &ResourceHandlers{coord: coord, now: time.Now}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch parts[0] {
	case "engagements":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllEngagements(uri)
		}
		return h.readEngagement(uri, parts[1])
	case "pipeline":
		return h.readPipeline(uri)
	default:
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
}

func (h *ResourceHandlers) readAllEngagements(uri string) (*mcp.ReadResourceResult, error) {
	vms := h.coord.List()
	out := make([]EngagementSummary, len(vms))
	for i, vm := range vms {
		out[i] = summaryOutput(vm)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readEngagement(uri, id string) (*mcp.ReadResourceResult, error) {
	vm, ok := h.coord.Get(id)
	if !ok {
		return nil, fmt.Errorf("resource not found: %s", uri)
	}
	return jsonResource(uri, engagementOutput(vm))
}

func (h *ResourceHandlers) readPipeline(uri string) (*mcp.ReadResourceResult, error) {
	return jsonResource(uri, viz.GenerateDashboardStats(h.coord.List(), h.now()))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
