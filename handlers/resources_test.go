// ABOUTME: Tests for MCP resources, prompts, and graph generation
// ABOUTME: Covers pursuit:// URI routing and prompt templating from cached engagements
package handlers

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readResource(t *testing.T, h *ResourceHandlers, uri string) (*mcp.ReadResourceResult, error) {
	t.Helper()
	return h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
}

func TestReadResources(t *testing.T) {
	coord := newCoordinator(t, setupStore(t), "alice")
	acme := createAcme(t, NewEngagementHandlers(coord))
	h := NewResourceHandlers(coord)

	res, err := readResource(t, h, "pursuit://engagements")
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	var list []EngagementSummary
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Acme Corp", list[0].Company)

	res, err = readResource(t, h, "pursuit://engagements/"+acme.ID)
	require.NoError(t, err)
	var one EngagementOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &one))
	assert.Equal(t, acme.ID, one.ID)
	assert.Len(t, one.Phases, 5)

	res, err = readResource(t, h, "pursuit://pipeline")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "TotalEngagements")

	_, err = readResource(t, h, "pursuit://engagements/missing")
	assert.Error(t, err)
	_, err = readResource(t, h, "crm://contacts")
	assert.ErrorContains(t, err, "invalid URI scheme")
}

func TestPrompts(t *testing.T) {
	coord := newCoordinator(t, setupStore(t), "alice")
	acme := createAcme(t, NewEngagementHandlers(coord))
	h := NewPromptHandlers(coord)
	ctx := context.Background()

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "engagement-brief",
		Arguments: map[string]string{"engagement_id": acme.ID},
	}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Company: Acme Corp")
	assert.Contains(t, text, "DISCOVER: IN_PROGRESS")

	// Started 2024-01-01 with no activity since, so it is stale
	res, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "stale-review"}})
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "Acme Corp")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "engagement-brief"}})
	assert.ErrorContains(t, err, "engagement_id is required")
	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "nope"}})
	assert.Error(t, err)
}

func TestGenerateGraphHandler(t *testing.T) {
	coord := newCoordinator(t, setupStore(t), "alice")
	acme := createAcme(t, NewEngagementHandlers(coord))
	h := NewVizHandlers(coord)
	ctx := context.Background()

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Acme Corp")
	assert.Greater(t, out.EdgeCount, 0)

	_, out, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "engagement", EngagementID: acme.ID})
	require.NoError(t, err)
	assert.Equal(t, "engagement", out.GraphType)

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "engagement"})
	assert.Error(t, err)
	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "contacts"})
	assert.ErrorContains(t, err, "unknown graph type")
}

func TestNewServerRegisters(t *testing.T) {
	coord := newCoordinator(t, setupStore(t), "alice")
	assert.NotNil(t, NewServer(coord, "test"))
}
