// ABOUTME: MCP prompt handlers for reusable pursuit workflow templates
// ABOUTME: Builds engagement briefs and pipeline reviews from the cached view-models
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	coord *engine.Coordinator
}

func NewPromptHandlers(coord *engine.Coordinator) *PromptHandlers {
	return &PromptHandlers{coord: coord}
}

// Prompts lists the templates GetPrompt serves.
func Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "engagement-brief",
			Description: "Summarize one engagement's phase progress, recent activity, and next steps",
			Arguments: []*mcp.PromptArgument{
				{Name: "engagement_id", Description: "Engagement ID", Required: true},
			},
		},
		{
			Name:        "stale-review",
			Description: "Review every stale engagement and suggest a follow-up for each",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "engagement-brief":
		return h.engagementBrief(request.Params.Arguments)
	case "stale-review":
		return h.staleReview()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) engagementBrief(args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["engagement_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("engagement_id is required")
	}
	vm, ok := h.coord.Get(id)
	if !ok {
		return nil, fmt.Errorf("engagement not found: %s", id)
	}

	var b strings.Builder
	b.WriteString("Please write a short brief for this engagement: where it stands, what happened recently, and what should happen next.\n\n")
	fmt.Fprintf(&b, "Company: %s\n", vm.Company)
	if vm.ContactName != "" {
		fmt.Fprintf(&b, "Contact: %s\n", vm.ContactName)
	}
	fmt.Fprintf(&b, "Status: %s\n", vm.EngagementStatus)
	fmt.Fprintf(&b, "Current phase: %s\n", vm.CurrentPhase)
	if len(vm.OwnerNames) > 0 {
		fmt.Fprintf(&b, "Owners: %s\n", strings.Join(vm.OwnerNames, ", "))
	}
	fmt.Fprintf(&b, "Business days since last activity: %d", vm.DaysSinceActivity)
	if vm.IsStale {
		b.WriteString(" (stale)")
	}
	b.WriteString("\n\nPhases:\n")
	for _, p := range vm.PhaseList() {
		fmt.Fprintf(&b, "- %s: %s\n", p.PhaseType, p.Status)
	}

	if len(vm.Activities) > 0 {
		b.WriteString("\nRecent activities:\n")
		for i, a := range vm.Activities {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s %s: %s\n", formatDate(a.Date), a.Type, a.Description)
		}
	}

	if notes := vm.NotesByPhase[vm.CurrentPhase]; len(notes) > 0 {
		fmt.Fprintf(&b, "\nNotes for %s:\n", vm.CurrentPhase)
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n.Text)
		}
	}

	return userPrompt(fmt.Sprintf("Brief for %s", vm.Company), b.String()), nil
}

func (h *PromptHandlers) staleReview() (*mcp.GetPromptResult, error) {
	var stale []*models.EngagementViewModel
	for _, vm := range h.coord.List() {
		if vm.IsStale {
			stale = append(stale, vm)
		}
	}

	var b strings.Builder
	if len(stale) == 0 {
		b.WriteString("No engagements are stale right now. Suggest how to keep the pipeline moving.\n")
		return userPrompt("Stale engagement review", b.String()), nil
	}

	b.WriteString("These engagements have gone quiet. For each one, suggest a concrete follow-up:\n\n")
	for _, vm := range stale {
		fmt.Fprintf(&b, "- %s (%s, %d business days idle", vm.Company, vm.CurrentPhase, vm.DaysSinceActivity)
		if len(vm.OwnerNames) > 0 {
			fmt.Fprintf(&b, ", owners: %s", strings.Join(vm.OwnerNames, ", "))
		}
		b.WriteString(")\n")
	}
	return userPrompt("Stale engagement review", b.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}
