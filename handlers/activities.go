// ABOUTME: MCP tool handlers for phases, activities, and comments
// ABOUTME: Phase saves and the activity timeline with its comment threads
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SavePhaseInput struct {
	EngagementID string       `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	Phase        string       `json:"phase" jsonschema:"Phase: DISCOVER, QUALIFY, DESIGN, PROPOSE, CLOSE"`
	Status       string       `json:"status" jsonschema:"Phase status: PENDING, IN_PROGRESS, COMPLETE, BLOCKED, SKIPPED"`
	Notes        *string      `json:"notes,omitempty" jsonschema:"Replace the phase notes"`
	Links        *[]LinkInput `json:"links,omitempty" jsonschema:"Replace the phase links"`
}

type LinkInput struct {
	Title string `json:"title" jsonschema:"Link title"`
	URL   string `json:"url" jsonschema:"Link URL"`
}

func (h *EngagementHandlers) SavePhase(ctx context.Context, req *mcp.CallToolRequest, input SavePhaseInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("engagement_id", input.EngagementID); err != nil {
		return nil, EngagementOutput{}, err
	}
	upd := engine.PhaseUpdate{
		Status: models.PhaseStatus(strings.ToUpper(input.Status)),
		Notes:  input.Notes,
	}
	if input.Links != nil {
		links := make([]engine.LinkInput, len(*input.Links))
		for i, l := range *input.Links {
			links[i] = engine.LinkInput{Title: l.Title, URL: l.URL}
		}
		upd.Links = &links
	}

	vm, err := h.coord.SavePhase(ctx, input.EngagementID, models.PhaseType(strings.ToUpper(input.Phase)), upd)
	if err != nil {
		return nil, EngagementOutput{}, toolError("save phase", err)
	}
	return nil, engagementOutput(vm), nil
}

type AddActivityInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	Type         string `json:"type" jsonschema:"Activity type: CALL, EMAIL, MEETING, DEMO, NOTE"`
	Date         string `json:"date,omitempty" jsonschema:"Activity date (YYYY-MM-DD, default today)"`
	Description  string `json:"description,omitempty" jsonschema:"What happened"`
}

func (h *EngagementHandlers) AddActivity(ctx context.Context, req *mcp.CallToolRequest, input AddActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if err := required("engagement_id", input.EngagementID); err != nil {
		return nil, ActivityOutput{}, err
	}
	date := time.Now().UTC()
	if input.Date != "" {
		d, err := parseDate(input.Date)
		if err != nil {
			return nil, ActivityOutput{}, err
		}
		date = d
	}

	act, err := h.coord.AddActivity(ctx, input.EngagementID, engine.NewActivity{
		Type:        strings.ToUpper(input.Type),
		Date:        date,
		Description: input.Description,
	})
	if err != nil {
		return nil, ActivityOutput{}, toolError("add activity", err)
	}
	return nil, activityOutput(*act, nil), nil
}

type EditActivityInput struct {
	EngagementID string  `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	ActivityID   string  `json:"activity_id" jsonschema:"Activity ID (required)"`
	Type         *string `json:"type,omitempty" jsonschema:"New activity type"`
	Date         *string `json:"date,omitempty" jsonschema:"New activity date (YYYY-MM-DD)"`
	Description  *string `json:"description,omitempty" jsonschema:"New description"`
}

func (h *EngagementHandlers) EditActivity(ctx context.Context, req *mcp.CallToolRequest, input EditActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	if err := required("activity_id", input.ActivityID); err != nil {
		return nil, ActivityOutput{}, err
	}
	edit := engine.ActivityEdit{Description: input.Description}
	if input.Type != nil {
		t := strings.ToUpper(*input.Type)
		edit.Type = &t
	}
	if input.Date != nil {
		d, err := parseDate(*input.Date)
		if err != nil {
			return nil, ActivityOutput{}, err
		}
		edit.Date = &d
	}

	act, err := h.coord.EditActivity(ctx, input.EngagementID, input.ActivityID, edit)
	if err != nil {
		return nil, ActivityOutput{}, toolError("edit activity", err)
	}
	return nil, activityOutput(*act, h.comments(input.EngagementID, input.ActivityID)), nil
}

type ActivityRefInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	ActivityID   string `json:"activity_id" jsonschema:"Activity ID (required)"`
}

type DeletedOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *EngagementHandlers) DeleteActivity(ctx context.Context, req *mcp.CallToolRequest, input ActivityRefInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := required("activity_id", input.ActivityID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := h.coord.DeleteActivity(ctx, input.EngagementID, input.ActivityID); err != nil {
		return nil, DeletedOutput{}, toolError("delete activity", err)
	}
	return nil, DeletedOutput{ID: input.ActivityID, Deleted: true}, nil
}

type AddCommentInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	ActivityID   string `json:"activity_id" jsonschema:"Activity ID (required)"`
	Content      string `json:"content" jsonschema:"Comment text (required)"`
}

func (h *EngagementHandlers) AddComment(ctx context.Context, req *mcp.CallToolRequest, input AddCommentInput) (*mcp.CallToolResult, CommentOutput, error) {
	if err := required("content", input.Content); err != nil {
		return nil, CommentOutput{}, err
	}
	c, err := h.coord.AddComment(ctx, input.EngagementID, input.ActivityID, input.Content)
	if err != nil {
		return nil, CommentOutput{}, toolError("add comment", err)
	}
	return nil, commentOutput(*c), nil
}

type EditCommentInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	ActivityID   string `json:"activity_id" jsonschema:"Activity ID (required)"`
	CommentID    string `json:"comment_id" jsonschema:"Comment ID (required)"`
	Content      string `json:"content" jsonschema:"New comment text (required)"`
}

func (h *EngagementHandlers) EditComment(ctx context.Context, req *mcp.CallToolRequest, input EditCommentInput) (*mcp.CallToolResult, CommentOutput, error) {
	if err := required("content", input.Content); err != nil {
		return nil, CommentOutput{}, err
	}
	c, err := h.coord.EditComment(ctx, input.EngagementID, input.ActivityID, input.CommentID, input.Content)
	if err != nil {
		return nil, CommentOutput{}, toolError("edit comment", err)
	}
	return nil, commentOutput(*c), nil
}

type CommentRefInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	ActivityID   string `json:"activity_id" jsonschema:"Activity ID (required)"`
	CommentID    string `json:"comment_id" jsonschema:"Comment ID (required)"`
}

func (h *EngagementHandlers) DeleteComment(ctx context.Context, req *mcp.CallToolRequest, input CommentRefInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := required("comment_id", input.CommentID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := h.coord.DeleteComment(ctx, input.EngagementID, input.ActivityID, input.CommentID); err != nil {
		return nil, DeletedOutput{}, toolError("delete comment", err)
	}
	return nil, DeletedOutput{ID: input.CommentID, Deleted: true}, nil
}

func (h *EngagementHandlers) comments(engagementID, activityID string) []models.Comment {
	vm, ok := h.coord.Get(engagementID)
	if !ok {
		return nil
	}
	if i := vm.FindActivity(activityID); i >= 0 {
		return vm.Activities[i].Comments
	}
	return nil
}
