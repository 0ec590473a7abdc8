// ABOUTME: MCP tool handlers for phase notes, owners, views, and share links
// ABOUTME: Collaboration records that hang off an engagement
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AddNoteInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	Phase        string `json:"phase" jsonschema:"Phase the note belongs to"`
	Text         string `json:"text" jsonschema:"Note text (required)"`
}

func (h *EngagementHandlers) AddNote(ctx context.Context, req *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	if err := required("text", input.Text); err != nil {
		return nil, NoteOutput{}, err
	}
	n, err := h.coord.AddNote(ctx, input.EngagementID, models.PhaseType(strings.ToUpper(input.Phase)), input.Text)
	if err != nil {
		return nil, NoteOutput{}, toolError("add note", err)
	}
	return nil, noteOutput(*n), nil
}

type EditNoteInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	NoteID       string `json:"note_id" jsonschema:"Note ID (required)"`
	Text         string `json:"text" jsonschema:"New note text (required)"`
}

func (h *EngagementHandlers) EditNote(ctx context.Context, req *mcp.CallToolRequest, input EditNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	if err := required("text", input.Text); err != nil {
		return nil, NoteOutput{}, err
	}
	n, err := h.coord.EditNote(ctx, input.EngagementID, input.NoteID, input.Text)
	if err != nil {
		return nil, NoteOutput{}, toolError("edit note", err)
	}
	return nil, noteOutput(*n), nil
}

type NoteRefInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	NoteID       string `json:"note_id" jsonschema:"Note ID (required)"`
}

func (h *EngagementHandlers) DeleteNote(ctx context.Context, req *mcp.CallToolRequest, input NoteRefInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := required("note_id", input.NoteID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := h.coord.DeleteNote(ctx, input.EngagementID, input.NoteID); err != nil {
		return nil, DeletedOutput{}, toolError("delete note", err)
	}
	return nil, DeletedOutput{ID: input.NoteID, Deleted: true}, nil
}

type AddOwnerInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	TeamMemberID string `json:"team_member_id" jsonschema:"Team member ID to add as owner (required)"`
}

func (h *EngagementHandlers) AddOwner(ctx context.Context, req *mcp.CallToolRequest, input AddOwnerInput) (*mcp.CallToolResult, OwnerOutput, error) {
	if err := required("team_member_id", input.TeamMemberID); err != nil {
		return nil, OwnerOutput{}, err
	}
	o, err := h.coord.AddOwner(ctx, input.EngagementID, input.TeamMemberID)
	if err != nil {
		return nil, OwnerOutput{}, toolError("add owner", err)
	}
	return nil, OwnerOutput{ID: o.ID, TeamMemberID: o.TeamMemberID}, nil
}

type RemoveOwnerInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	OwnerID      string `json:"owner_id" jsonschema:"Owner row ID from get_engagement (required)"`
}

func (h *EngagementHandlers) RemoveOwner(ctx context.Context, req *mcp.CallToolRequest, input RemoveOwnerInput) (*mcp.CallToolResult, DeletedOutput, error) {
	if err := required("owner_id", input.OwnerID); err != nil {
		return nil, DeletedOutput{}, err
	}
	if err := h.coord.RemoveOwner(ctx, input.EngagementID, input.OwnerID); err != nil {
		return nil, DeletedOutput{}, toolError("remove owner", err)
	}
	return nil, DeletedOutput{ID: input.OwnerID, Deleted: true}, nil
}

type MarkViewedOutput struct {
	ID            string `json:"id"`
	UnreadChanges int    `json:"unread_changes"`
}

func (h *EngagementHandlers) MarkViewed(ctx context.Context, req *mcp.CallToolRequest, input EngagementIDInput) (*mcp.CallToolResult, MarkViewedOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, MarkViewedOutput{}, err
	}
	if err := h.coord.RecordView(ctx, input.ID, ""); err != nil {
		return nil, MarkViewedOutput{}, toolError("record view", err)
	}
	out := MarkViewedOutput{ID: input.ID}
	if vm, ok := h.coord.Get(input.ID); ok {
		out.UnreadChanges = vm.UnreadChanges
	}
	return nil, out, nil
}

type ShareLinkOutput struct {
	ID        string `json:"id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	IsActive  bool   `json:"is_active"`
	ViewCount int    `json:"view_count"`
}

type ShareLinksOutput struct {
	Links []ShareLinkOutput `json:"links"`
	Count int               `json:"count"`
}

func shareLinkOutput(l models.ShareLink) ShareLinkOutput {
	return ShareLinkOutput{
		ID:        l.ID,
		Token:     l.Token,
		ExpiresAt: l.ExpiresAt.Format(time.RFC3339),
		IsActive:  l.IsActive,
		ViewCount: l.ViewCount,
	}
}

func (h *EngagementHandlers) CreateShareLink(ctx context.Context, req *mcp.CallToolRequest, input EngagementIDInput) (*mcp.CallToolResult, ShareLinkOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, ShareLinkOutput{}, err
	}
	link, err := h.coord.CreateShareLink(ctx, input.ID)
	if err != nil {
		return nil, ShareLinkOutput{}, toolError("create share link", err)
	}
	return nil, shareLinkOutput(*link), nil
}

func (h *EngagementHandlers) ListShareLinks(ctx context.Context, req *mcp.CallToolRequest, input EngagementIDInput) (*mcp.CallToolResult, ShareLinksOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, ShareLinksOutput{}, err
	}
	links, err := h.coord.ListShareLinks(ctx, input.ID)
	if err != nil {
		return nil, ShareLinksOutput{}, toolError("list share links", err)
	}
	out := ShareLinksOutput{Links: make([]ShareLinkOutput, len(links)), Count: len(links)}
	for i, l := range links {
		out.Links[i] = shareLinkOutput(l)
	}
	return nil, out, nil
}

type RevokeShareLinkInput struct {
	EngagementID string `json:"engagement_id" jsonschema:"Engagement ID (required)"`
	LinkID       string `json:"link_id" jsonschema:"Share link ID (required)"`
}

// RevokeShareLink reads the link fresh before revoking, so only a
// concurrent change between the read and the write conflicts.
func (h *EngagementHandlers) RevokeShareLink(ctx context.Context, req *mcp.CallToolRequest, input RevokeShareLinkInput) (*mcp.CallToolResult, ShareLinkOutput, error) {
	if err := required("link_id", input.LinkID); err != nil {
		return nil, ShareLinkOutput{}, err
	}
	links, err := h.coord.ListShareLinks(ctx, input.EngagementID)
	if err != nil {
		return nil, ShareLinkOutput{}, toolError("list share links", err)
	}
	for _, l := range links {
		if l.ID != input.LinkID {
			continue
		}
		if err := h.coord.RevokeShareLink(ctx, l); err != nil {
			return nil, ShareLinkOutput{}, toolError("revoke share link", err)
		}
		l.IsActive = false
		return nil, shareLinkOutput(l), nil
	}
	return nil, ShareLinkOutput{}, toolError("revoke share link", engine.ErrNotFound)
}
