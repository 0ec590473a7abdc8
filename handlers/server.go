// ABOUTME: MCP server assembly registering every pursuit tool, resource, and prompt
// ABOUTME: Shared by the mcp command and handler tests
package handlers

import (
	"github.com/harperreed/pursuit/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server backed by coord. Call coord.Load first.
func NewServer(coord *engine.Coordinator, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pursuit",
		Version: version,
	}, nil)

	eng := NewEngagementHandlers(coord)
	vizHandlers := NewVizHandlers(coord)
	resources := NewResourceHandlers(coord)
	prompts := NewPromptHandlers(coord)

	mcp.AddTool(server, &mcp.Tool{Name: "create_engagement", Description: "Create an engagement with its five pursuit phases"}, eng.CreateEngagement)
	mcp.AddTool(server, &mcp.Tool{Name: "query_engagements", Description: "Search engagements by text, phase, status, or staleness"}, eng.QueryEngagements)
	mcp.AddTool(server, &mcp.Tool{Name: "get_engagement", Description: "Fetch the latest copy of an engagement with phases, activities, notes, and recent changes"}, eng.GetEngagement)
	mcp.AddTool(server, &mcp.Tool{Name: "update_engagement", Description: "Update engagement contact details, industry, or deal value"}, eng.UpdateEngagement)
	mcp.AddTool(server, &mcp.Tool{Name: "change_status", Description: "Change engagement status; closed statuses archive the engagement"}, eng.ChangeStatus)
	mcp.AddTool(server, &mcp.Tool{Name: "archive_engagement", Description: "Archive an engagement"}, eng.ArchiveEngagement)
	mcp.AddTool(server, &mcp.Tool{Name: "restore_engagement", Description: "Restore an archived engagement to active"}, eng.RestoreEngagement)
	mcp.AddTool(server, &mcp.Tool{Name: "update_competitors", Description: "Replace the competitor list"}, eng.UpdateCompetitors)
	mcp.AddTool(server, &mcp.Tool{Name: "assign_sales_rep", Description: "Assign or clear the engagement's sales rep"}, eng.AssignSalesRep)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_engagement", Description: "Permanently delete an engagement and every child record"}, eng.DeleteEngagement)

	mcp.AddTool(server, &mcp.Tool{Name: "save_phase", Description: "Set a phase's status, notes, and links"}, eng.SavePhase)
	mcp.AddTool(server, &mcp.Tool{Name: "add_activity", Description: "Log a call, email, meeting, demo, or note"}, eng.AddActivity)
	mcp.AddTool(server, &mcp.Tool{Name: "edit_activity", Description: "Edit an activity's type, date, or description"}, eng.EditActivity)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_activity", Description: "Delete an activity and its comments"}, eng.DeleteActivity)
	mcp.AddTool(server, &mcp.Tool{Name: "add_comment", Description: "Comment on an activity"}, eng.AddComment)
	mcp.AddTool(server, &mcp.Tool{Name: "edit_comment", Description: "Edit a comment"}, eng.EditComment)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_comment", Description: "Delete a comment"}, eng.DeleteComment)

	mcp.AddTool(server, &mcp.Tool{Name: "add_note", Description: "Add a note to one phase of an engagement"}, eng.AddNote)
	mcp.AddTool(server, &mcp.Tool{Name: "edit_note", Description: "Edit a phase note"}, eng.EditNote)
	mcp.AddTool(server, &mcp.Tool{Name: "delete_note", Description: "Delete a phase note"}, eng.DeleteNote)
	mcp.AddTool(server, &mcp.Tool{Name: "add_owner", Description: "Add a team member as an engagement owner"}, eng.AddOwner)
	mcp.AddTool(server, &mcp.Tool{Name: "remove_owner", Description: "Remove an engagement owner"}, eng.RemoveOwner)
	mcp.AddTool(server, &mcp.Tool{Name: "mark_viewed", Description: "Mark an engagement as viewed, clearing its unread count"}, eng.MarkViewed)
	mcp.AddTool(server, &mcp.Tool{Name: "create_share_link", Description: "Issue a read-only share link for an engagement"}, eng.CreateShareLink)
	mcp.AddTool(server, &mcp.Tool{Name: "list_share_links", Description: "List share links issued for an engagement"}, eng.ListShareLinks)
	mcp.AddTool(server, &mcp.Tool{Name: "revoke_share_link", Description: "Revoke a share link"}, eng.RevokeShareLink)

	mcp.AddTool(server, &mcp.Tool{Name: "generate_graph", Description: "Generate a GraphViz graph of the pipeline or one engagement"}, vizHandlers.GenerateGraph)

	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "engagements",
		Name:        "engagements",
		Description: "Every engagement with derived phase, staleness, and unread counts",
		MIMEType:    "application/json",
	}, resources.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:         uriScheme + "pipeline",
		Name:        "pipeline",
		Description: "Pipeline dashboard statistics",
		MIMEType:    "application/json",
	}, resources.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "engagements/{id}",
		Name:        "engagement",
		Description: "One engagement with all of its children",
		MIMEType:    "application/json",
	}, resources.ReadResource)

	for _, p := range Prompts() {
		server.AddPrompt(p, prompts.GetPrompt)
	}
	return server
}
