// ABOUTME: MCP tool handlers for engagement lifecycle operations
// ABOUTME: Create, query, edit, status, archive, competitors, sales rep, and cascade delete
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type EngagementHandlers struct {
	coord *engine.Coordinator
}

func NewEngagementHandlers(coord *engine.Coordinator) *EngagementHandlers {
	return &EngagementHandlers{coord: coord}
}

type CreateEngagementInput struct {
	Company         string   `json:"company" jsonschema:"Customer company name (required)"`
	ContactName     string   `json:"contact_name,omitempty" jsonschema:"Primary contact name"`
	ContactEmail    string   `json:"contact_email,omitempty" jsonschema:"Primary contact email"`
	ContactPhone    string   `json:"contact_phone,omitempty" jsonschema:"Primary contact phone"`
	Industry        string   `json:"industry,omitempty" jsonschema:"Industry"`
	DealValue       int64    `json:"deal_value,omitempty" jsonschema:"Deal value in cents"`
	StartDate       string   `json:"start_date,omitempty" jsonschema:"Start date (YYYY-MM-DD, default today)"`
	Competitors     []string `json:"competitors,omitempty" jsonschema:"Competitor codes"`
	OtherCompetitor string   `json:"other_competitor,omitempty" jsonschema:"Free-text competitor when the code is OTHER"`
	SalesRepID      string   `json:"sales_rep_id,omitempty" jsonschema:"Sales rep ID"`
}

func (h *EngagementHandlers) CreateEngagement(ctx context.Context, req *mcp.CallToolRequest, input CreateEngagementInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("company", input.Company); err != nil {
		return nil, EngagementOutput{}, err
	}
	in := engine.NewEngagement{
		Company:         input.Company,
		ContactName:     input.ContactName,
		ContactEmail:    input.ContactEmail,
		ContactPhone:    input.ContactPhone,
		Industry:        input.Industry,
		DealValue:       input.DealValue,
		Competitors:     input.Competitors,
		OtherCompetitor: input.OtherCompetitor,
		SalesRepID:      input.SalesRepID,
	}
	if input.StartDate != "" {
		start, err := parseDate(input.StartDate)
		if err != nil {
			return nil, EngagementOutput{}, err
		}
		in.StartDate = start
	}

	vm, err := h.coord.CreateEngagement(ctx, in)
	if err != nil {
		return nil, EngagementOutput{}, toolError("create engagement", err)
	}
	return nil, engagementOutput(vm), nil
}

type QueryEngagementsInput struct {
	Query           string `json:"query,omitempty" jsonschema:"Case-insensitive match on company, contact, or industry"`
	Phase           string `json:"phase,omitempty" jsonschema:"Only engagements currently in this phase"`
	Status          string `json:"status,omitempty" jsonschema:"Only engagements with this status"`
	StaleOnly       bool   `json:"stale_only,omitempty" jsonschema:"Only stale engagements"`
	IncludeArchived bool   `json:"include_archived,omitempty" jsonschema:"Include archived engagements"`
	Limit           int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 50)"`
}

type QueryEngagementsOutput struct {
	Engagements []EngagementSummary `json:"engagements"`
	Count       int                 `json:"count"`
}

func (h *EngagementHandlers) QueryEngagements(ctx context.Context, req *mcp.CallToolRequest, input QueryEngagementsInput) (*mcp.CallToolResult, QueryEngagementsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 50
	}
	if input.Phase != "" && !models.PhaseType(strings.ToUpper(input.Phase)).IsValid() {
		return nil, QueryEngagementsOutput{}, fmt.Errorf("invalid phase: %s", input.Phase)
	}

	out := QueryEngagementsOutput{Engagements: []EngagementSummary{}}
	for _, vm := range FilterEngagements(h.coord.List(), input) {
		if len(out.Engagements) == input.Limit {
			break
		}
		out.Engagements = append(out.Engagements, summaryOutput(vm))
	}
	out.Count = len(out.Engagements)
	return nil, out, nil
}

// FilterEngagements applies the query criteria to vms, keeping their order.
func FilterEngagements(vms []*models.EngagementViewModel, input QueryEngagementsInput) []*models.EngagementViewModel {
	q := strings.ToLower(strings.TrimSpace(input.Query))
	var out []*models.EngagementViewModel
	for _, vm := range vms {
		if vm.IsArchived && !input.IncludeArchived {
			continue
		}
		if input.Phase != "" && !strings.EqualFold(string(vm.CurrentPhase), input.Phase) {
			continue
		}
		if input.Status != "" && !strings.EqualFold(string(vm.EngagementStatus), input.Status) {
			continue
		}
		if input.StaleOnly && !vm.IsStale {
			continue
		}
		if q != "" && !matches(vm, q) {
			continue
		}
		out = append(out, vm)
	}
	return out
}

func matches(vm *models.EngagementViewModel, q string) bool {
	for _, s := range []string{vm.Company, vm.ContactName, vm.ContactEmail, vm.Industry} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

type GetEngagementInput struct {
	ID         string `json:"id" jsonschema:"Engagement ID (required)"`
	MarkViewed bool   `json:"mark_viewed,omitempty" jsonschema:"Record that you viewed this engagement, resetting its unread count"`
}

// GetEngagement re-reads the engagement from the store so agents always see
// the latest record and revisions.
func (h *EngagementHandlers) GetEngagement(ctx context.Context, req *mcp.CallToolRequest, input GetEngagementInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.Refresh(ctx, input.ID)
	if err != nil {
		return nil, EngagementOutput{}, toolError("get engagement", err)
	}
	if input.MarkViewed {
		if err := h.coord.RecordView(ctx, input.ID, ""); err != nil {
			return nil, EngagementOutput{}, toolError("record view", err)
		}
		vm, _ = h.coord.Get(input.ID)
	}
	return nil, engagementOutput(vm), nil
}

type UpdateEngagementInput struct {
	ID           string  `json:"id" jsonschema:"Engagement ID (required)"`
	Company      *string `json:"company,omitempty" jsonschema:"New company name"`
	ContactName  *string `json:"contact_name,omitempty" jsonschema:"New contact name"`
	ContactEmail *string `json:"contact_email,omitempty" jsonschema:"New contact email"`
	ContactPhone *string `json:"contact_phone,omitempty" jsonschema:"New contact phone"`
	Industry     *string `json:"industry,omitempty" jsonschema:"New industry"`
	DealValue    *int64  `json:"deal_value,omitempty" jsonschema:"New deal value in cents"`
}

func (h *EngagementHandlers) UpdateEngagement(ctx context.Context, req *mcp.CallToolRequest, input UpdateEngagementInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.UpdateDetails(ctx, input.ID, engine.EngagementDetails{
		Company:      input.Company,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		Industry:     input.Industry,
		DealValue:    input.DealValue,
	})
	if err != nil {
		return nil, EngagementOutput{}, toolError("update engagement", err)
	}
	return nil, engagementOutput(vm), nil
}

type ChangeStatusInput struct {
	ID     string `json:"id" jsonschema:"Engagement ID (required)"`
	Status string `json:"status" jsonschema:"New status: ACTIVE, ON_HOLD, UNRESPONSIVE, WON, LOST, NO_DECISION, DISQUALIFIED"`
	Reason string `json:"reason,omitempty" jsonschema:"Why the engagement closed (closed statuses only)"`
}

func (h *EngagementHandlers) ChangeStatus(ctx context.Context, req *mcp.CallToolRequest, input ChangeStatusInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	status := models.EngagementStatus(strings.ToUpper(input.Status))
	vm, err := h.coord.ChangeStatus(ctx, input.ID, status, input.Reason)
	if err != nil {
		return nil, EngagementOutput{}, toolError("change status", err)
	}
	return nil, engagementOutput(vm), nil
}

type EngagementIDInput struct {
	ID string `json:"id" jsonschema:"Engagement ID (required)"`
}

func (h *EngagementHandlers) ArchiveEngagement(ctx context.Context, req *mcp.CallToolRequest, input EngagementIDInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.Archive(ctx, input.ID)
	if err != nil {
		return nil, EngagementOutput{}, toolError("archive engagement", err)
	}
	return nil, engagementOutput(vm), nil
}

func (h *EngagementHandlers) RestoreEngagement(ctx context.Context, req *mcp.CallToolRequest, input EngagementIDInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.Restore(ctx, input.ID)
	if err != nil {
		return nil, EngagementOutput{}, toolError("restore engagement", err)
	}
	return nil, engagementOutput(vm), nil
}

type UpdateCompetitorsInput struct {
	ID              string   `json:"id" jsonschema:"Engagement ID (required)"`
	Competitors     []string `json:"competitors" jsonschema:"Full replacement list of competitor codes"`
	OtherCompetitor string   `json:"other_competitor,omitempty" jsonschema:"Free-text competitor when the list contains OTHER"`
}

func (h *EngagementHandlers) UpdateCompetitors(ctx context.Context, req *mcp.CallToolRequest, input UpdateCompetitorsInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.UpdateCompetitors(ctx, input.ID, input.Competitors, input.OtherCompetitor)
	if err != nil {
		return nil, EngagementOutput{}, toolError("update competitors", err)
	}
	return nil, engagementOutput(vm), nil
}

type AssignSalesRepInput struct {
	ID         string `json:"id" jsonschema:"Engagement ID (required)"`
	SalesRepID string `json:"sales_rep_id" jsonschema:"Sales rep ID, or empty to unassign"`
}

func (h *EngagementHandlers) AssignSalesRep(ctx context.Context, req *mcp.CallToolRequest, input AssignSalesRepInput) (*mcp.CallToolResult, EngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, EngagementOutput{}, err
	}
	vm, err := h.coord.AssignSalesRep(ctx, input.ID, input.SalesRepID)
	if err != nil {
		return nil, EngagementOutput{}, toolError("assign sales rep", err)
	}
	return nil, engagementOutput(vm), nil
}

type DeleteEngagementInput struct {
	ID      string `json:"id" jsonschema:"Engagement ID (required)"`
	Confirm bool   `json:"confirm" jsonschema:"Must be true; deletion removes every child record"`
}

type DeleteEngagementOutput struct {
	ID            string         `json:"id"`
	Company       string         `json:"company,omitempty"`
	CorrelationID string         `json:"correlation_id"`
	Removed       map[string]int `json:"removed"`
}

func (h *EngagementHandlers) DeleteEngagement(ctx context.Context, req *mcp.CallToolRequest, input DeleteEngagementInput) (*mcp.CallToolResult, DeleteEngagementOutput, error) {
	if err := required("id", input.ID); err != nil {
		return nil, DeleteEngagementOutput{}, err
	}
	if !input.Confirm {
		return nil, DeleteEngagementOutput{}, fmt.Errorf("refusing to delete %s without confirm=true", input.ID)
	}
	audit, err := h.coord.DeleteEngagement(ctx, input.ID)
	if err != nil {
		return nil, DeleteEngagementOutput{}, toolError("delete engagement", err)
	}
	return nil, DeleteEngagementOutput{
		ID:            audit.EngagementID,
		Company:       audit.Company,
		CorrelationID: audit.CorrelationID,
		Removed:       audit.Removed,
	}, nil
}
