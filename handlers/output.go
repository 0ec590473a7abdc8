// ABOUTME: JSON output shapes for MCP tools and resources
// ABOUTME: Converts engine view-models into snake_case tool results
package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
)

const dateLayout = "2006-01-02"

type EngagementSummary struct {
	ID                string   `json:"id"`
	Company           string   `json:"company"`
	Status            string   `json:"status"`
	CurrentPhase      string   `json:"current_phase"`
	DealValue         int64    `json:"deal_value,omitempty"`
	SalesRep          string   `json:"sales_rep,omitempty"`
	Owners            []string `json:"owners"`
	LastActivity      string   `json:"last_activity"`
	DaysSinceActivity int      `json:"days_since_activity"`
	IsStale           bool     `json:"is_stale"`
	IsArchived        bool     `json:"is_archived"`
	UnreadChanges     int      `json:"unread_changes"`
	UpdatedAt         string   `json:"updated_at"`
}

type PhaseOutput struct {
	ID            string       `json:"id,omitempty"`
	Phase         string       `json:"phase"`
	Status        string       `json:"status"`
	CompletedDate string       `json:"completed_date,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Links         []LinkOutput `json:"links,omitempty"`
}

type LinkOutput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type CommentOutput struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

type ActivityOutput struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`
	Comments    []CommentOutput `json:"comments"`
}

type NoteOutput struct {
	ID        string `json:"id"`
	Phase     string `json:"phase"`
	Text      string `json:"text"`
	AuthorID  string `json:"author_id"`
	CreatedAt string `json:"created_at"`
}

type OwnerOutput struct {
	ID           string `json:"id"`
	TeamMemberID string `json:"team_member_id"`
}

type ChangeOutput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
}

type EngagementOutput struct {
	ID                string           `json:"id"`
	Company           string           `json:"company"`
	ContactName       string           `json:"contact_name,omitempty"`
	ContactEmail      string           `json:"contact_email,omitempty"`
	ContactPhone      string           `json:"contact_phone,omitempty"`
	Industry          string           `json:"industry,omitempty"`
	DealValue         int64            `json:"deal_value,omitempty"`
	StartDate         string           `json:"start_date"`
	Status            string           `json:"status"`
	ClosedReason      string           `json:"closed_reason,omitempty"`
	CurrentPhase      string           `json:"current_phase"`
	Competitors       []string         `json:"competitors,omitempty"`
	OtherCompetitor   string           `json:"other_competitor,omitempty"`
	SalesRep          string           `json:"sales_rep,omitempty"`
	OwnerNames        []string         `json:"owner_names"`
	Owners            []OwnerOutput    `json:"owners"`
	LastActivity      string           `json:"last_activity"`
	DaysSinceActivity int              `json:"days_since_activity"`
	IsStale           bool             `json:"is_stale"`
	IsArchived        bool             `json:"is_archived"`
	UnreadChanges     int              `json:"unread_changes"`
	Phases            []PhaseOutput    `json:"phases"`
	Activities        []ActivityOutput `json:"activities"`
	Notes             []NoteOutput     `json:"notes"`
	TotalNotes        int              `json:"total_notes"`
	RecentChanges     []ChangeOutput   `json:"recent_changes"`
	UpdatedAt         string           `json:"updated_at"`
}

// maxRecentChanges caps the change history returned with an engagement.
const maxRecentChanges = 20

func summaryOutput(vm *models.EngagementViewModel) EngagementSummary {
	return EngagementSummary{
		ID:                vm.ID,
		Company:           vm.Company,
		Status:            string(vm.EngagementStatus),
		CurrentPhase:      string(vm.CurrentPhase),
		DealValue:         vm.DealValue,
		SalesRep:          vm.SalesRepName,
		Owners:            vm.OwnerNames,
		LastActivity:      formatDate(vm.LastActivity),
		DaysSinceActivity: vm.DaysSinceActivity,
		IsStale:           vm.IsStale,
		IsArchived:        vm.IsArchived,
		UnreadChanges:     vm.UnreadChanges,
		UpdatedAt:         vm.UpdatedAt.Format(time.RFC3339),
	}
}

func engagementOutput(vm *models.EngagementViewModel) EngagementOutput {
	out := EngagementOutput{
		ID:                vm.ID,
		Company:           vm.Company,
		ContactName:       vm.ContactName,
		ContactEmail:      vm.ContactEmail,
		ContactPhone:      vm.ContactPhone,
		Industry:          vm.Industry,
		DealValue:         vm.DealValue,
		StartDate:         formatDate(vm.StartDate),
		Status:            string(vm.EngagementStatus),
		ClosedReason:      vm.ClosedReason,
		CurrentPhase:      string(vm.CurrentPhase),
		Competitors:       vm.Competitors,
		OtherCompetitor:   vm.OtherCompetitor,
		SalesRep:          vm.SalesRepName,
		OwnerNames:        vm.OwnerNames,
		LastActivity:      formatDate(vm.LastActivity),
		DaysSinceActivity: vm.DaysSinceActivity,
		IsStale:           vm.IsStale,
		IsArchived:        vm.IsArchived,
		UnreadChanges:     vm.UnreadChanges,
		TotalNotes:        vm.TotalNotesCount,
		UpdatedAt:         vm.UpdatedAt.Format(time.RFC3339),
	}

	for _, p := range vm.PhaseList() {
		out.Phases = append(out.Phases, phaseOutput(p))
	}
	out.Activities = make([]ActivityOutput, len(vm.Activities))
	for i, a := range vm.Activities {
		out.Activities[i] = activityOutput(a.Activity, a.Comments)
	}
	out.Owners = make([]OwnerOutput, len(vm.Owners))
	for i, o := range vm.Owners {
		out.Owners[i] = OwnerOutput{ID: o.ID, TeamMemberID: o.TeamMemberID}
	}
	out.Notes = []NoteOutput{}
	for _, t := range models.PhaseTypes {
		for _, n := range vm.NotesByPhase[t] {
			out.Notes = append(out.Notes, noteOutput(n))
		}
	}
	out.RecentChanges = []ChangeOutput{}
	for i, l := range vm.ChangeLogs {
		if i == maxRecentChanges {
			break
		}
		out.RecentChanges = append(out.RecentChanges, ChangeOutput{
			Type:        string(l.ChangeType),
			Description: l.Description,
			UserID:      l.UserID,
			CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func phaseOutput(p models.Phase) PhaseOutput {
	out := PhaseOutput{ID: p.ID, Phase: string(p.PhaseType), Status: string(p.Status), Notes: p.Notes}
	if p.CompletedDate != nil {
		out.CompletedDate = formatDate(*p.CompletedDate)
	}
	for _, l := range p.Links {
		out.Links = append(out.Links, LinkOutput{Title: l.Title, URL: l.URL})
	}
	return out
}

func activityOutput(a models.Activity, comments []models.Comment) ActivityOutput {
	out := ActivityOutput{
		ID:          a.ID,
		Type:        a.Type,
		Date:        formatDate(a.Date),
		Description: a.Description,
		CreatedBy:   a.CreatedBy,
		Comments:    make([]CommentOutput, len(comments)),
	}
	for i, c := range comments {
		out.Comments[i] = commentOutput(c)
	}
	return out
}

func commentOutput(c models.Comment) CommentOutput {
	return CommentOutput{ID: c.ID, AuthorID: c.AuthorID, Content: c.Content, CreatedAt: c.CreatedAt.Format(time.RFC3339)}
}

func noteOutput(n models.PhaseNote) NoteOutput {
	return NoteOutput{ID: n.ID, Phase: string(n.PhaseType), Text: n.Text, AuthorID: n.AuthorID, CreatedAt: n.CreatedAt.Format(time.RFC3339)}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

// toolError turns engine errors into messages an agent can act on. A
// refused write carries the refresh prompt.
func toolError(action string, err error) error {
	if engine.IsConflict(err) {
		var ce *engine.ConflictError
		if errors.As(err, &ce) && ce.WasDeleted {
			return fmt.Errorf("%s (%s was deleted)", engine.ConflictMessage, strings.ToLower(string(ce.RecordType)))
		}
		return errors.New(engine.ConflictMessage)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}
