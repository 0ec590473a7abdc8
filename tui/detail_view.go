package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("99"))

	phaseStyles = map[models.PhaseStatus]lipgloss.Style{
		models.PhasePending:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		models.PhaseInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		models.PhaseComplete:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.PhaseBlocked:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		models.PhaseSkipped:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true),
	}
)

const maxDetailActivities = 8

func (m Model) renderDetailView() string {
	vm, ok := m.selected()
	if !ok {
		return "Engagement no longer exists. Press Esc to go back."
	}

	var s strings.Builder

	title := vm.Company
	if vm.IsStale {
		title += " " + staleBadge.Render("STALE")
	}
	if m.unreadOnOpen > 0 {
		title += " " + unreadBadge.Render(fmt.Sprintf("%d new", m.unreadOnOpen))
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	s.WriteString(renderField("Status", string(vm.EngagementStatus)))
	if vm.ClosedReason != "" {
		s.WriteString(renderField("Closed Reason", vm.ClosedReason))
	}
	s.WriteString(renderField("Current Phase", string(vm.CurrentPhase)))
	s.WriteString(renderField("Contact", vm.ContactName))
	s.WriteString(renderField("Email", vm.ContactEmail))
	s.WriteString(renderField("Industry", vm.Industry))
	if vm.DealValue > 0 {
		s.WriteString(renderField("Deal Value", fmt.Sprintf("$%.2f", float64(vm.DealValue)/100)))
	}
	s.WriteString(renderField("Sales Rep", vm.SalesRepName))
	s.WriteString(renderField("Owners", strings.Join(vm.OwnerNames, ", ")))
	s.WriteString(renderField("Started", vm.StartDate.Format("2006-01-02")))
	s.WriteString(renderField("Last Activity", fmt.Sprintf("%s (%dd ago)", vm.LastActivity.Format("2006-01-02"), vm.DaysSinceActivity)))
	if vm.IsArchived {
		s.WriteString(renderField("Archived", "yes"))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("Phases"))
	s.WriteString("\n")
	var phases []string
	for _, p := range vm.PhaseList() {
		label := fmt.Sprintf("%s:%s", p.PhaseType, p.Status)
		if n := len(vm.NotesByPhase[p.PhaseType]); n > 0 {
			label += fmt.Sprintf(" (%d)", n)
		}
		phases = append(phases, phaseStyles[p.Status].Render(label))
	}
	s.WriteString(strings.Join(phases, "  "))
	s.WriteString("\n\n")

	s.WriteString(sectionStyle.Render(fmt.Sprintf("Activities (%d)", len(vm.Activities))))
	s.WriteString("\n")
	for i, a := range vm.Activities {
		if i == maxDetailActivities {
			fmt.Fprintf(&s, "  … %d more\n", len(vm.Activities)-i)
			break
		}
		fmt.Fprintf(&s, "  %s  %-8s %s", a.Date.Format("2006-01-02"), a.Type, a.Description)
		if len(a.Comments) > 0 {
			fmt.Fprintf(&s, " [%d comment(s)]", len(a.Comments))
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	vm, _ := m.selected()
	archive := "a: Archive"
	if vm != nil && vm.IsArchived {
		archive = "a: Restore"
	}
	help := []string{
		"Esc: Back",
		"p: Advance phase",
		archive,
		"g: Graph",
		"r: Refresh",
		"d: Delete",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.selectedID = ""
		m.status, m.err = "", nil
	case "r":
		_, err := m.coord.Refresh(m.ctx, m.selectedID)
		m.report("Refreshed", err)
		if err == nil {
			m.unreadOnOpen = 0
		}
	case "a":
		vm, ok := m.selected()
		if !ok {
			return m, nil
		}
		if vm.IsArchived {
			_, err := m.coord.Restore(m.ctx, vm.ID)
			m.report("Restored", err)
		} else {
			_, err := m.coord.Archive(m.ctx, vm.ID)
			m.report("Archived", err)
		}
	case "p":
		m.advancePhase()
	case "g":
		if err := m.generateGraph(); err != nil {
			m.report("", err)
			return m, nil
		}
		m.viewMode = ViewGraph
	case "d":
		m.viewMode = ViewConfirmDelete
	}

	return m, nil
}

// advancePhase starts the current phase if it has not begun, otherwise
// completes it and starts the next one.
func (m *Model) advancePhase() {
	vm, ok := m.selected()
	if !ok {
		return
	}
	cur := vm.Phases[vm.CurrentPhase]
	if cur.Status != models.PhaseInProgress {
		_, err := m.coord.SavePhase(m.ctx, vm.ID, vm.CurrentPhase, engine.PhaseUpdate{Status: models.PhaseInProgress})
		m.report(fmt.Sprintf("%s started", vm.CurrentPhase), err)
		return
	}

	next := nextPhase(vm.CurrentPhase)
	if _, err := m.coord.SavePhase(m.ctx, vm.ID, vm.CurrentPhase, engine.PhaseUpdate{Status: models.PhaseComplete}); err != nil {
		m.report("", err)
		return
	}
	if next == "" {
		m.report(fmt.Sprintf("%s complete", vm.CurrentPhase), nil)
		return
	}
	_, err := m.coord.SavePhase(m.ctx, vm.ID, next, engine.PhaseUpdate{Status: models.PhaseInProgress})
	m.report(fmt.Sprintf("Advanced to %s", next), err)
}

func nextPhase(t models.PhaseType) models.PhaseType {
	for i, p := range models.PhaseTypes {
		if p == t && i+1 < len(models.PhaseTypes) {
			return models.PhaseTypes[i+1]
		}
	}
	return ""
}

func (m *Model) markViewed() {
	if err := m.coord.RecordView(m.ctx, m.selectedID, ""); err != nil {
		m.report("", err)
	}
}
