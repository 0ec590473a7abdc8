// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Deleting an engagement cascades through every child record
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	vm, ok := m.selected()
	if !ok {
		return "Engagement no longer exists. Press Esc to go back."
	}

	comments := 0
	for _, a := range vm.Activities {
		comments += len(a.Comments)
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this engagement?"
	entityInfo := fmt.Sprintf("\nENGAGEMENT: %s\n%d activities, %d comments, %d notes\n",
		vm.Company, len(vm.Activities), comments, vm.TotalNotesCount)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		audit, err := m.coord.DeleteEngagement(m.ctx, m.selectedID)
		m.viewMode = ViewList
		if err != nil {
			m.report("", err)
			return m, nil
		}
		m.report(fmt.Sprintf("Deleted %s (correlation %s)", audit.Company, audit.CorrelationID), nil)
		m.selectedID = ""
		if m.selectedRow > 0 && m.selectedRow >= len(m.visible()) {
			m.selectedRow--
		}
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}
