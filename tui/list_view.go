package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pursuit/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("PURSUIT"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.searchQuery != "" {
		fmt.Fprintf(&s, "Search: %s", m.searchQuery)
		if m.searching {
			s.WriteString("█")
		}
		s.WriteString("\n\n")
	}

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Active", "All"}
	var rendered []string

	for i, tab := range tabs {
		if (i == 1) == m.showArchived {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// visible returns the engagements the list shows, in display order.
func (m Model) visible() []*models.EngagementViewModel {
	q := strings.ToLower(m.searchQuery)
	var out []*models.EngagementViewModel
	for _, vm := range m.coord.List() {
		if vm.IsArchived && !m.showArchived {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(vm.Company), q) {
			continue
		}
		out = append(out, vm)
	}
	return out
}

func (m Model) renderTable() string {
	vms := m.visible()
	if len(vms) == 0 {
		return "No engagements"
	}

	columns := []table.Column{
		{Title: "Company", Width: 24},
		{Title: "Phase", Width: 10},
		{Title: "Status", Width: 13},
		{Title: "Idle", Width: 6},
		{Title: "Owners", Width: 18},
		{Title: "", Width: 16},
	}

	var rows []table.Row
	for _, vm := range vms {
		rows = append(rows, table.Row{
			vm.Company,
			string(vm.CurrentPhase),
			string(vm.EngagementStatus),
			fmt.Sprintf("%dd", vm.DaysSinceActivity),
			strings.Join(vm.OwnerNames, ", "),
			badges(vm),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

// badges renders the plain-text markers shown in the list. Table cells are
// truncated by width, so they stay unstyled here.
func badges(vm *models.EngagementViewModel) string {
	var out []string
	if vm.IsStale {
		out = append(out, "STALE")
	}
	if vm.UnreadChanges > 0 {
		out = append(out, fmt.Sprintf("●%d", vm.UnreadChanges))
	}
	if vm.IsArchived {
		out = append(out, "archived")
	}
	return strings.Join(out, " ")
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Active/All",
		"Enter: View details",
		"/: Search",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.visible())-1 {
			m.selectedRow++
		}
	case "tab":
		m.showArchived = !m.showArchived
		m.selectedRow = 0
	case "enter":
		vms := m.visible()
		if m.selectedRow >= len(vms) {
			return m, nil
		}
		m.selectedID = vms[m.selectedRow].ID
		m.unreadOnOpen = vms[m.selectedRow].UnreadChanges
		m.viewMode = ViewDetail
		m.status, m.err = "", nil
		m.markViewed()
	case "/":
		m.searching = true
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.searchQuery = ""
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyBackspace:
		if n := len(m.searchQuery); n > 0 {
			m.searchQuery = m.searchQuery[:n-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	}
	m.selectedRow = 0
	return m, nil
}
