package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/pursuit/viz"
)

var dotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

func (m Model) renderGraphView() string {
	var s strings.Builder

	vm, _ := m.selected()
	title := "GRAPH"
	if vm != nil {
		title += " · " + vm.Company
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	lines := strings.Split(m.graphDOT, "\n")
	page := m.graphPageSize()
	end := min(m.graphOffset+page, len(lines))
	s.WriteString(dotStyle.Render(strings.Join(lines[m.graphOffset:end], "\n")))
	s.WriteString("\n")
	if len(lines) > page {
		fmt.Fprintf(&s, "\nlines %d-%d of %d", m.graphOffset+1, end, len(lines))
	}
	s.WriteString("\n")

	s.WriteString(m.renderGraphHelp())
	return s.String()
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"↑/↓: Scroll",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) graphPageSize() int {
	return max(m.height-8, 5)
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines := strings.Count(m.graphDOT, "\n") + 1
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		m.graphDOT = ""
		m.graphOffset = 0
	case "up", "k":
		if m.graphOffset > 0 {
			m.graphOffset--
		}
	case "down", "j":
		if m.graphOffset+m.graphPageSize() < lines {
			m.graphOffset++
		}
	}

	return m, nil
}

// generateGraph renders the selected engagement's phase graph as DOT source.
func (m *Model) generateGraph() error {
	vm, ok := m.selected()
	if !ok {
		return fmt.Errorf("engagement %s not loaded", m.selectedID)
	}
	dot, err := viz.NewGraphGenerator().GenerateEngagementGraph(m.ctx, vm)
	if err != nil {
		return err
	}
	m.graphDOT = dot
	m.graphOffset = 0
	return nil
}
