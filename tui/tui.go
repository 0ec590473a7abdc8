// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive pipeline browser over the coordinator's cached engagements
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	coord    *engine.Coordinator
	ctx      context.Context
	viewMode ViewMode

	// List view state
	selectedRow  int
	showArchived bool
	searchQuery  string
	searching    bool

	// Detail view state
	selectedID   string
	unreadOnOpen int

	// Graph view state
	graphDOT    string
	graphOffset int

	// Status line shown under the current view
	status string
	err    error

	width  int
	height int
}

// NewModel creates a new TUI model. The coordinator should already be loaded.
func NewModel(coord *engine.Coordinator) Model {
	return Model{
		coord:    coord,
		ctx:      context.Background(),
		viewMode: ViewList,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

func (m Model) selected() (*models.EngagementViewModel, bool) {
	return m.coord.Get(m.selectedID)
}

// report records the outcome of a mutation for the status line.
func (m *Model) report(ok string, err error) {
	m.err = err
	switch {
	case err == nil:
		m.status = ok
	case engine.IsConflict(err):
		m.status = engine.ConflictMessage + " (press r)"
	default:
		m.status = "Error: " + err.Error()
	}
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.err != nil {
		return "\n" + errorStyle.Render(m.status)
	}
	return "\n" + okStyle.Render(m.status)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	staleBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("166")).
			Padding(0, 1)

	unreadBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)
