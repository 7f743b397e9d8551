// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides an interactive dashboard over purchases, sellers, and sync runs
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/resell/sync"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDisconnect
)

// Tab is the dataset shown in the list view
type Tab int

const (
	TabPurchases Tab = iota
	TabSellers
	TabSync
)

var tabNames = []string{"Purchases", "Sellers", "Sync"}

// Model is the main bubbletea model
type Model struct {
	mgr      *sync.Manager
	ctx      context.Context
	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow int
	searchQuery string
	searching   bool
	searchInput textinput.Model

	// Detail view state
	selectedID string

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Sync tab state
	syncInProgress bool
	syncMessages   []string

	// Disconnect confirmation state
	disconnectMessage string

	// UI state
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(mgr *sync.Manager) Model {
	search := textinput.New()
	search.Placeholder = "Search"
	search.CharLimit = 100

	return Model{
		mgr:         mgr,
		ctx:         context.Background(),
		viewMode:    ViewList,
		tab:         TabPurchases,
		searchInput: search,
		width:       80,
		height:      24,
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
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
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
	case ViewEdit:
		return m.renderEditView()
	case ViewConfirmDisconnect:
		return m.renderConfirmDisconnectView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry owns every key except ctrl+c
	typing := m.viewMode == ViewEdit || m.searching
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !typing {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		if m.tab == TabSync {
			return m.handleSyncKeys(msg)
		}
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmDisconnect:
		return m.handleConfirmDisconnectKeys(msg)
	}

	return m, nil
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

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
