// ABOUTME: TUI tab for marketplace account status and sync controls
// ABOUTME: Shows the linked account, recent sync runs, and triggers purchase syncs
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/sync"
)

const syncRunsShown = 8

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(14)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a sync run finishes.
type SyncCompleteMsg struct {
	Summary *sync.SyncSummary
	Err     error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(syncHeaderStyle.Render("Account"))
	s.WriteString("\n\n")
	s.WriteString(m.renderAccountStatus())
	s.WriteString("\n")

	s.WriteString(syncHeaderStyle.Render("Recent Runs"))
	s.WriteString("\n\n")
	s.WriteString(m.renderSyncRuns())
	s.WriteString("\n")

	// Recent messages
	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := 0
		if len(m.syncMessages) > 5 {
			start = len(m.syncMessages) - 5
		}
		for i := start; i < len(m.syncMessages); i++ {
			s.WriteString(syncMessageStyle.Render("  " + m.syncMessages[i]))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	if m.disconnectMessage != "" {
		s.WriteString(syncMessageStyle.Render(m.disconnectMessage))
		s.WriteString("\n")
	}

	s.WriteString(m.renderSyncHelp())

	return s.String()
}

func (m Model) renderAccountStatus() string {
	status, err := m.mgr.ConnectionStatus(m.ctx)
	if err != nil {
		return syncErrorStyle.Render(fmt.Sprintf("  ✗ %v", err)) + "\n"
	}

	var s strings.Builder
	row := func(label, value string) {
		s.WriteString("  ")
		s.WriteString(syncLabelStyle.Render(label))
		s.WriteString(value)
		s.WriteString("\n")
	}

	if !status.Connected {
		row("Status", syncMessageStyle.Render("Not connected. Run `resell market connect` to link an account."))
		return s.String()
	}

	user := status.VendorUsername
	if user == "" {
		user = "(unknown user)"
	}
	row("User", user)

	switch status.TokenStatus {
	case models.TokenStatusActive:
		row("Token", syncIdleStyle.Render("✓ active"))
	case models.TokenStatusExpiringSoon:
		row("Token", syncSyncingStyle.Render("! expiring soon"))
	default:
		row("Token", syncErrorStyle.Render("✗ "+status.TokenStatus))
	}

	switch {
	case m.syncInProgress:
		row("Sync", syncSyncingStyle.Render("⟳ Syncing..."))
	case status.LastSyncAt != nil:
		row("Last sync", formatTimeSince(*status.LastSyncAt))
	default:
		row("Last sync", syncMessageStyle.Render("never"))
	}

	return s.String()
}

func (m Model) renderSyncRuns() string {
	runs, err := m.mgr.ListSyncRuns(m.ctx, syncRunsShown)
	if err != nil {
		return syncErrorStyle.Render(fmt.Sprintf("  ✗ %v", err)) + "\n"
	}
	if len(runs) == 0 {
		return syncMessageStyle.Render("  No sync runs yet.") + "\n"
	}

	var s strings.Builder
	for _, run := range runs {
		var state string
		switch run.Status {
		case models.SyncStatusCompleted:
			state = syncIdleStyle.Render("✓ " + run.Status)
		case models.SyncStatusFailed:
			state = syncErrorStyle.Render("✗ " + run.Status)
		default:
			state = syncSyncingStyle.Render("⟳ " + run.Status)
		}
		s.WriteString(fmt.Sprintf("  %s  %-22s fetched %d, new %d, updated %d\n",
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			state,
			run.RecordsFetched, run.RecordsCreated, run.RecordsUpdated))
		if run.ErrorMessage != nil {
			s.WriteString(syncErrorStyle.Render("      " + *run.ErrorMessage))
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"s/Enter: Sync now",
		"d: Disconnect",
		"r: Refresh",
		"Tab: Switch tabs",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "s":
		if m.syncInProgress {
			return m, nil
		}
		m.syncInProgress = true
		m.addSyncMessage("Starting purchase sync...")
		return m, m.syncCmd()
	case "d":
		m.disconnectMessage = ""
		m.viewMode = ViewConfirmDisconnect
	case "r":
		// Views re-query on render; clear stale notices.
		m.disconnectMessage = ""
		m.err = nil
	case "tab":
		m = m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case "shift+tab":
		m = m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case "esc":
		m = m.switchTab(TabPurchases)
	}

	return m, nil
}

// syncCmd runs a sync of the active account over the default window.
func (m Model) syncCmd() tea.Cmd {
	mgr, ctx := m.mgr, m.ctx
	return func() tea.Msg {
		summary, err := mgr.RunSync(ctx, nil, sync.Window{})
		return SyncCompleteMsg{Summary: summary, Err: err}
	}
}

// addSyncMessage adds a message to the sync message log.
func (m *Model) addSyncMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.syncInProgress = false

	if msg.Err != nil {
		m.addSyncMessage(fmt.Sprintf("✗ Sync failed: %v", msg.Err))
		if errors.Is(msg.Err, sync.ErrCredentialExpired) || errors.Is(msg.Err, sync.ErrCredentialMissing) {
			m.addSyncMessage("Relink the account with `resell market connect`.")
		}
		return
	}

	if msg.Summary != nil {
		m.addSyncMessage(fmt.Sprintf("✓ Sync completed: fetched %d, new %d, updated %d",
			msg.Summary.RecordsFetched, msg.Summary.RecordsCreated, msg.Summary.RecordsUpdated))
	}
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
