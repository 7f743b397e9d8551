// ABOUTME: Disconnect confirmation view for TUI
// ABOUTME: Deactivates the linked marketplace account after a confirmation dialog
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

func (m Model) renderConfirmDisconnectView() string {
	account := "the linked account"
	if status, err := m.mgr.ConnectionStatus(m.ctx); err == nil && status.VendorUsername != "" {
		account = status.VendorUsername
	}

	title := warningStyle.Render("⚠  DISCONNECT ACCOUNT  ⚠")
	message := fmt.Sprintf("Disconnect %s?", account)
	note := "\nImported purchases and sellers are kept.\nYou will need to relink before the next sync."

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Disconnect (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		note,
		"",
		buttons,
	)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDisconnectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		n, err := m.mgr.Disconnect(m.ctx)
		switch {
		case err != nil:
			m.err = err
			m.disconnectMessage = "Error: " + err.Error()
		case n == 0:
			m.disconnectMessage = "No linked account to disconnect"
		default:
			m.disconnectMessage = "✓ Account disconnected"
		}
		m.viewMode = ViewList
	case "n", "N", "esc":
		m.viewMode = ViewList
	}

	return m, nil
}
