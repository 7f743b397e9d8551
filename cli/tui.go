// ABOUTME: Interactive terminal UI subcommand
// ABOUTME: Runs the bubbletea dashboard over purchases, sellers and sync runs
package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/resell/sync"
	"github.com/harperreed/resell/tui"
)

// TUICommand runs the terminal dashboard until the user quits.
func TUICommand(mgr *sync.Manager) error {
	p := tea.NewProgram(tui.NewModel(mgr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
