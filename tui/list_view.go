package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/models"
)

const listLimit = 100

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("RESELL"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.tab == TabSync {
		s.WriteString(m.renderSyncView())
		return s.String()
	}

	if m.searching {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	} else if m.searchQuery != "" {
		s.WriteString(helpStyle.Render(fmt.Sprintf("Filter: %q (Esc to clear)", m.searchQuery)))
		s.WriteString("\n\n")
	}

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string

	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabPurchases:
		return m.renderPurchasesTable()
	case TabSellers:
		return m.renderSellersTable()
	}
	return ""
}

func (m Model) tableHeight() int {
	if h := m.height - 12; h > 3 {
		return h
	}
	return 3
}

func (m Model) listPurchases() ([]models.Purchase, error) {
	list, err := m.mgr.ListPurchases(m.ctx, db.PurchaseFilter{Search: m.searchQuery, Limit: listLimit})
	if err != nil {
		return nil, err
	}
	return list.Purchases, nil
}

func (m Model) listSellers() ([]models.Contact, error) {
	list, err := m.mgr.ListContacts(m.ctx, db.ContactFilter{Search: m.searchQuery, Limit: listLimit})
	if err != nil {
		return nil, err
	}
	return list.Contacts, nil
}

func (m Model) renderPurchasesTable() string {
	purchases, err := m.listPurchases()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if len(purchases) == 0 {
		return helpStyle.Render("No purchases yet. Link an account and sync from the Sync tab.")
	}

	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Title", Width: 36},
		{Title: "Seller", Width: 18},
		{Title: "Total", Width: 10},
		{Title: "Status", Width: 10},
	}

	var rows []table.Row
	for _, p := range purchases {
		rows = append(rows, table.Row{
			p.OrderDate.Local().Format("2006-01-02"),
			p.Title,
			p.SellerUsername,
			"$" + p.TotalCost.StringFixed(2),
			p.OrderStatus,
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) renderSellersTable() string {
	sellers, err := m.listSellers()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if len(sellers) == 0 {
		return helpStyle.Render("No sellers yet. Sellers are added as purchases are imported.")
	}

	columns := []table.Column{
		{Title: "Seller", Width: 24},
		{Title: "Tier", Width: 8},
		{Title: "Purchases", Width: 9},
		{Title: "Spent", Width: 12},
		{Title: "Mailing", Width: 7},
	}

	var rows []table.Row
	for _, c := range sellers {
		mailing := ""
		if c.MailingList {
			mailing = "✓"
		}
		rows = append(rows, table.Row{
			c.VendorUsername,
			c.Relationship,
			strconv.Itoa(c.TotalPurchases),
			"$" + c.TotalSpent.StringFixed(2),
			mailing,
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"e: Edit",
		"/: Search",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabPurchases:
		purchases, _ := m.listPurchases()
		return len(purchases)
	case TabSellers:
		sellers, _ := m.listSellers()
		return len(sellers)
	}
	return 0
}

func (m Model) switchTab(next Tab) Model {
	m.tab = next
	m.selectedRow = 0
	m.searchQuery = ""
	m.err = nil
	return m
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m = m.switchTab((m.tab + 1) % Tab(len(tabNames)))
	case "shift+tab":
		m = m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.viewMode = ViewDetail
			m.selectedID = id
		}
	case "e":
		if id := m.getSelectedID(); id != "" {
			m.selectedID = id
			m.viewMode = ViewEdit
			m.initFormInputs()
		}
	case "/":
		m.searching = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.Focus()
		return m, textinput.Blink
	case "esc":
		m.searchQuery = ""
		m.selectedRow = 0
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		m.searching = false
		m.searchInput.Blur()
		m.selectedRow = 0
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) getSelectedID() string {
	switch m.tab {
	case TabPurchases:
		purchases, _ := m.listPurchases()
		if m.selectedRow < len(purchases) {
			return purchases[m.selectedRow].ID.String()
		}
	case TabSellers:
		sellers, _ := m.listSellers()
		if m.selectedRow < len(sellers) {
			return sellers[m.selectedRow].ID.String()
		}
	}
	return ""
}
