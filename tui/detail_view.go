package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/resell/db"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	switch m.tab {
	case TabPurchases:
		s.WriteString(m.renderPurchaseDetail())
	case TabSellers:
		s.WriteString(m.renderSellerDetail())
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderPurchaseDetail() string {
	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: invalid ID: %v", err)
	}

	p, err := m.mgr.GetPurchase(m.ctx, id)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder

	s.WriteString(m.renderField("Title", p.Title))
	s.WriteString(m.renderField("Order", p.VendorOrderID))
	s.WriteString(m.renderField("Item", p.VendorItemID))
	s.WriteString(m.renderField("Seller", p.SellerUsername))
	s.WriteString(m.renderField("Ordered", p.OrderDate.Local().Format("2006-01-02 15:04")))
	s.WriteString(m.renderField("Item Price", "$"+p.ItemPrice.StringFixed(2)))
	s.WriteString(m.renderField("Shipping", "$"+p.ShippingCost.StringFixed(2)))
	s.WriteString(m.renderField("Total", fmt.Sprintf("$%s %s", p.TotalCost.StringFixed(2), p.Currency)))
	s.WriteString(m.renderField("Status", p.OrderStatus))
	s.WriteString(m.renderField("eBay Status", p.VendorStatus))
	s.WriteString(m.renderField("Carrier", p.ShippingCarrier))
	s.WriteString(m.renderField("Tracking", p.TrackingNumber))
	s.WriteString(m.renderField("Tracking URL", p.TrackingURL))
	s.WriteString(m.renderField("Notes", p.Notes))

	return s.String()
}

func (m Model) renderSellerDetail() string {
	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: invalid ID: %v", err)
	}

	c, err := m.mgr.GetContact(m.ctx, id)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder

	s.WriteString(m.renderField("Seller", c.VendorUsername))
	s.WriteString(m.renderField("Name", c.DisplayName))
	s.WriteString(m.renderField("Tier", c.Relationship))
	s.WriteString(m.renderField("Purchases", strconv.Itoa(c.TotalPurchases)))
	s.WriteString(m.renderField("Total Spent", "$"+c.TotalSpent.StringFixed(2)))
	s.WriteString(m.renderField("Average Deal", "$"+c.AvgDealSize.StringFixed(2)))
	if c.LastPurchaseAt != nil {
		s.WriteString(m.renderField("Last Purchase", c.LastPurchaseAt.Local().Format("2006-01-02")))
	}
	s.WriteString(m.renderField("Email", c.Email))
	s.WriteString(m.renderField("Phone", c.Phone))
	if c.MailingList {
		s.WriteString(m.renderField("Mailing List", "yes"))
	} else {
		s.WriteString(m.renderField("Mailing List", "no"))
	}
	s.WriteString(m.renderField("Notes", c.Notes))

	// Recent purchases from this seller
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("RECENT PURCHASES"))
	s.WriteString("\n")

	list, _ := m.mgr.ListPurchases(m.ctx, db.PurchaseFilter{Seller: c.VendorUsername, Limit: 10})
	if list != nil {
		for _, p := range list.Purchases {
			s.WriteString(fmt.Sprintf("  • [%s] %s $%s (%s)\n",
				p.OrderDate.Local().Format("2006-01-02"), p.Title, p.TotalCost.StringFixed(2), p.OrderStatus))
		}
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "e":
		m.viewMode = ViewEdit
		m.initFormInputs()
	}

	return m, nil
}
