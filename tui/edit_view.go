package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/harperreed/resell/sync"
)

// Seller form field order.
const (
	sellerFieldName = iota
	sellerFieldEmail
	sellerFieldPhone
	sellerFieldNotes
	sellerFieldRelationship
	sellerFieldMailingList
)

// Purchase form field order.
const (
	purchaseFieldNotes = iota
	purchaseFieldStatus
	purchaseFieldTracking
	purchaseFieldCarrier
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("EDIT " + m.editTypeName()))
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) editTypeName() string {
	switch m.tab {
	case TabPurchases:
		return "PURCHASE"
	case TabSellers:
		return "SELLER"
	}
	return ""
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.formInputs) == 0 {
		m.viewMode = ViewList
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.err = nil
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		if err := m.saveEdit(); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.viewMode = ViewDetail
		}
		return m, nil
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs() {
	switch m.tab {
	case TabPurchases:
		m.initPurchaseForm()
	case TabSellers:
		m.initSellerForm()
	}

	m.err = nil
	m.focusIndex = 0
	m.updateFormFocus()
}

func newFormInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (m *Model) initPurchaseForm() {
	inputs := make([]textinput.Model, 4)
	inputs[purchaseFieldNotes] = newFormInput("Notes", 500)
	inputs[purchaseFieldStatus] = newFormInput("Status (Active/Shipped/Delivered/Cancelled)", 20)
	inputs[purchaseFieldTracking] = newFormInput("Tracking number", 64)
	inputs[purchaseFieldCarrier] = newFormInput("Carrier (blank to detect)", 20)

	if id, err := uuid.Parse(m.selectedID); err == nil {
		if p, _ := m.mgr.GetPurchase(m.ctx, id); p != nil {
			inputs[purchaseFieldNotes].SetValue(p.Notes)
			inputs[purchaseFieldStatus].SetValue(p.OrderStatus)
			inputs[purchaseFieldTracking].SetValue(p.TrackingNumber)
			inputs[purchaseFieldCarrier].SetValue(p.ShippingCarrier)
		}
	}

	m.formInputs = inputs
}

func (m *Model) initSellerForm() {
	inputs := make([]textinput.Model, 6)
	inputs[sellerFieldName] = newFormInput("Display name", 100)
	inputs[sellerFieldEmail] = newFormInput("Email", 100)
	inputs[sellerFieldPhone] = newFormInput("Phone", 20)
	inputs[sellerFieldNotes] = newFormInput("Notes", 500)
	inputs[sellerFieldRelationship] = newFormInput("Tier (new/active/vip/inactive)", 10)
	inputs[sellerFieldMailingList] = newFormInput("Mailing list (y/n)", 3)

	if id, err := uuid.Parse(m.selectedID); err == nil {
		if c, _ := m.mgr.GetContact(m.ctx, id); c != nil {
			inputs[sellerFieldName].SetValue(c.DisplayName)
			inputs[sellerFieldEmail].SetValue(c.Email)
			inputs[sellerFieldPhone].SetValue(c.Phone)
			inputs[sellerFieldNotes].SetValue(c.Notes)
			inputs[sellerFieldRelationship].SetValue(c.Relationship)
			if c.MailingList {
				inputs[sellerFieldMailingList].SetValue("y")
			} else {
				inputs[sellerFieldMailingList].SetValue("n")
			}
		}
	}

	m.formInputs = inputs
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) saveEdit() error {
	id, err := uuid.Parse(m.selectedID)
	if err != nil {
		return fmt.Errorf("invalid ID: %w", err)
	}

	switch m.tab {
	case TabPurchases:
		return m.savePurchase(id)
	case TabSellers:
		return m.saveSeller(id)
	}
	return nil
}

func (m Model) formValue(i int) string {
	return strings.TrimSpace(m.formInputs[i].Value())
}

func (m Model) savePurchase(id uuid.UUID) error {
	notes := m.formValue(purchaseFieldNotes)
	status := m.formValue(purchaseFieldStatus)
	tracking := m.formValue(purchaseFieldTracking)
	carrier := m.formValue(purchaseFieldCarrier)

	_, err := m.mgr.UpdatePurchase(m.ctx, id, sync.PurchasePatch{
		Notes:           &notes,
		OrderStatus:     &status,
		TrackingNumber:  &tracking,
		ShippingCarrier: &carrier,
	})
	return err
}

func (m Model) saveSeller(id uuid.UUID) error {
	name := m.formValue(sellerFieldName)
	email := m.formValue(sellerFieldEmail)
	phone := m.formValue(sellerFieldPhone)
	notes := m.formValue(sellerFieldNotes)
	relationship := strings.ToLower(m.formValue(sellerFieldRelationship))

	var mailing bool
	switch strings.ToLower(m.formValue(sellerFieldMailingList)) {
	case "y", "yes", "true":
		mailing = true
	case "n", "no", "false", "":
		mailing = false
	default:
		return fmt.Errorf("mailing list must be y or n")
	}

	_, err := m.mgr.UpdateContact(m.ctx, id, sync.ContactPatch{
		DisplayName:  &name,
		Email:        &email,
		Phone:        &phone,
		Notes:        &notes,
		MailingList:  &mailing,
		Relationship: &relationship,
	})
	return err
}
