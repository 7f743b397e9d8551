// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key presses against a temp database and checks views and stored edits
package tui

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/sync"
	"github.com/harperreed/resell/tracking"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func seedPurchase(t *testing.T, database *sql.DB, seller, title string, total string, day int) models.Purchase {
	t.Helper()
	ctx := context.Background()
	p := models.Purchase{
		VendorOrderID:  fmt.Sprintf("%s-%d", seller, day),
		Title:          title,
		ItemPrice:      decimal.RequireFromString(total),
		ShippingCost:   decimal.Zero,
		TotalCost:      decimal.RequireFromString(total),
		Currency:       "USD",
		SellerUsername: seller,
		OrderStatus:    models.OrderStatusActive,
		OrderDate:      time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC),
	}
	_, err := db.UpsertPurchase(ctx, database, &p)
	require.NoError(t, err)
	require.NoError(t, sync.NewContactHarvester(database, nil).HarvestContact(ctx, &p))
	return p
}

// newTestModel seeds two sellers; the newest purchase is the brass lamp.
func newTestModel(t *testing.T) (Model, *sql.DB) {
	t.Helper()
	database := setupTestDB(t)
	seedPurchase(t, database, "book_barn", "First edition atlas", "10.00", 1)
	seedPurchase(t, database, "lamp_shop", "Brass lamp", "48.50", 2)
	return NewModel(sync.NewManager(database, nil, nil)), database
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestListViewShowsPurchases(t *testing.T) {
	m, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "RESELL")
	assert.Contains(t, out, "Brass lamp")
	assert.Contains(t, out, "First edition atlas")
	assert.Contains(t, out, "$48.50")
}

func TestTabSwitching(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "tab")
	assert.Equal(t, TabSellers, m.tab)
	assert.Contains(t, m.View(), "lamp_shop")

	m = press(t, m, "tab")
	assert.Equal(t, TabSync, m.tab)
	assert.Contains(t, m.View(), "Not connected")

	// The sync tab handles its own keys but still cycles tabs
	m = press(t, m, "tab")
	assert.Equal(t, TabPurchases, m.tab)

	m = press(t, m, "shift+tab")
	assert.Equal(t, TabSync, m.tab)
}

func TestDetailNavigation(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "down", "enter")
	assert.Equal(t, ViewDetail, m.viewMode)
	out := m.View()
	assert.Contains(t, out, "DETAIL VIEW")
	assert.Contains(t, out, "First edition atlas")
	assert.Contains(t, out, "book_barn")

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, 1, m.selectedRow)
}

func TestSellerDetailListsPurchases(t *testing.T) {
	m, _ := newTestModel(t)

	// Sellers sort by total spent, lamp_shop first
	m = press(t, m, "tab", "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	out := m.View()
	assert.Contains(t, out, "lamp_shop")
	assert.Contains(t, out, "RECENT PURCHASES")
	assert.Contains(t, out, "Brass lamp")
	assert.NotContains(t, out, "First edition atlas")
}

func TestSearchFiltersList(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "/")
	require.True(t, m.searching)
	m = press(t, m, "atlas", "enter")
	assert.False(t, m.searching)
	assert.Equal(t, "atlas", m.searchQuery)

	out := m.View()
	assert.Contains(t, out, "First edition atlas")
	assert.NotContains(t, out, "Brass lamp")

	m = press(t, m, "esc")
	assert.Empty(t, m.searchQuery)
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// While editing, q is text
	m = press(t, m, "e")
	require.Equal(t, ViewEdit, m.viewMode)
	next, _ := m.Update(key("q"))
	assert.Equal(t, ViewEdit, next.(Model).viewMode)
}

func TestEditPurchaseSaves(t *testing.T) {
	m, database := newTestModel(t)

	m = press(t, m, "e")
	require.Equal(t, ViewEdit, m.viewMode)
	require.Len(t, m.formInputs, 4)
	assert.Equal(t, models.OrderStatusActive, m.formInputs[purchaseFieldStatus].Value())
	id := m.selectedID

	m.formInputs[purchaseFieldStatus].SetValue("Shipped")
	m.formInputs[purchaseFieldTracking].SetValue("1Z999AA10123456784")
	m.formInputs[purchaseFieldNotes].SetValue("gift for mom")

	m = press(t, m, "enter")
	require.NoError(t, m.err)
	assert.Equal(t, ViewDetail, m.viewMode)

	list, total, err := db.ListPurchases(context.Background(), database, db.PurchaseFilter{Search: "Brass"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, id, p.ID.String())
	assert.Equal(t, models.OrderStatusShipped, p.OrderStatus)
	assert.Equal(t, tracking.CarrierUPS, p.ShippingCarrier)
	assert.NotEmpty(t, p.TrackingURL)
	assert.Equal(t, "gift for mom", p.Notes)
}

func TestEditPurchaseRejectsBadStatus(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "e")
	m.formInputs[purchaseFieldStatus].SetValue("Lost")
	m = press(t, m, "enter")

	assert.Error(t, m.err)
	assert.Equal(t, ViewEdit, m.viewMode)
	assert.Contains(t, m.View(), "Error:")

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.NoError(t, m.err)
}

func TestEditSellerSaves(t *testing.T) {
	m, database := newTestModel(t)

	m = press(t, m, "tab", "e")
	require.Equal(t, ViewEdit, m.viewMode)
	require.Len(t, m.formInputs, 6)
	assert.Equal(t, "n", m.formInputs[sellerFieldMailingList].Value())

	m.formInputs[sellerFieldEmail].SetValue("hello@lampshop.example")
	m.formInputs[sellerFieldRelationship].SetValue("VIP")
	m.formInputs[sellerFieldMailingList].SetValue("y")

	m = press(t, m, "enter")
	require.NoError(t, m.err)

	c, err := db.GetContactByUsername(context.Background(), database, "lamp_shop")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "hello@lampshop.example", c.Email)
	assert.Equal(t, models.RelationshipVIP, c.Relationship)
	assert.True(t, c.MailingList)
}

func TestEditSellerRejectsBadMailingFlag(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "tab", "e")
	m.formInputs[sellerFieldMailingList].SetValue("maybe")
	m = press(t, m, "enter")

	assert.Error(t, m.err)
	assert.Equal(t, ViewEdit, m.viewMode)
}

func TestSyncWithoutMarketplace(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "tab", "tab")

	next, cmd := m.Update(key("s"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.syncInProgress)
	assert.Contains(t, m.syncMessages[len(m.syncMessages)-1], "Starting purchase sync")

	// A second press while running does nothing
	_, again := m.Update(key("s"))
	assert.Nil(t, again)

	msg := cmd()
	done, ok := msg.(SyncCompleteMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.Err, sync.ErrMarketplaceUnavailable)

	next, _ = m.Update(done)
	m = next.(Model)
	assert.False(t, m.syncInProgress)
	assert.Contains(t, m.syncMessages[len(m.syncMessages)-1], "Sync failed")
}

func TestSyncCompleteSummary(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(SyncCompleteMsg{Summary: &sync.SyncSummary{
		RunID:          "run-1",
		RecordsFetched: 3,
		RecordsCreated: 2,
		RecordsUpdated: 1,
	}})
	m = next.(Model)

	require.Len(t, m.syncMessages, 1)
	assert.Contains(t, m.syncMessages[0], "fetched 3, new 2, updated 1")
}

func TestSyncCompleteCredentialHint(t *testing.T) {
	m, _ := newTestModel(t)

	next, _ := m.Update(SyncCompleteMsg{Err: &sync.SyncError{RunID: "run-2", Err: sync.ErrCredentialExpired}})
	m = next.(Model)

	require.Len(t, m.syncMessages, 2)
	assert.Contains(t, m.syncMessages[1], "Relink")
}

func TestDisconnectConfirmation(t *testing.T) {
	m, database := newTestModel(t)
	ctx := context.Background()

	refresh := "refresh-token"
	require.NoError(t, db.CreateActiveAccount(ctx, database, &models.Credential{
		VendorUsername:       "collector42",
		AccessToken:          "access-token",
		RefreshToken:         &refresh,
		AccessTokenExpiresAt: time.Now().Add(2 * time.Hour),
	}))

	m = press(t, m, "tab", "tab")
	assert.Contains(t, m.View(), "collector42")

	m = press(t, m, "d")
	require.Equal(t, ViewConfirmDisconnect, m.viewMode)
	assert.Contains(t, m.View(), "DISCONNECT ACCOUNT")

	m = press(t, m, "n")
	assert.Equal(t, ViewList, m.viewMode)
	status, err := m.mgr.ConnectionStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)

	m = press(t, m, "d", "y")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, "✓ Account disconnected", m.disconnectMessage)

	status, err = m.mgr.ConnectionStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Contains(t, m.View(), "Not connected")
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{1 * time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{1 * time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimeSince(time.Now().Add(-tt.ago-time.Second)))
		})
	}
}
