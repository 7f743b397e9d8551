package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthURL(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeMarket{})

	url, err := mgr.AuthURL("xyz")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "state=xyz"))
}

func TestExchangeCodeForTokens(t *testing.T) {
	market := &fakeMarket{
		exchangeGrant: &ebay.TokenGrant{AccessToken: "access-a", RefreshToken: "refresh-a"},
		identity:      "picker_pat",
	}
	mgr, database := newTestManager(t, market)
	ctx := context.Background()

	cred, err := mgr.ExchangeCodeForTokens(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "picker_pat", cred.VendorUsername)
	assert.Equal(t, testNow.Add(ebay.DefaultAccessTokenTTL), cred.AccessTokenExpiresAt)
	require.NotNil(t, cred.RefreshTokenExpiresAt)
	assert.Equal(t, testNow.Add(ebay.DefaultRefreshTokenTTL), *cred.RefreshTokenExpiresAt)

	active, err := db.GetActiveAccount(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, cred.ID, active.ID)

	// Relinking replaces the active account
	market.exchangeGrant = &ebay.TokenGrant{AccessToken: "access-b"}
	market.identityErr = errors.New("GetUser failed")
	second, err := mgr.ExchangeCodeForTokens(ctx, "code-2")
	require.NoError(t, err)
	assert.Equal(t, unknownIdentity, second.VendorUsername)
	assert.Nil(t, second.RefreshToken)

	active, err = db.GetActiveAccount(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	first, err := db.GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	assert.False(t, first.IsActive)
}

func TestExchangeCodeErrors(t *testing.T) {
	market := &fakeMarket{exchangeErr: ebay.ErrTokenGrant}
	mgr, _ := newTestManager(t, market)

	_, err := mgr.ExchangeCodeForTokens(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = mgr.ExchangeCodeForTokens(context.Background(), "bad")
	assert.ErrorIs(t, err, ebay.ErrTokenGrant)
}

func TestStoreManualToken(t *testing.T) {
	market := &fakeMarket{identity: "picker_pat"}
	mgr, _ := newTestManager(t, market)
	ctx := context.Background()

	_, err := mgr.StoreManualToken(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	cred, err := mgr.StoreManualToken(ctx, "manual-access", "manual-refresh")
	require.NoError(t, err)
	assert.Equal(t, "picker_pat", cred.VendorUsername)
	assert.True(t, cred.IsActive)
	require.True(t, cred.HasRefreshToken())
	assert.Equal(t, "manual-refresh", *cred.RefreshToken)
}

func TestTokenStatus(t *testing.T) {
	refresh := "r"
	future := testNow.Add(30 * 24 * time.Hour)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name          string
		accessExpires time.Time
		refreshToken  *string
		refreshExpiry *time.Time
		want          string
	}{
		{"healthy", testNow.Add(48 * time.Hour), &refresh, &future, models.TokenStatusActive},
		{"access expiring within a day", testNow.Add(2 * time.Hour), &refresh, &future, models.TokenStatusExpiringSoon},
		{"access expired refresh alive", past, &refresh, &future, models.TokenStatusExpiringSoon},
		{"both expired", past, &refresh, &past, models.TokenStatusExpired},
		{"access expired no refresh", past, nil, nil, models.TokenStatusExpired},
		{"refresh without expiry", past, &refresh, nil, models.TokenStatusExpiringSoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := &models.Credential{
				AccessTokenExpiresAt:  tt.accessExpires,
				RefreshToken:          tt.refreshToken,
				RefreshTokenExpiresAt: tt.refreshExpiry,
			}
			assert.Equal(t, tt.want, tokenStatus(cred, testNow))
		})
	}
}

func TestConnectionStatusAndDisconnect(t *testing.T) {
	mgr, database := newTestManager(t, &fakeMarket{})
	ctx := context.Background()

	status, err := mgr.ConnectionStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, models.TokenStatusNone, status.TokenStatus)

	cred := linkAccount(t, database, 72*time.Hour)
	status, err = mgr.ConnectionStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.True(t, status.IsActive)
	assert.Equal(t, "buyer_one", status.VendorUsername)
	assert.Equal(t, models.TokenStatusActive, status.TokenStatus)
	require.NotNil(t, status.AccountID)
	assert.Equal(t, cred.ID, *status.AccountID)

	n, err := mgr.Disconnect(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, err = mgr.ConnectionStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	stored, err := db.GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	require.NotNil(t, stored, "disconnect never deletes the account")
}

func TestUpdatePurchase(t *testing.T) {
	market := &fakeMarket{pages: orderPages(1, 1, "lamp_dealer")}
	mgr, database := newTestManager(t, market)
	linkAccount(t, database, time.Hour)
	ctx := context.Background()

	_, err := mgr.RunSync(ctx, nil, Window{})
	require.NoError(t, err)
	p, err := db.GetPurchaseByOrderID(ctx, database, "order-1-1")
	require.NoError(t, err)

	number := "1Z999AA10123456784"
	carrier := "ups"
	status := models.OrderStatusShipped
	updated, err := mgr.UpdatePurchase(ctx, p.ID, PurchasePatch{
		OrderStatus:     &status,
		TrackingNumber:  &number,
		ShippingCarrier: &carrier,
	})
	require.NoError(t, err)
	assert.Equal(t, "UPS", updated.ShippingCarrier)
	assert.Contains(t, updated.TrackingURL, number)

	stored, err := db.GetPurchase(ctx, database, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, stored.OrderStatus)
	assert.Equal(t, updated.TrackingURL, stored.TrackingURL)

	bogus := "Lost"
	_, err = mgr.UpdatePurchase(ctx, p.ID, PurchasePatch{OrderStatus: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = mgr.UpdatePurchase(ctx, uuid.New(), PurchasePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateContact(t *testing.T) {
	market := &fakeMarket{pages: orderPages(1, 6, "lamp_dealer")}
	mgr, database := newTestManager(t, market)
	linkAccount(t, database, time.Hour)
	ctx := context.Background()

	_, err := mgr.RunSync(ctx, nil, Window{})
	require.NoError(t, err)

	list, err := mgr.ListContacts(ctx, db.ContactFilter{})
	require.NoError(t, err)
	require.Len(t, list.Contacts, 1)
	contact := list.Contacts[0]
	assert.Equal(t, models.RelationshipActive, contact.Relationship)

	badEmail := "not-an-email"
	_, err = mgr.UpdateContact(ctx, contact.ID, ContactPatch{Email: &badEmail})
	assert.ErrorIs(t, err, ErrInvalidInput)

	badTier := "platinum"
	_, err = mgr.UpdateContact(ctx, contact.ID, ContactPatch{Relationship: &badTier})
	assert.ErrorIs(t, err, ErrInvalidInput)

	email := "lamps@example.com"
	inactive := "Inactive"
	onList := true
	updated, err := mgr.UpdateContact(ctx, contact.ID, ContactPatch{
		Email:        &email,
		Relationship: &inactive,
		MailingList:  &onList,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipInactive, updated.Relationship)
	assert.Equal(t, email, updated.Email)

	list, err = mgr.ListContacts(ctx, db.ContactFilter{MailingListOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Stats.OnMailingList)
	assert.Equal(t, 6, list.Contacts[0].TotalPurchases, "aggregates untouched by profile edits")

	_, err = mgr.UpdateContact(ctx, uuid.New(), ContactPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSyncRunsAndStats(t *testing.T) {
	market := &fakeMarket{pages: orderPages(1, 3, "lamp_dealer")}
	mgr, database := newTestManager(t, market)
	linkAccount(t, database, time.Hour)
	ctx := context.Background()

	runs, err := mgr.ListSyncRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := mgr.RunSync(ctx, nil, Window{})
	require.NoError(t, err)
	second, err := mgr.RunSync(ctx, nil, Window{})
	require.NoError(t, err)

	runs, err = mgr.ListSyncRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].ID, "newest first")
	assert.Equal(t, first.RunID, runs[1].ID)

	stats, err := mgr.PurchaseStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Purchases)
	assert.Equal(t, 3, stats.ByStatus[models.OrderStatusDelivered])
	require.Len(t, stats.BySeller, 1)
	assert.Equal(t, "lamp_dealer", stats.BySeller[0].SellerUsername)
	assert.Equal(t, "75", stats.TotalSpent.String())
}
