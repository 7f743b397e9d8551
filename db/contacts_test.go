// ABOUTME: Tests for marketplace contact persistence
// ABOUTME: Covers creation defaults, aggregate updates, listing order, and stats
package db

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/resell/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContactDefaults(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	last := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := &models.Contact{
		VendorUsername: "vintage_finds",
		TotalPurchases: 1,
		TotalSpent:     decimal.RequireFromString("12.50"),
		AvgDealSize:    decimal.RequireFromString("12.50"),
		LastPurchaseAt: &last,
	}
	require.NoError(t, CreateContact(ctx, database, c))

	got, err := GetContactByUsername(ctx, database, "vintage_finds")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, models.ContactTypeSeller, got.ContactType)
	assert.Equal(t, models.RelationshipNew, got.Relationship)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.TotalSpent))
	require.NotNil(t, got.LastPurchaseAt)
	assert.True(t, got.LastPurchaseAt.Equal(last))
	assert.False(t, got.MailingList)
}

func TestCreateContactDuplicateUsername(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateContact(ctx, database, &models.Contact{VendorUsername: "dup"}))
	assert.Error(t, CreateContact(ctx, database, &models.Contact{VendorUsername: "dup"}))
}

func TestUpdateContactAggregatesAndProfile(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	c := &models.Contact{VendorUsername: "seller"}
	require.NoError(t, CreateContact(ctx, database, c))

	c.TotalPurchases = 5
	c.TotalSpent = decimal.RequireFromString("100")
	c.AvgDealSize = decimal.RequireFromString("20")
	c.Relationship = models.RelationshipActive
	require.NoError(t, UpdateContactAggregates(ctx, database, c))

	c.Email = "seller@example.com"
	c.MailingList = true
	require.NoError(t, UpdateContactProfile(ctx, database, c))

	got, err := GetContact(ctx, database, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalPurchases)
	assert.Equal(t, models.RelationshipActive, got.Relationship)
	assert.True(t, decimal.RequireFromString("20").Equal(got.AvgDealSize))
	assert.Equal(t, "seller@example.com", got.Email)
	assert.True(t, got.MailingList)
}

func TestListContactsAndStats(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	for _, c := range []*models.Contact{
		{VendorUsername: "small", TotalSpent: decimal.RequireFromString("9.99")},
		{VendorUsername: "big", TotalSpent: decimal.RequireFromString("120.00"), Relationship: models.RelationshipVIP, MailingList: true},
		{VendorUsername: "mid", TotalSpent: decimal.RequireFromString("45.00"), DisplayName: "Mid Town Records"},
	} {
		require.NoError(t, CreateContact(ctx, database, c))
	}

	contacts, total, err := ListContacts(ctx, database, ContactFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, contacts, 3)
	assert.Equal(t, "big", contacts[0].VendorUsername, "ordered by numeric spend, not text")
	assert.Equal(t, "mid", contacts[1].VendorUsername)
	assert.Equal(t, "small", contacts[2].VendorUsername)

	contacts, _, err = ListContacts(ctx, database, ContactFilter{Search: "town"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "mid", contacts[0].VendorUsername)

	contacts, _, err = ListContacts(ctx, database, ContactFilter{MailingListOnly: true})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "big", contacts[0].VendorUsername)

	contacts, _, err = ListContacts(ctx, database, ContactFilter{Relationship: models.RelationshipNew})
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	stats, err := GetContactListStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.OnMailingList)
	assert.Equal(t, 1, stats.VIPSellers)
}
