// ABOUTME: Tests for marketplace account persistence
// ABOUTME: Covers the single-active-account rule, token rotation, and soft disconnect
package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredential(username string) *models.Credential {
	refresh := "refresh-" + username
	refreshExpires := time.Now().Add(365 * 24 * time.Hour)
	return &models.Credential{
		VendorUsername:        username,
		AccessToken:           "access-" + username,
		RefreshToken:          &refresh,
		AccessTokenExpiresAt:  time.Now().Add(2 * time.Hour),
		RefreshTokenExpiresAt: &refreshExpires,
	}
}

func TestCreateActiveAccount(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	cred := newCredential("buyer_one")
	require.NoError(t, CreateActiveAccount(ctx, database, cred))
	assert.NotEqual(t, uuid.Nil, cred.ID)
	assert.True(t, cred.IsActive)

	got, err := GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "buyer_one", got.VendorUsername)
	assert.Equal(t, "access-buyer_one", got.AccessToken)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "refresh-buyer_one", *got.RefreshToken)
	assert.NotNil(t, got.RefreshTokenExpiresAt)
	assert.Nil(t, got.LastSyncAt)
}

func TestCreateActiveAccountDeactivatesPrevious(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	first := newCredential("first")
	require.NoError(t, CreateActiveAccount(ctx, database, first))
	second := newCredential("second")
	require.NoError(t, CreateActiveAccount(ctx, database, second))

	active, err := GetActiveAccount(ctx, database)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	old, err := GetAccount(ctx, database, first.ID)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.False(t, old.IsActive, "previous account should be deactivated, not deleted")
}

func TestSingleActiveIndexRejectsSecondActiveRow(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateActiveAccount(ctx, database, newCredential("first")))

	now := time.Now().UTC()
	_, err := database.Exec(`
		INSERT INTO marketplace_accounts (id, vendor_username, access_token, access_token_expires_at, is_active, created_at, updated_at)
		VALUES (?, 'rogue', 'token', ?, 1, ?, ?)
	`, uuid.New().String(), now, now, now)
	assert.Error(t, err, "partial unique index should reject a second active account")
}

func TestGetActiveAccountNone(t *testing.T) {
	database := setupTestDB(t)

	active, err := GetActiveAccount(context.Background(), database)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestUpdateAccountTokens(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	cred := newCredential("rotator")
	require.NoError(t, CreateActiveAccount(ctx, database, cred))

	newExpiry := time.Now().Add(4 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, UpdateAccountTokens(ctx, database, cred.ID, TokenUpdate{
		AccessToken:          "access-new",
		AccessTokenExpiresAt: newExpiry,
	}))

	got, err := GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-new", got.AccessToken)
	assert.True(t, got.AccessTokenExpiresAt.Equal(newExpiry))
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "refresh-rotator", *got.RefreshToken, "nil refresh token keeps the stored one")

	rotated := "refresh-rotated"
	require.NoError(t, UpdateAccountTokens(ctx, database, cred.ID, TokenUpdate{
		AccessToken:          "access-newer",
		AccessTokenExpiresAt: newExpiry.Add(time.Hour),
		RefreshToken:         &rotated,
	}))

	got, err = GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-rotated", *got.RefreshToken)
}

func TestUpdateAccountTokensUnknownAccount(t *testing.T) {
	database := setupTestDB(t)

	err := UpdateAccountTokens(context.Background(), database, uuid.New(), TokenUpdate{
		AccessToken:          "x",
		AccessTokenExpiresAt: time.Now(),
	})
	assert.Error(t, err)
}

func TestDeactivateAccounts(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	cred := newCredential("leaving")
	require.NoError(t, CreateActiveAccount(ctx, database, cred))
	require.NoError(t, UpdateAccountLastSync(ctx, database, cred.ID, time.Now()))

	n, err := DeactivateAccounts(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := GetActiveAccount(ctx, database)
	require.NoError(t, err)
	assert.Nil(t, active)

	kept, err := GetAccount(ctx, database, cred.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.NotNil(t, kept.LastSyncAt)
}
