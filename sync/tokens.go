// ABOUTME: Access token lifecycle for the linked marketplace account
// ABOUTME: Refreshes tokens close to expiry and persists the rotation onto the same account row
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/metrics"
	"github.com/harperreed/resell/models"
	"go.uber.org/zap"
)

// RefreshMargin is the minimum remaining lifetime of an access token handed to callers.
const RefreshMargin = 5 * time.Minute

// TokenManager keeps credentials usable for API calls.
type TokenManager struct {
	db     *sql.DB
	market Marketplace
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenManager creates a token manager backed by database and market.
func NewTokenManager(database *sql.DB, market Marketplace, logger *zap.Logger, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{db: database, market: market, logger: logger, now: now}
}

// EnsureFresh returns a credential whose access token is valid for at least RefreshMargin.
// Tokens with enough lifetime left are returned untouched without any network call.
func (m *TokenManager) EnsureFresh(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	now := m.now()
	if cred.AccessTokenExpiresAt.After(now.Add(RefreshMargin)) {
		return cred, nil
	}

	if !cred.HasRefreshToken() {
		metrics.TokenRefreshes.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: no refresh token stored", ErrCredentialExpired)
	}
	if cred.RefreshTokenExpiresAt != nil && !cred.RefreshTokenExpiresAt.After(now) {
		metrics.TokenRefreshes.WithLabelValues("unavailable").Inc()
		return nil, fmt.Errorf("%w: refresh token expired at %s", ErrCredentialExpired,
			cred.RefreshTokenExpiresAt.Format(time.RFC3339))
	}

	m.logger.Info("refreshing access token",
		zap.String("account_id", cred.ID.String()),
		zap.Time("expires_at", cred.AccessTokenExpiresAt))

	grant, err := m.market.RefreshToken(ctx, *cred.RefreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		m.logger.Warn("token refresh failed", zap.String("account_id", cred.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCredentialExpired, err)
	}

	update := db.TokenUpdate{
		AccessToken:          grant.AccessToken,
		AccessTokenExpiresAt: grant.ExpiresAt,
	}
	if update.AccessTokenExpiresAt.IsZero() {
		update.AccessTokenExpiresAt = now.Add(ebay.DefaultAccessTokenTTL)
	}
	if grant.RefreshToken != "" {
		rotated := grant.RefreshToken
		update.RefreshToken = &rotated
		update.RefreshTokenExpiresAt = grant.RefreshTokenExpiresAt
		if update.RefreshTokenExpiresAt == nil {
			expires := now.Add(ebay.DefaultRefreshTokenTTL)
			update.RefreshTokenExpiresAt = &expires
		}
	}

	if err := db.UpdateAccountTokens(ctx, m.db, cred.ID, update); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()

	fresh := *cred
	fresh.AccessToken = update.AccessToken
	fresh.AccessTokenExpiresAt = update.AccessTokenExpiresAt.UTC()
	if update.RefreshToken != nil {
		fresh.RefreshToken = update.RefreshToken
		expires := update.RefreshTokenExpiresAt.UTC()
		fresh.RefreshTokenExpiresAt = &expires
	}
	fresh.UpdatedAt = now.UTC()

	return &fresh, nil
}
