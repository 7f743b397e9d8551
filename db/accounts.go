// ABOUTME: Marketplace account (OAuth credential) database operations
// ABOUTME: Stores token pairs, enforces the single active account, and records token rotation
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
)

const accountColumns = `id, vendor_username, access_token, refresh_token, access_token_expires_at,
	refresh_token_expires_at, is_active, last_sync_at, created_at, updated_at`

// TokenUpdate carries the result of a token refresh onto an existing account row.
// A nil RefreshToken keeps the stored one.
type TokenUpdate struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          *string
	RefreshTokenExpiresAt *time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Credential, error) {
	var cred models.Credential
	var refreshToken sql.NullString
	var refreshExpires, lastSync sql.NullTime

	err := row.Scan(
		&cred.ID,
		&cred.VendorUsername,
		&cred.AccessToken,
		&refreshToken,
		&cred.AccessTokenExpiresAt,
		&refreshExpires,
		&cred.IsActive,
		&lastSync,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if refreshToken.Valid {
		cred.RefreshToken = &refreshToken.String
	}
	cred.RefreshTokenExpiresAt = timePtr(refreshExpires)
	cred.LastSyncAt = timePtr(lastSync)

	return &cred, nil
}

// CreateActiveAccount deactivates any active account and inserts cred as the new
// active one, in a single transaction.
func CreateActiveAccount(ctx context.Context, db *sql.DB, cred *models.Credential) error {
	cred.ID = uuid.New()
	now := time.Now().UTC()
	cred.CreatedAt = now
	cred.UpdatedAt = now
	cred.IsActive = true

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	if _, err := tx.ExecContext(ctx, `
		UPDATE marketplace_accounts SET is_active = 0, updated_at = ? WHERE is_active = 1
	`, now); err != nil {
		return fmt.Errorf("failed to deactivate accounts: %w", err)
	}

	var refreshToken sql.NullString
	if cred.RefreshToken != nil {
		refreshToken = nullString(*cred.RefreshToken)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO marketplace_accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
	`,
		cred.ID.String(),
		cred.VendorUsername,
		cred.AccessToken,
		refreshToken,
		cred.AccessTokenExpiresAt.UTC(),
		nullTime(cred.RefreshTokenExpiresAt),
		nullTime(cred.LastSyncAt),
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return tx.Commit()
}

// GetAccount retrieves an account by ID. Returns nil when not found.
func GetAccount(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Credential, error) {
	row := db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM marketplace_accounts WHERE id = ?`, id.String())

	cred, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return cred, nil
}

// GetActiveAccount retrieves the single active account. Returns nil when none is linked.
func GetActiveAccount(ctx context.Context, db *sql.DB) (*models.Credential, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM marketplace_accounts
		WHERE is_active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`)

	cred, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active account: %w", err)
	}

	return cred, nil
}

// UpdateAccountTokens persists a token rotation onto the account row.
func UpdateAccountTokens(ctx context.Context, db *sql.DB, id uuid.UUID, update TokenUpdate) error {
	var refreshToken sql.NullString
	if update.RefreshToken != nil {
		refreshToken = nullString(*update.RefreshToken)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE marketplace_accounts
		SET access_token = ?,
			access_token_expires_at = ?,
			refresh_token = COALESCE(?, refresh_token),
			refresh_token_expires_at = COALESCE(?, refresh_token_expires_at),
			updated_at = ?
		WHERE id = ?
	`,
		update.AccessToken,
		update.AccessTokenExpiresAt.UTC(),
		refreshToken,
		nullTime(update.RefreshTokenExpiresAt),
		time.Now().UTC(),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account tokens: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s not found", id)
	}

	return nil
}

// UpdateAccountLastSync records when the account last completed a sync.
func UpdateAccountLastSync(ctx context.Context, db *sql.DB, id uuid.UUID, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE marketplace_accounts SET last_sync_at = ?, updated_at = ? WHERE id = ?
	`, at.UTC(), time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update last sync time: %w", err)
	}

	return nil
}

// DeactivateAccounts soft-disconnects every active account and reports how many changed.
func DeactivateAccounts(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE marketplace_accounts SET is_active = 0, updated_at = ? WHERE is_active = 1
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate accounts: %w", err)
	}

	return res.RowsAffected()
}
