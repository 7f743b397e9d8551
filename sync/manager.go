// ABOUTME: Manager is the single entry point used by the CLI, MCP tools, admin server, and TUI
// ABOUTME: Covers account linking, connection status, sync runs, and purchase/contact administration
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/tracking"
	"go.uber.org/zap"
)

// ExpiringSoonWindow is how close to expiry an access token is reported as expiring_soon.
const ExpiringSoonWindow = 24 * time.Hour

// unknownIdentity is stored when the vendor identity lookup fails.
const unknownIdentity = "unknown"

// Manager wires the token manager, fetcher, importer and harvester over one database.
type Manager struct {
	db       *sql.DB
	market   Marketplace
	logger   *zap.Logger
	now      func() time.Time
	tokens   *TokenManager
	importer *PurchaseImporter
	validate *validator.Validate
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager. market may be nil, in which case only local
// read and edit operations are available.
func NewManager(database *sql.DB, market Marketplace, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		db:       database,
		market:   market,
		logger:   logger,
		now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.tokens = NewTokenManager(database, market, logger, m.now)
	m.importer = NewPurchaseImporter(
		database,
		NewFetcher(m.tokens, market),
		NewContactHarvester(database, logger),
		logger,
		m.now,
	)

	return m
}

// AuthURL returns the consent URL for linking an account.
func (m *Manager) AuthURL(state string) (string, error) {
	if m.market == nil {
		return "", ErrMarketplaceUnavailable
	}
	return m.market.AuthCodeURL(state), nil
}

// ExchangeCodeForTokens completes the consent flow and stores the resulting account as
// the active one.
func (m *Manager) ExchangeCodeForTokens(ctx context.Context, code string) (*models.Credential, error) {
	if m.market == nil {
		return nil, ErrMarketplaceUnavailable
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code is required", ErrInvalidInput)
	}

	grant, err := m.market.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return m.storeGrant(ctx, grant)
}

// StoreManualToken stores an operator-supplied token pair as the active account.
// refreshToken may be empty.
func (m *Manager) StoreManualToken(ctx context.Context, accessToken, refreshToken string) (*models.Credential, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}

	return m.storeGrant(ctx, &ebay.TokenGrant{
		AccessToken:  accessToken,
		RefreshToken: strings.TrimSpace(refreshToken),
	})
}

func (m *Manager) storeGrant(ctx context.Context, grant *ebay.TokenGrant) (*models.Credential, error) {
	now := m.now()

	cred := &models.Credential{
		VendorUsername:       m.lookupIdentity(ctx, grant.AccessToken),
		AccessToken:          grant.AccessToken,
		AccessTokenExpiresAt: grant.ExpiresAt,
	}
	if cred.AccessTokenExpiresAt.IsZero() {
		cred.AccessTokenExpiresAt = now.Add(ebay.DefaultAccessTokenTTL)
	}
	if grant.RefreshToken != "" {
		refresh := grant.RefreshToken
		cred.RefreshToken = &refresh
		cred.RefreshTokenExpiresAt = grant.RefreshTokenExpiresAt
		if cred.RefreshTokenExpiresAt == nil {
			expires := now.Add(ebay.DefaultRefreshTokenTTL)
			cred.RefreshTokenExpiresAt = &expires
		}
	}

	if err := db.CreateActiveAccount(ctx, m.db, cred); err != nil {
		return nil, err
	}

	m.logger.Info("marketplace account linked",
		zap.String("account_id", cred.ID.String()),
		zap.String("vendor_username", cred.VendorUsername))

	return cred, nil
}

func (m *Manager) lookupIdentity(ctx context.Context, accessToken string) string {
	if m.market == nil {
		return unknownIdentity
	}
	username, err := m.market.GetUserIdentity(ctx, accessToken)
	if err != nil {
		m.logger.Warn("failed to look up marketplace identity", zap.Error(err))
		return unknownIdentity
	}
	if username == "" {
		return unknownIdentity
	}
	return username
}

// ConnectionStatus reports the linked account and the health of its tokens.
func (m *Manager) ConnectionStatus(ctx context.Context) (*models.ConnectionStatus, error) {
	cred, err := db.GetActiveAccount(ctx, m.db)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &models.ConnectionStatus{TokenStatus: models.TokenStatusNone}, nil
	}

	id := cred.ID
	return &models.ConnectionStatus{
		Connected:      true,
		AccountID:      &id,
		VendorUsername: cred.VendorUsername,
		TokenStatus:    tokenStatus(cred, m.now()),
		LastSyncAt:     cred.LastSyncAt,
		IsActive:       cred.IsActive,
	}, nil
}

func tokenStatus(cred *models.Credential, now time.Time) string {
	accessExpired := !cred.AccessTokenExpiresAt.After(now)
	refreshAlive := cred.HasRefreshToken() &&
		(cred.RefreshTokenExpiresAt == nil || cred.RefreshTokenExpiresAt.After(now))

	switch {
	case accessExpired && !refreshAlive:
		return models.TokenStatusExpired
	case accessExpired:
		return models.TokenStatusExpiringSoon
	case !cred.AccessTokenExpiresAt.After(now.Add(ExpiringSoonWindow)):
		return models.TokenStatusExpiringSoon
	default:
		return models.TokenStatusActive
	}
}

// RunSync imports purchases for accountID (the active account when nil) over window.
func (m *Manager) RunSync(ctx context.Context, accountID *uuid.UUID, window Window) (*SyncSummary, error) {
	if m.market == nil {
		return nil, ErrMarketplaceUnavailable
	}
	return m.importer.RunSync(ctx, accountID, window)
}

// Disconnect deactivates the linked account. Account rows are never deleted.
func (m *Manager) Disconnect(ctx context.Context) (int64, error) {
	n, err := db.DeactivateAccounts(ctx, m.db)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("marketplace account disconnected")
	}
	return n, nil
}

// PurchaseList is one page of purchases with overall stats.
type PurchaseList struct {
	Purchases []models.Purchase     `json:"purchases"`
	Total     int                   `json:"total"`
	Stats     *db.PurchaseListStats `json:"stats"`
}

// ListPurchases returns purchases matching filter.
func (m *Manager) ListPurchases(ctx context.Context, filter db.PurchaseFilter) (*PurchaseList, error) {
	purchases, total, err := db.ListPurchases(ctx, m.db, filter)
	if err != nil {
		return nil, err
	}
	stats, err := db.GetPurchaseListStats(ctx, m.db)
	if err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	return &PurchaseList{Purchases: purchases, Total: total, Stats: stats}, nil
}

// GetPurchase returns the purchase with id.
func (m *Manager) GetPurchase(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	p, err := db.GetPurchase(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: purchase %s", ErrNotFound, id)
	}
	return p, nil
}

// GetContact returns the contact with id.
func (m *Manager) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	c, err := db.GetContact(ctx, m.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: contact %s", ErrNotFound, id)
	}
	return c, nil
}

// PurchasePatch holds operator edits. Nil fields are left unchanged.
type PurchasePatch struct {
	Notes           *string `json:"notes,omitempty"`
	OrderStatus     *string `json:"order_status,omitempty"`
	TrackingNumber  *string `json:"tracking_number,omitempty"`
	ShippingCarrier *string `json:"shipping_carrier,omitempty"`
}

type purchaseEdit struct {
	OrderStatus string `validate:"required,oneof=Active Shipped Delivered Cancelled"`
}

// UpdatePurchase applies patch to the purchase with id and recomputes its tracking URL.
func (m *Manager) UpdatePurchase(ctx context.Context, id uuid.UUID, patch PurchasePatch) (*models.Purchase, error) {
	p, err := m.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.OrderStatus != nil {
		p.OrderStatus = strings.TrimSpace(*patch.OrderStatus)
	}
	if patch.TrackingNumber != nil {
		p.TrackingNumber = strings.TrimSpace(*patch.TrackingNumber)
	}
	if patch.ShippingCarrier != nil {
		carrier := strings.TrimSpace(*patch.ShippingCarrier)
		if known := tracking.NormalizeCarrier(carrier); known != "" {
			carrier = known
		}
		p.ShippingCarrier = carrier
	}
	if p.ShippingCarrier == "" {
		p.ShippingCarrier = tracking.DetectCarrier(p.TrackingNumber)
	}

	if err := m.validate.Struct(purchaseEdit{OrderStatus: p.OrderStatus}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p.TrackingURL = tracking.ResolveURL(p.ShippingCarrier, p.TrackingNumber)

	if err := db.UpdatePurchase(ctx, m.db, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ContactList is one page of contacts with overall stats.
type ContactList struct {
	Contacts []models.Contact     `json:"contacts"`
	Total    int                  `json:"total"`
	Stats    *db.ContactListStats `json:"stats"`
}

// ListContacts returns contacts matching filter.
func (m *Manager) ListContacts(ctx context.Context, filter db.ContactFilter) (*ContactList, error) {
	contacts, total, err := db.ListContacts(ctx, m.db, filter)
	if err != nil {
		return nil, err
	}
	stats, err := db.GetContactListStats(ctx, m.db)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	return &ContactList{Contacts: contacts, Total: total, Stats: stats}, nil
}

// ContactPatch holds operator edits to a contact profile. Nil fields are left unchanged.
type ContactPatch struct {
	DisplayName  *string `json:"display_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	MailingList  *bool   `json:"mailing_list,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
}

type contactEdit struct {
	Email        string `validate:"omitempty,email"`
	Relationship string `validate:"required,oneof=new active vip inactive"`
}

// UpdateContact applies patch to the contact with id. Relationship may be set to any tier,
// including a downgrade to inactive.
func (m *Manager) UpdateContact(ctx context.Context, id uuid.UUID, patch ContactPatch) (*models.Contact, error) {
	c, err := m.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		c.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Email != nil {
		c.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		c.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.MailingList != nil {
		c.MailingList = *patch.MailingList
	}
	if patch.Relationship != nil {
		c.Relationship = strings.ToLower(strings.TrimSpace(*patch.Relationship))
	}

	if err := m.validate.Struct(contactEdit{Email: c.Email, Relationship: c.Relationship}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := db.UpdateContactProfile(ctx, m.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListSyncRuns returns recent sync runs, newest first.
func (m *Manager) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncLog, error) {
	runs, err := db.ListSyncRuns(ctx, m.db, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.SyncLog{}
	}
	return runs, nil
}

// PurchaseStats reports spend over purchases ordered on or after since.
func (m *Manager) PurchaseStats(ctx context.Context, since *time.Time) (*db.PurchaseStats, error) {
	return db.GetPurchaseStats(ctx, m.db, since)
}
