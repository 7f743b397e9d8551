// ABOUTME: Data models for marketplace purchase ingestion
// ABOUTME: Defines Credential, Purchase, Contact, and SyncLog structs plus status constants
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Credential is the stored OAuth2 token pair for one linked marketplace account.
type Credential struct {
	ID                    uuid.UUID  `json:"id"`
	VendorUsername        string     `json:"vendor_username"`
	AccessToken           string     `json:"-"`
	RefreshToken          *string    `json:"-"`
	AccessTokenExpiresAt  time.Time  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt *time.Time `json:"refresh_token_expires_at,omitempty"`
	IsActive              bool       `json:"is_active"`
	LastSyncAt            *time.Time `json:"last_sync_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// HasRefreshToken reports whether a non-empty refresh token is stored.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != nil && *c.RefreshToken != ""
}

// Order status constants.
const (
	OrderStatusActive    = "Active"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// ValidOrderStatus reports whether status is one of the internal order statuses.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusActive, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Purchase is the local record of one order placed on the marketplace.
type Purchase struct {
	ID              uuid.UUID       `json:"id"`
	VendorOrderID   string          `json:"vendor_order_id"`
	VendorItemID    string          `json:"vendor_item_id,omitempty"`
	Title           string          `json:"title"`
	ItemPrice       decimal.Decimal `json:"item_price"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Currency        string          `json:"currency,omitempty"`
	SellerUsername  string          `json:"seller_username,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	ShippingCarrier string          `json:"shipping_carrier,omitempty"`
	TrackingURL     string          `json:"tracking_url,omitempty"`
	OrderStatus     string          `json:"order_status"`
	VendorStatus    string          `json:"vendor_status,omitempty"`
	OrderDate       time.Time       `json:"order_date"`
	RawPayload      string          `json:"raw_payload,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Contact type constants.
const (
	ContactTypeSeller = "seller"
)

// Relationship tier constants.
const (
	RelationshipNew      = "new"
	RelationshipActive   = "active"
	RelationshipVIP      = "vip"
	RelationshipInactive = "inactive"
)

// Tier promotion thresholds, checked after the purchase count is incremented.
const (
	ActiveTierThreshold = 5
	VIPTierThreshold    = 15
)

// Contact is the aggregated profile of a recurring seller.
type Contact struct {
	ID             uuid.UUID       `json:"id"`
	VendorUsername string          `json:"vendor_username"`
	ContactType    string          `json:"contact_type"`
	Relationship   string          `json:"relationship"`
	TotalPurchases int             `json:"total_purchases"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	AvgDealSize    decimal.Decimal `json:"avg_deal_size"`
	LastPurchaseAt *time.Time      `json:"last_purchase_at,omitempty"`
	DisplayName    string          `json:"display_name,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	MailingList    bool            `json:"mailing_list"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NextRelationship returns the tier a contact moves to once it has totalPurchases
// purchases. Promotion is one step at a time and only ever upward.
func NextRelationship(current string, totalPurchases int) string {
	switch current {
	case RelationshipNew:
		if totalPurchases >= ActiveTierThreshold {
			return RelationshipActive
		}
	case RelationshipActive:
		if totalPurchases >= VIPTierThreshold {
			return RelationshipVIP
		}
	}
	return current
}

// Sync status constants.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Sync type constants.
const (
	SyncTypePurchases = "purchases"
)

// SyncLog records one sync run.
type SyncLog struct {
	ID             string     `json:"id"`
	AccountID      *uuid.UUID `json:"account_id,omitempty"`
	SyncType       string     `json:"sync_type"`
	Status         string     `json:"status"`
	RecordsFetched int        `json:"records_fetched"`
	RecordsCreated int        `json:"records_created"`
	RecordsUpdated int        `json:"records_updated"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Token status constants reported by the connection status check.
const (
	TokenStatusNone         = "none"
	TokenStatusActive       = "active"
	TokenStatusExpiringSoon = "expiring_soon"
	TokenStatusExpired      = "expired"
)

// ConnectionStatus summarizes the linked account for operators.
type ConnectionStatus struct {
	Connected      bool       `json:"connected"`
	AccountID      *uuid.UUID `json:"account_id,omitempty"`
	VendorUsername string     `json:"vendor_username,omitempty"`
	TokenStatus    string     `json:"token_status"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	IsActive       bool       `json:"is_active"`
}
