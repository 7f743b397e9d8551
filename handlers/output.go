// ABOUTME: JSON output shapes shared by the MCP tool handlers
// ABOUTME: Flattens UUIDs, money, and timestamps into strings for tool schemas
package handlers

import (
	"time"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/models"
	"github.com/shopspring/decimal"
)

type PurchaseOutput struct {
	ID              string `json:"id"`
	VendorOrderID   string `json:"vendor_order_id"`
	VendorItemID    string `json:"vendor_item_id,omitempty"`
	Title           string `json:"title"`
	ItemPrice       string `json:"item_price"`
	ShippingCost    string `json:"shipping_cost"`
	TotalCost       string `json:"total_cost"`
	Currency        string `json:"currency,omitempty"`
	SellerUsername  string `json:"seller_username,omitempty"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
	ShippingCarrier string `json:"shipping_carrier,omitempty"`
	TrackingURL     string `json:"tracking_url,omitempty"`
	OrderStatus     string `json:"order_status"`
	VendorStatus    string `json:"vendor_status,omitempty"`
	OrderDate       string `json:"order_date,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UpdatedAt       string `json:"updated_at"`
}

type ContactOutput struct {
	ID             string  `json:"id"`
	VendorUsername string  `json:"vendor_username"`
	ContactType    string  `json:"contact_type"`
	Relationship   string  `json:"relationship"`
	TotalPurchases int     `json:"total_purchases"`
	TotalSpent     string  `json:"total_spent"`
	AvgDealSize    string  `json:"avg_deal_size"`
	LastPurchaseAt *string `json:"last_purchase_at,omitempty"`
	DisplayName    string  `json:"display_name,omitempty"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	MailingList    bool    `json:"mailing_list"`
}

type SyncRunOutput struct {
	ID             string  `json:"id"`
	AccountID      string  `json:"account_id,omitempty"`
	Status         string  `json:"status"`
	RecordsFetched int     `json:"records_fetched"`
	RecordsCreated int     `json:"records_created"`
	RecordsUpdated int     `json:"records_updated"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	StartedAt      string  `json:"started_at"`
	CompletedAt    *string `json:"completed_at,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func purchaseToOutput(p *models.Purchase) PurchaseOutput {
	return PurchaseOutput{
		ID:              p.ID.String(),
		VendorOrderID:   p.VendorOrderID,
		VendorItemID:    p.VendorItemID,
		Title:           p.Title,
		ItemPrice:       money(p.ItemPrice),
		ShippingCost:    money(p.ShippingCost),
		TotalCost:       money(p.TotalCost),
		Currency:        p.Currency,
		SellerUsername:  p.SellerUsername,
		TrackingNumber:  p.TrackingNumber,
		ShippingCarrier: p.ShippingCarrier,
		TrackingURL:     p.TrackingURL,
		OrderStatus:     p.OrderStatus,
		VendorStatus:    p.VendorStatus,
		OrderDate:       formatTime(p.OrderDate),
		Notes:           p.Notes,
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

func contactToOutput(c *models.Contact) ContactOutput {
	return ContactOutput{
		ID:             c.ID.String(),
		VendorUsername: c.VendorUsername,
		ContactType:    c.ContactType,
		Relationship:   c.Relationship,
		TotalPurchases: c.TotalPurchases,
		TotalSpent:     money(c.TotalSpent),
		AvgDealSize:    money(c.AvgDealSize),
		LastPurchaseAt: formatTimePtr(c.LastPurchaseAt),
		DisplayName:    c.DisplayName,
		Email:          c.Email,
		Phone:          c.Phone,
		Notes:          c.Notes,
		MailingList:    c.MailingList,
	}
}

func syncRunToOutput(r *models.SyncLog) SyncRunOutput {
	out := SyncRunOutput{
		ID:             r.ID,
		Status:         r.Status,
		RecordsFetched: r.RecordsFetched,
		RecordsCreated: r.RecordsCreated,
		RecordsUpdated: r.RecordsUpdated,
		StartedAt:      formatTime(r.StartedAt),
		CompletedAt:    formatTimePtr(r.CompletedAt),
	}
	if r.AccountID != nil {
		out.AccountID = r.AccountID.String()
	}
	if r.ErrorMessage != nil {
		out.ErrorMessage = *r.ErrorMessage
	}
	return out
}

type SellerSpendOutput struct {
	SellerUsername string `json:"seller_username"`
	Purchases      int    `json:"purchases"`
	TotalSpent     string `json:"total_spent"`
}

func sellerSpendToOutput(s []db.SellerSpend) []SellerSpendOutput {
	out := make([]SellerSpendOutput, len(s))
	for i, row := range s {
		out[i] = SellerSpendOutput{
			SellerUsername: row.SellerUsername,
			Purchases:      row.Purchases,
			TotalSpent:     money(row.TotalSpent),
		}
	}
	return out
}
