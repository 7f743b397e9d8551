// ABOUTME: Purchase MCP tool handlers
// ABOUTME: Implements list_purchases, update_purchase, and purchase_stats
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PurchaseHandlers struct {
	mgr *sync.Manager
}

func NewPurchaseHandlers(mgr *sync.Manager) *PurchaseHandlers {
	return &PurchaseHandlers{mgr: mgr}
}

type ListPurchasesInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: Active, Shipped, Delivered, Cancelled, or all"`
	Seller string `json:"seller,omitempty" jsonschema:"Filter by seller username"`
	Query  string `json:"query,omitempty" jsonschema:"Search title, order ID, tracking number, or seller"`
	From   string `json:"from,omitempty" jsonschema:"Earliest order date, YYYY-MM-DD"`
	To     string `json:"to,omitempty" jsonschema:"Latest order date, YYYY-MM-DD"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 50)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of results to skip"`
}

type PurchaseListStatsOutput struct {
	TotalPurchases   int    `json:"total_purchases"`
	TotalSpent       string `json:"total_spent"`
	AwaitingDelivery int    `json:"awaiting_delivery"`
	UniqueSellers    int    `json:"unique_sellers"`
}

type ListPurchasesOutput struct {
	Purchases []PurchaseOutput        `json:"purchases"`
	Total     int                     `json:"total"`
	Stats     PurchaseListStatsOutput `json:"stats"`
}

func (h *PurchaseHandlers) ListPurchases(ctx context.Context, request *mcp.CallToolRequest, input ListPurchasesInput) (*mcp.CallToolResult, ListPurchasesOutput, error) {
	from, err := sync.ParseDate(input.From)
	if err != nil {
		return nil, ListPurchasesOutput{}, err
	}
	to, err := sync.ParseDate(input.To)
	if err != nil {
		return nil, ListPurchasesOutput{}, err
	}

	list, err := h.mgr.ListPurchases(ctx, db.PurchaseFilter{
		Status: input.Status,
		Seller: input.Seller,
		Search: input.Query,
		From:   from,
		To:     to,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, ListPurchasesOutput{}, fmt.Errorf("failed to list purchases: %w", err)
	}

	result := make([]PurchaseOutput, len(list.Purchases))
	for i := range list.Purchases {
		result[i] = purchaseToOutput(&list.Purchases[i])
	}

	return nil, ListPurchasesOutput{
		Purchases: result,
		Total:     list.Total,
		Stats: PurchaseListStatsOutput{
			TotalPurchases:   list.Stats.TotalPurchases,
			TotalSpent:       money(list.Stats.TotalSpent),
			AwaitingDelivery: list.Stats.AwaitingDelivery,
			UniqueSellers:    list.Stats.UniqueSellers,
		},
	}, nil
}

type UpdatePurchaseInput struct {
	ID              string  `json:"id" jsonschema:"Purchase ID (required)"`
	Notes           *string `json:"notes,omitempty" jsonschema:"Operator notes"`
	OrderStatus     *string `json:"order_status,omitempty" jsonschema:"Active, Shipped, Delivered, or Cancelled"`
	TrackingNumber  *string `json:"tracking_number,omitempty" jsonschema:"Shipment tracking number"`
	ShippingCarrier *string `json:"shipping_carrier,omitempty" jsonschema:"UPS, USPS, FedEx, or DHL (detected from the number when empty)"`
}

func (h *PurchaseHandlers) UpdatePurchase(ctx context.Context, request *mcp.CallToolRequest, input UpdatePurchaseInput) (*mcp.CallToolResult, PurchaseOutput, error) {
	if input.ID == "" {
		return nil, PurchaseOutput{}, fmt.Errorf("id is required")
	}

	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, PurchaseOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	p, err := h.mgr.UpdatePurchase(ctx, id, sync.PurchasePatch{
		Notes:           input.Notes,
		OrderStatus:     input.OrderStatus,
		TrackingNumber:  input.TrackingNumber,
		ShippingCarrier: input.ShippingCarrier,
	})
	if err != nil {
		return nil, PurchaseOutput{}, err
	}

	return nil, purchaseToOutput(p), nil
}

type PurchaseStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"Only count purchases ordered on or after this date, YYYY-MM-DD"`
}

type PurchaseStatsOutput struct {
	Since      string              `json:"since,omitempty"`
	Purchases  int                 `json:"purchases"`
	TotalSpent string              `json:"total_spent"`
	ByStatus   map[string]int      `json:"by_status"`
	BySeller   []SellerSpendOutput `json:"by_seller"`
}

func (h *PurchaseHandlers) PurchaseStats(ctx context.Context, request *mcp.CallToolRequest, input PurchaseStatsInput) (*mcp.CallToolResult, PurchaseStatsOutput, error) {
	since, err := sync.ParseDate(input.Since)
	if err != nil {
		return nil, PurchaseStatsOutput{}, err
	}

	stats, err := h.mgr.PurchaseStats(ctx, since)
	if err != nil {
		return nil, PurchaseStatsOutput{}, fmt.Errorf("failed to compute purchase stats: %w", err)
	}

	out := PurchaseStatsOutput{
		Purchases:  stats.Purchases,
		TotalSpent: money(stats.TotalSpent),
		ByStatus:   stats.ByStatus,
		BySeller:   sellerSpendToOutput(stats.BySeller),
	}
	if since != nil {
		out.Since = formatTime(*since)
	}

	return nil, out, nil
}
