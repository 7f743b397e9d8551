// ABOUTME: MCP prompt handlers for reusable reseller workflow templates
// ABOUTME: Builds seller review, spend summary, and sync health prompts from stored data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/models"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Prompt names served by GetPrompt.
const (
	PromptSellerReview = "seller-review"
	PromptSpendSummary = "spend-summary"
	PromptSyncHealth   = "sync-health"
)

type PromptHandlers struct {
	mgr *sync.Manager
}

func NewPromptHandlers(mgr *sync.Manager) *PromptHandlers {
	return &PromptHandlers{mgr: mgr}
}

// Prompts lists the prompt templates to register on a server.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        PromptSellerReview,
			Description: "Review a seller's purchase history and suggest a relationship tier",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Seller contact ID", Required: true},
			},
		},
		{
			Name:        PromptSpendSummary,
			Description: "Summarize purchase spend by status and seller",
			Arguments: []*mcp.PromptArgument{
				{Name: "since", Description: "Only include purchases on or after this date, YYYY-MM-DD"},
			},
		},
		{
			Name:        PromptSyncHealth,
			Description: "Diagnose the linked account and recent sync runs",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case PromptSellerReview:
		return h.sellerReviewPrompt(ctx, args)
	case PromptSpendSummary:
		return h.spendSummaryPrompt(ctx, args)
	case PromptSyncHealth:
		return h.syncHealthPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) sellerReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["contact_id"]
	if !ok || idStr == "" {
		return nil, fmt.Errorf("contact_id is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, err := h.mgr.GetContact(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}

	purchases, err := h.mgr.ListPurchases(ctx, db.PurchaseFilter{Seller: contact.VendorUsername, Limit: 20})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchases: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please review this seller:\n\n")
	fmt.Fprintf(&b, "Username: %s\n", contact.VendorUsername)
	if contact.DisplayName != "" {
		fmt.Fprintf(&b, "Name: %s\n", contact.DisplayName)
	}
	fmt.Fprintf(&b, "Relationship: %s\n", contact.Relationship)
	fmt.Fprintf(&b, "Purchases: %d\n", contact.TotalPurchases)
	fmt.Fprintf(&b, "Total spent: $%s\n", money(contact.TotalSpent))
	fmt.Fprintf(&b, "Average deal: $%s\n", money(contact.AvgDealSize))
	if contact.LastPurchaseAt != nil {
		fmt.Fprintf(&b, "Last purchase: %s\n", contact.LastPurchaseAt.Format("2006-01-02"))
	}
	if contact.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", contact.Notes)
	}

	if len(purchases.Purchases) > 0 {
		fmt.Fprintf(&b, "\nRecent purchases (%d of %d):\n", len(purchases.Purchases), purchases.Total)
		for _, p := range purchases.Purchases {
			fmt.Fprintf(&b, "  - %s: $%s [%s] %s\n",
				p.OrderDate.Format("2006-01-02"), money(p.TotalCost), p.OrderStatus, p.Title)
		}
	}

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. Whether this seller is worth buying from again")
	b.WriteString("\n2. Whether the relationship tier should change")
	b.WriteString("\n3. Any outstanding shipments to chase")

	return userPrompt(fmt.Sprintf("Review of seller %s", contact.VendorUsername), b.String()), nil
}

func (h *PromptHandlers) spendSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	since, err := sync.ParseDate(args["since"])
	if err != nil {
		return nil, err
	}

	stats, err := h.mgr.PurchaseStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute purchase stats: %w", err)
	}

	var b strings.Builder
	if since != nil {
		fmt.Fprintf(&b, "Purchase spend since %s:\n\n", since.Format("2006-01-02"))
	} else {
		b.WriteString("Purchase spend, all time:\n\n")
	}
	fmt.Fprintf(&b, "Purchases: %d\n", stats.Purchases)
	fmt.Fprintf(&b, "Total spent: $%s\n", money(stats.TotalSpent))

	b.WriteString("\nBy status:\n")
	for _, status := range []string{
		models.OrderStatusActive,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		fmt.Fprintf(&b, "  - %s: %d\n", status, stats.ByStatus[status])
	}

	if len(stats.BySeller) > 0 {
		b.WriteString("\nTop sellers:\n")
		for _, s := range stats.BySeller {
			fmt.Fprintf(&b, "  - %s: %d purchases, $%s\n", s.SellerUsername, s.Purchases, money(s.TotalSpent))
		}
	}

	b.WriteString("\nPlease summarize where the money is going and flag anything unusual.")

	return userPrompt("Purchase spend summary", b.String()), nil
}

func (h *PromptHandlers) syncHealthPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	status, err := h.mgr.ConnectionStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection status: %w", err)
	}
	runs, err := h.mgr.ListSyncRuns(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync runs: %w", err)
	}

	var b strings.Builder
	b.WriteString("Marketplace connection:\n\n")
	if !status.Connected {
		b.WriteString("No account linked.\n")
	} else {
		fmt.Fprintf(&b, "Account: %s\n", status.VendorUsername)
		fmt.Fprintf(&b, "Token status: %s\n", status.TokenStatus)
		if status.LastSyncAt != nil {
			fmt.Fprintf(&b, "Last sync: %s\n", formatTime(*status.LastSyncAt))
		}
	}

	fmt.Fprintf(&b, "\nRecent sync runs (%d):\n", len(runs))
	for _, r := range runs {
		fmt.Fprintf(&b, "  - %s %s: fetched %d, created %d, updated %d",
			formatTime(r.StartedAt), r.Status, r.RecordsFetched, r.RecordsCreated, r.RecordsUpdated)
		if r.ErrorMessage != nil {
			fmt.Fprintf(&b, " (error: %s)", *r.ErrorMessage)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlease explain whether syncing is healthy and what, if anything, the operator should do.")

	return userPrompt("Sync health check", b.String()), nil
}
