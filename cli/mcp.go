// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server exposing purchase sync and seller tools over stdio
package cli

import (
	"context"
	"log"

	"github.com/harperreed/resell/handlers"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the MCP server with every tool, resource, and prompt registered.
func NewMCPServer(mgr *sync.Manager, version string) *mcp.Server {
	accountHandlers := handlers.NewAccountHandlers(mgr)
	syncHandlers := handlers.NewSyncHandlers(mgr)
	purchaseHandlers := handlers.NewPurchaseHandlers(mgr)
	contactHandlers := handlers.NewContactHandlers(mgr)
	resourceHandlers := handlers.NewResourceHandlers(mgr)
	promptHandlers := handlers.NewPromptHandlers(mgr)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "resell",
		Version: version,
	}, nil)

	// Account
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_auth_url",
		Description: "Get the eBay consent URL used to link a buyer account",
	}, accountHandlers.GetAuthURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "connect_account",
		Description: "Exchange an eBay authorization code for tokens and make the account active",
	}, accountHandlers.ConnectAccount)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "store_manual_token",
		Description: "Store an operator-supplied access token (and optional refresh token) as the active account",
	}, accountHandlers.StoreManualToken)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "connection_status",
		Description: "Show the linked eBay account, token health, and last sync time",
	}, accountHandlers.ConnectionStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "disconnect_account",
		Description: "Deactivate the linked eBay account (stored purchases are kept)",
	}, accountHandlers.Disconnect)

	// Sync
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_sync",
		Description: "Import eBay purchases for a date window (default: last 30 days)",
	}, syncHandlers.RunSync)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sync_runs",
		Description: "List recent sync runs with counts and errors, newest first",
	}, syncHandlers.ListSyncRuns)

	// Purchases
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_purchases",
		Description: "List purchases filtered by status, seller, search text, or date range",
	}, purchaseHandlers.ListPurchases)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_purchase",
		Description: "Update a purchase's notes, status, or tracking details",
	}, purchaseHandlers.UpdatePurchase)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "purchase_stats",
		Description: "Summarize purchase counts by status and spend per seller",
	}, purchaseHandlers.PurchaseStats)

	// Sellers
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List seller contacts filtered by relationship tier, search text, or mailing list",
	}, contactHandlers.ListContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update a seller's display name, email, phone, notes, mailing list flag, or tier",
	}, contactHandlers.UpdateContact)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.ResourcePurchases + "/{id}",
		Name:        "purchase",
		Description: "A single purchase by ID",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(mgr *sync.Manager, version string) error {
	log.Println("Starting resell MCP Server...")

	server := NewMCPServer(mgr, version)

	// Run server on stdio transport
	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}
