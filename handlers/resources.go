// ABOUTME: MCP resource handlers for exposing purchase and seller data
// ABOUTME: Provides read-only JSON views under resell:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "resell://"

// Resource URIs served by ReadResource.
const (
	ResourcePurchases = resourceScheme + "purchases"
	ResourceSellers   = resourceScheme + "sellers"
	ResourceSyncRuns  = resourceScheme + "sync-runs"
	ResourceStatus    = resourceScheme + "status"
)

type ResourceHandlers struct {
	mgr *sync.Manager
}

func NewResourceHandlers(mgr *sync.Manager) *ResourceHandlers {
	return &ResourceHandlers{mgr: mgr}
}

// Resources lists the static resources to register on a server.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: ResourcePurchases, Name: "purchases", Description: "Most recent purchases", MIMEType: "application/json"},
		{URI: ResourceSellers, Name: "sellers", Description: "Sellers ranked by total spend", MIMEType: "application/json"},
		{URI: ResourceSyncRuns, Name: "sync-runs", Description: "Recent sync runs, newest first", MIMEType: "application/json"},
		{URI: ResourceStatus, Name: "status", Description: "Linked account and token health", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	var data any
	var err error
	switch parts[0] {
	case "purchases":
		if len(parts) > 1 {
			data, err = h.readPurchase(ctx, parts[1])
		} else {
			data, err = h.mgr.ListPurchases(ctx, db.PurchaseFilter{Limit: 100})
		}
	case "sellers":
		data, err = h.mgr.ListContacts(ctx, db.ContactFilter{Limit: 100})
	case "sync-runs":
		data, err = h.mgr.ListSyncRuns(ctx, 20)
	case "status":
		data, err = h.mgr.ConnectionStatus(ctx)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}}, nil
}

func (h *ResourceHandlers) readPurchase(ctx context.Context, idStr string) (any, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid purchase ID: %w", err)
	}

	return h.mgr.GetPurchase(ctx, id)
}
