// ABOUTME: Sync MCP tool handlers
// ABOUTME: Implements run_sync and list_sync_runs
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SyncHandlers struct {
	mgr *sync.Manager
}

func NewSyncHandlers(mgr *sync.Manager) *SyncHandlers {
	return &SyncHandlers{mgr: mgr}
}

type RunSyncInput struct {
	AccountID string `json:"account_id,omitempty" jsonschema:"Account ID to sync (defaults to the active account)"`
	From      string `json:"from,omitempty" jsonschema:"Start of the order window, YYYY-MM-DD (defaults to 30 days ago)"`
	To        string `json:"to,omitempty" jsonschema:"End of the order window, YYYY-MM-DD (defaults to now)"`
}

type RunSyncOutput struct {
	RunID          string `json:"run_id"`
	RecordsFetched int    `json:"records_fetched"`
	RecordsCreated int    `json:"records_created"`
	RecordsUpdated int    `json:"records_updated"`
}

func (h *SyncHandlers) RunSync(ctx context.Context, request *mcp.CallToolRequest, input RunSyncInput) (*mcp.CallToolResult, RunSyncOutput, error) {
	var accountID *uuid.UUID
	if input.AccountID != "" {
		id, err := uuid.Parse(input.AccountID)
		if err != nil {
			return nil, RunSyncOutput{}, fmt.Errorf("invalid account_id: %w", err)
		}
		accountID = &id
	}

	from, err := sync.ParseDate(input.From)
	if err != nil {
		return nil, RunSyncOutput{}, err
	}
	to, err := sync.ParseDate(input.To)
	if err != nil {
		return nil, RunSyncOutput{}, err
	}

	summary, err := h.mgr.RunSync(ctx, accountID, sync.Window{From: from, To: to})
	if err != nil {
		return nil, RunSyncOutput{}, err
	}

	return nil, RunSyncOutput{
		RunID:          summary.RunID,
		RecordsFetched: summary.RecordsFetched,
		RecordsCreated: summary.RecordsCreated,
		RecordsUpdated: summary.RecordsUpdated,
	}, nil
}

type ListSyncRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs (default 50)"`
}

type ListSyncRunsOutput struct {
	Runs []SyncRunOutput `json:"runs"`
}

func (h *SyncHandlers) ListSyncRuns(ctx context.Context, request *mcp.CallToolRequest, input ListSyncRunsInput) (*mcp.CallToolResult, ListSyncRunsOutput, error) {
	runs, err := h.mgr.ListSyncRuns(ctx, input.Limit)
	if err != nil {
		return nil, ListSyncRunsOutput{}, fmt.Errorf("failed to list sync runs: %w", err)
	}

	result := make([]SyncRunOutput, len(runs))
	for i := range runs {
		result[i] = syncRunToOutput(&runs[i])
	}

	return nil, ListSyncRunsOutput{Runs: result}, nil
}
