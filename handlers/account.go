// ABOUTME: Account MCP tool handlers
// ABOUTME: Implements get_auth_url, connect_account, store_manual_token, connection_status, and disconnect_account
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/resell/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AccountHandlers struct {
	mgr *sync.Manager
}

func NewAccountHandlers(mgr *sync.Manager) *AccountHandlers {
	return &AccountHandlers{mgr: mgr}
}

type AuthURLInput struct {
	State string `json:"state,omitempty" jsonschema:"Opaque state echoed back on the redirect"`
}

type AuthURLOutput struct {
	URL string `json:"url"`
}

func (h *AccountHandlers) GetAuthURL(_ context.Context, request *mcp.CallToolRequest, input AuthURLInput) (*mcp.CallToolResult, AuthURLOutput, error) {
	state := input.State
	if state == "" {
		state = "resell"
	}

	url, err := h.mgr.AuthURL(state)
	if err != nil {
		return nil, AuthURLOutput{}, err
	}

	return nil, AuthURLOutput{URL: url}, nil
}

type AccountOutput struct {
	ID                    string  `json:"id"`
	VendorUsername        string  `json:"vendor_username"`
	AccessTokenExpiresAt  string  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt *string `json:"refresh_token_expires_at,omitempty"`
	IsActive              bool    `json:"is_active"`
}

type ConnectAccountInput struct {
	Code string `json:"code" jsonschema:"Authorization code from the eBay consent redirect (required)"`
}

func (h *AccountHandlers) ConnectAccount(ctx context.Context, request *mcp.CallToolRequest, input ConnectAccountInput) (*mcp.CallToolResult, AccountOutput, error) {
	if input.Code == "" {
		return nil, AccountOutput{}, fmt.Errorf("code is required")
	}

	cred, err := h.mgr.ExchangeCodeForTokens(ctx, input.Code)
	if err != nil {
		return nil, AccountOutput{}, err
	}

	return nil, AccountOutput{
		ID:                    cred.ID.String(),
		VendorUsername:        cred.VendorUsername,
		AccessTokenExpiresAt:  formatTime(cred.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: formatTimePtr(cred.RefreshTokenExpiresAt),
		IsActive:              cred.IsActive,
	}, nil
}

type StoreTokenInput struct {
	AccessToken  string `json:"access_token" jsonschema:"OAuth user access token (required)"`
	RefreshToken string `json:"refresh_token,omitempty" jsonschema:"OAuth refresh token"`
}

func (h *AccountHandlers) StoreManualToken(ctx context.Context, request *mcp.CallToolRequest, input StoreTokenInput) (*mcp.CallToolResult, AccountOutput, error) {
	cred, err := h.mgr.StoreManualToken(ctx, input.AccessToken, input.RefreshToken)
	if err != nil {
		return nil, AccountOutput{}, err
	}

	return nil, AccountOutput{
		ID:                    cred.ID.String(),
		VendorUsername:        cred.VendorUsername,
		AccessTokenExpiresAt:  formatTime(cred.AccessTokenExpiresAt),
		RefreshTokenExpiresAt: formatTimePtr(cred.RefreshTokenExpiresAt),
		IsActive:              cred.IsActive,
	}, nil
}

type EmptyInput struct{}

type ConnectionStatusOutput struct {
	Connected      bool    `json:"connected"`
	AccountID      string  `json:"account_id,omitempty"`
	VendorUsername string  `json:"vendor_username,omitempty"`
	TokenStatus    string  `json:"token_status"`
	LastSyncAt     *string `json:"last_sync_at,omitempty"`
	IsActive       bool    `json:"is_active"`
}

func (h *AccountHandlers) ConnectionStatus(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, ConnectionStatusOutput, error) {
	status, err := h.mgr.ConnectionStatus(ctx)
	if err != nil {
		return nil, ConnectionStatusOutput{}, fmt.Errorf("failed to get connection status: %w", err)
	}

	out := ConnectionStatusOutput{
		Connected:      status.Connected,
		VendorUsername: status.VendorUsername,
		TokenStatus:    status.TokenStatus,
		LastSyncAt:     formatTimePtr(status.LastSyncAt),
		IsActive:       status.IsActive,
	}
	if status.AccountID != nil {
		out.AccountID = status.AccountID.String()
	}

	return nil, out, nil
}

type DisconnectOutput struct {
	Disconnected int64 `json:"disconnected"`
}

func (h *AccountHandlers) Disconnect(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, DisconnectOutput, error) {
	n, err := h.mgr.Disconnect(ctx)
	if err != nil {
		return nil, DisconnectOutput{}, fmt.Errorf("failed to disconnect: %w", err)
	}
	return nil, DisconnectOutput{Disconnected: n}, nil
}
