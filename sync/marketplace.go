// ABOUTME: Marketplace abstraction the sync engine talks to instead of a concrete vendor client
// ABOUTME: Implemented by ebay.Client and replaced by fakes in tests
package sync

import (
	"context"

	"github.com/harperreed/resell/ebay"
)

// Marketplace is the vendor surface used for account linking and order retrieval.
type Marketplace interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*ebay.TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (*ebay.TokenGrant, error)
	GetUserIdentity(ctx context.Context, accessToken string) (string, error)
	FetchOrdersPage(ctx context.Context, accessToken string, q ebay.OrdersQuery) (*ebay.OrdersPage, error)
}

var _ Marketplace = (*ebay.Client)(nil)
