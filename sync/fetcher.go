// ABOUTME: Authenticated order page fetcher that refreshes the credential before every call
// ABOUTME: A long sync may cross token expiry, so freshness is checked per page
package sync

import (
	"context"
	"fmt"

	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/models"
)

// Fetcher retrieves order pages with a credential kept fresh by a TokenManager.
type Fetcher struct {
	tokens *TokenManager
	market Marketplace
}

// NewFetcher creates a fetcher.
func NewFetcher(tokens *TokenManager, market Marketplace) *Fetcher {
	return &Fetcher{tokens: tokens, market: market}
}

// FetchOrdersPage returns one page of orders and the credential used to fetch it, which
// callers should carry into the next call.
func (f *Fetcher) FetchOrdersPage(ctx context.Context, cred *models.Credential, q ebay.OrdersQuery) (*ebay.OrdersPage, *models.Credential, error) {
	fresh, err := f.tokens.EnsureFresh(ctx, cred)
	if err != nil {
		return nil, cred, err
	}

	page, err := f.market.FetchOrdersPage(ctx, fresh.AccessToken, q)
	if err != nil {
		return nil, fresh, fmt.Errorf("%w: page %d: %w", ErrRemoteFetch, q.Page, err)
	}

	return page, fresh, nil
}
