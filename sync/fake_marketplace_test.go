// ABOUTME: In-memory Marketplace used by the sync engine tests
// ABOUTME: Serves canned order pages and token grants while counting every call
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeMarket struct {
	pages    [][]ebay.Order
	failPage int
	onFetch  func(page int)

	refreshGrant *ebay.TokenGrant
	refreshErr   error

	exchangeGrant *ebay.TokenGrant
	exchangeErr   error

	identity    string
	identityErr error

	fetchCalls    int
	refreshCalls  int
	identityCalls int
	tokensSeen    []string
}

func (f *fakeMarket) AuthCodeURL(state string) string {
	return "https://auth.example.test/oauth2/authorize?state=" + state
}

func (f *fakeMarket) ExchangeCode(ctx context.Context, code string) (*ebay.TokenGrant, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	grant := *f.exchangeGrant
	return &grant, nil
}

func (f *fakeMarket) RefreshToken(ctx context.Context, refreshToken string) (*ebay.TokenGrant, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	grant := *f.refreshGrant
	return &grant, nil
}

func (f *fakeMarket) GetUserIdentity(ctx context.Context, accessToken string) (string, error) {
	f.identityCalls++
	return f.identity, f.identityErr
}

func (f *fakeMarket) FetchOrdersPage(ctx context.Context, accessToken string, q ebay.OrdersQuery) (*ebay.OrdersPage, error) {
	f.fetchCalls++
	f.tokensSeen = append(f.tokensSeen, accessToken)
	if f.onFetch != nil {
		f.onFetch(q.Page)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Page == f.failPage {
		return nil, fmt.Errorf("%w: connection reset", ebay.ErrUnavailable)
	}
	if q.Page < 1 || q.Page > len(f.pages) {
		return &ebay.OrdersPage{PageNumber: q.Page, TotalPages: len(f.pages)}, nil
	}
	return &ebay.OrdersPage{
		Orders:     f.pages[q.Page-1],
		PageNumber: q.Page,
		TotalPages: len(f.pages),
		HasMore:    q.Page < len(f.pages),
	}, nil
}

var errRejected = errors.New("invalid_grant")

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "resell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return database
}

func newTestManager(t *testing.T, market *fakeMarket) (*Manager, *sql.DB) {
	t.Helper()
	database := setupTestDB(t)
	return NewManager(database, market, zap.NewNop(), WithClock(fixedClock)), database
}

// linkAccount stores an active credential whose access token expires after accessTTL.
func linkAccount(t *testing.T, database *sql.DB, accessTTL time.Duration) *models.Credential {
	t.Helper()

	refresh := "refresh-1"
	refreshExpires := testNow.Add(365 * 24 * time.Hour)
	cred := &models.Credential{
		VendorUsername:        "buyer_one",
		AccessToken:           "access-1",
		AccessTokenExpiresAt:  testNow.Add(accessTTL),
		RefreshToken:          &refresh,
		RefreshTokenExpiresAt: &refreshExpires,
	}
	require.NoError(t, db.CreateActiveAccount(context.Background(), database, cred))
	return cred
}

func testOrder(id, seller, total string, created time.Time) ebay.Order {
	var o ebay.Order
	o.OrderID = id
	o.OrderStatus = "Completed"
	o.AmountPaid = ebay.Amount{Value: total, Currency: "USD"}
	o.CreatedTime = created.Format(time.RFC3339)
	o.SellerUserID = seller
	o.ShippingServiceSelected.ShippingServiceCost = ebay.Amount{Value: "5.00", Currency: "USD"}
	o.TransactionArray.Transactions = make([]ebay.Transaction, 1)
	o.TransactionArray.Transactions[0].Item.ItemID = "item-" + id
	o.TransactionArray.Transactions[0].Item.Title = "Vintage lamp " + id
	return o
}

// orderPages builds n pages of perPage orders, all from seller.
func orderPages(n, perPage int, seller string) [][]ebay.Order {
	pages := make([][]ebay.Order, n)
	for p := 0; p < n; p++ {
		for i := 0; i < perPage; i++ {
			id := fmt.Sprintf("order-%d-%d", p+1, i+1)
			pages[p] = append(pages[p], testOrder(id, seller, "25.00", testNow.Add(-time.Duration(p*perPage+i)*time.Hour)))
		}
	}
	return pages
}
