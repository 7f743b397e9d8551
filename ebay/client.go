// ABOUTME: eBay client covering the OAuth2 consent/refresh grants and Trading API calls
// ABOUTME: Paces calls with a rate limiter, caps response size, and maps failures to sentinel errors
package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxResponseSize caps how much of a Trading API response is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Token lifetimes assumed when eBay omits them.
const (
	DefaultAccessTokenTTL  = 7200 * time.Second
	DefaultRefreshTokenTTL = 47304000 * time.Second
)

// DefaultWindow is the order lookback used when a query has no start time.
const DefaultWindow = 30 * 24 * time.Hour

// Transport-level errors.
var (
	ErrUnavailable     = errors.New("ebay: service unavailable")
	ErrRequestFailed   = errors.New("ebay: request failed")
	ErrInvalidResponse = errors.New("ebay: invalid response")
	ErrTokenGrant      = errors.New("ebay: token grant rejected")
)

// TokenGrant is the outcome of a code exchange or refresh.
type TokenGrant struct {
	AccessToken           string
	RefreshToken          string
	ExpiresAt             time.Time
	RefreshTokenExpiresAt *time.Time
}

// OrdersQuery selects one page of buyer orders created in [From, To].
type OrdersQuery struct {
	From time.Time
	To   time.Time
	Page int
}

// OrdersPage is one page of GetOrders results.
type OrdersPage struct {
	Orders       []Order
	PageNumber   int
	TotalPages   int
	TotalEntries int
	HasMore      bool
}

// Client talks to eBay for one application.
type Client struct {
	config     *Config
	oauth      *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient validates config and builds a client.
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.AppID,
			ClientSecret: config.CertID,
			RedirectURL:  config.RuName,
			Scopes:       config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   config.AuthURL,
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		now:     time.Now,
	}, nil
}

// AuthCodeURL returns the consent URL the operator visits to link an account.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenGrant, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGrant, err)
	}

	grant := c.grantFromToken(tok)
	if grant.RefreshTokenExpiresAt == nil && grant.RefreshToken != "" {
		expires := c.now().Add(DefaultRefreshTokenTTL)
		grant.RefreshTokenExpiresAt = &expires
	}

	return grant, nil
}

// RefreshToken obtains a new access token. The returned RefreshToken is empty unless
// eBay rotated it.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGrant, err)
	}

	grant := c.grantFromToken(tok)
	if grant.RefreshToken == refreshToken {
		grant.RefreshToken = ""
	}

	return grant, nil
}

// GetUserIdentity returns the eBay user id that owns accessToken.
func (c *Client) GetUserIdentity(ctx context.Context, accessToken string) (string, error) {
	var resp getUserResponse
	if err := c.call(ctx, "GetUser", accessToken, &getUserRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.User.UserID, nil
}

// FetchOrdersPage fetches one page of the buyer's orders. A zero To means now and a
// zero From means DefaultWindow before To.
func (c *Client) FetchOrdersPage(ctx context.Context, accessToken string, q OrdersQuery) (*OrdersPage, error) {
	if q.To.IsZero() {
		q.To = c.now()
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-DefaultWindow)
	}
	if q.Page < 1 {
		q.Page = 1
	}

	req := &getOrdersRequest{
		OrderRole:      "Buyer",
		OrderStatus:    "All",
		CreateTimeFrom: formatTime(q.From),
		CreateTimeTo:   formatTime(q.To),
		DetailLevel:    "ReturnAll",
		Pagination: pagination{
			EntriesPerPage: c.config.EntriesPerPage,
			PageNumber:     q.Page,
		},
	}

	var resp getOrdersResponse
	if err := c.call(ctx, "GetOrders", accessToken, req, &resp); err != nil {
		return nil, err
	}

	page := &OrdersPage{
		Orders:       resp.OrderArray.Orders,
		PageNumber:   q.Page,
		TotalPages:   resp.PaginationResult.TotalNumberOfPages,
		TotalEntries: resp.PaginationResult.TotalNumberOfEntries,
		HasMore:      resp.HasMoreOrders,
	}
	if page.TotalPages == 0 {
		page.TotalPages = 1
	}
	if page.TotalEntries == 0 {
		page.TotalEntries = len(page.Orders)
	}

	return page, nil
}

type acknowledger interface {
	ackError(call string) error
}

// call performs one Trading API round trip.
func (c *Client) call(ctx context.Context, callName, accessToken string, body any, out acknowledger) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ebay: %s: %w", callName, err)
	}

	payload, err := xml.Marshal(body)
	if err != nil {
		return fmt.Errorf("ebay: failed to encode %s request: %w", callName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TradingURL,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return fmt.Errorf("ebay: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("X-EBAY-API-CALL-NAME", callName)
	req.Header.Set("X-EBAY-API-SITEID", c.config.SiteID)
	req.Header.Set("X-EBAY-API-COMPATIBILITY-LEVEL", compatibilityLevel)
	req.Header.Set("X-EBAY-API-IAF-TOKEN", accessToken)
	req.Header.Set("X-EBAY-API-APP-NAME", c.config.AppID)
	req.Header.Set("X-EBAY-API-CERT-NAME", c.config.CertID)
	if c.config.DevID != "" {
		req.Header.Set("X-EBAY-API-DEV-NAME", c.config.DevID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("ebay: failed to read %s response: %w", callName, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: %s HTTP %d", ErrRequestFailed, callName, resp.StatusCode)
	}

	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to parse %s response: %v", ErrInvalidResponse, callName, err)
	}

	return out.ackError(callName)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *Client) grantFromToken(tok *oauth2.Token) *TokenGrant {
	grant := &TokenGrant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if grant.ExpiresAt.IsZero() {
		grant.ExpiresAt = c.now().Add(DefaultAccessTokenTTL)
	}

	if secs, ok := numericExtra(tok.Extra("refresh_token_expires_in")); ok && secs > 0 {
		expires := c.now().Add(time.Duration(secs) * time.Second)
		grant.RefreshTokenExpiresAt = &expires
	}

	return grant
}

// numericExtra reads a numeric token response field, which x/oauth2 surfaces as
// float64 for JSON bodies and string for form-encoded ones.
func numericExtra(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
