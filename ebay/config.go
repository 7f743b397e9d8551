// ABOUTME: Configuration for the eBay OAuth and Trading API client
// ABOUTME: Holds app keys, environment endpoints, paging and pacing settings with validation
package ebay

import (
	"errors"
	"strings"
)

// Environment names.
const (
	EnvironmentSandbox    = "SANDBOX"
	EnvironmentProduction = "PRODUCTION"
)

// Endpoints per environment.
const (
	ProductionTradingURL = "https://api.ebay.com/ws/api.dll"
	SandboxTradingURL    = "https://api.sandbox.ebay.com/ws/api.dll"
	ProductionAuthURL    = "https://auth.ebay.com/oauth2/authorize"
	SandboxAuthURL       = "https://auth.sandbox.ebay.com/oauth2/authorize"
	ProductionTokenURL   = "https://api.ebay.com/identity/v1/oauth2/token"
	SandboxTokenURL      = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
)

// DefaultScopes are requested on the consent screen.
var DefaultScopes = []string{
	"https://api.ebay.com/oauth/api_scope",
	"https://api.ebay.com/oauth/api_scope/sell.fulfillment.readonly",
}

// Config validation errors.
var (
	ErrConfigMissingAppID  = errors.New("ebay: app id is required")
	ErrConfigMissingCertID = errors.New("ebay: cert id is required")
	ErrConfigMissingRuName = errors.New("ebay: RuName (redirect URL name) is required")
)

// Config holds everything needed to talk to eBay on behalf of one application.
type Config struct {
	// AppID is the application (client) id from the developer portal
	AppID string
	// CertID is the client secret
	CertID string
	// DevID is sent with Trading API calls
	DevID string
	// RuName is the redirect URL name registered for the consent flow
	RuName string
	// Environment is SANDBOX or PRODUCTION
	Environment string
	// SiteID selects the marketplace site for Trading API calls (0 = US)
	SiteID string
	// EntriesPerPage is the GetOrders page size
	EntriesPerPage int
	// RequestsPerSecond paces Trading API calls
	RequestsPerSecond float64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int

	// Endpoint overrides; empty means derive from Environment
	TradingURL string
	AuthURL    string
	TokenURL   string
	Scopes     []string
}

// IsSandbox reports whether the sandbox endpoints are in use. Anything other than
// PRODUCTION is treated as sandbox.
func (c *Config) IsSandbox() bool {
	return !strings.EqualFold(c.Environment, EnvironmentProduction)
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if c.AppID == "" {
		return ErrConfigMissingAppID
	}
	if c.CertID == "" {
		return ErrConfigMissingCertID
	}
	if c.RuName == "" {
		return ErrConfigMissingRuName
	}

	if c.TradingURL == "" {
		c.TradingURL = ProductionTradingURL
		if c.IsSandbox() {
			c.TradingURL = SandboxTradingURL
		}
	}
	if c.AuthURL == "" {
		c.AuthURL = ProductionAuthURL
		if c.IsSandbox() {
			c.AuthURL = SandboxAuthURL
		}
	}
	if c.TokenURL == "" {
		c.TokenURL = ProductionTokenURL
		if c.IsSandbox() {
			c.TokenURL = SandboxTokenURL
		}
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.SiteID == "" {
		c.SiteID = "0"
	}
	if c.EntriesPerPage <= 0 || c.EntriesPerPage > 100 {
		c.EntriesPerPage = 100
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}

	return nil
}
