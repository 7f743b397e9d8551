// ABOUTME: Application configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Produces the eBay client and logger settings used by every command
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/logger"
	"github.com/joho/godotenv"
)

// AppName names the XDG data directory.
const AppName = "resell"

// ErrNotConfigured is returned by Validate when the eBay OAuth app settings are missing.
var ErrNotConfigured = errors.New("eBay app credentials not configured: set EBAY_APP_ID, EBAY_CERT_ID and EBAY_RU_NAME")

// Config stores marketplace credentials, storage and server settings.
type Config struct {
	EbayAppID         string  `json:"ebay_app_id"`
	EbayCertID        string  `json:"ebay_cert_id"`
	EbayDevID         string  `json:"ebay_dev_id,omitempty"`
	EbayRuName        string  `json:"ebay_ru_name"`
	EbayEnvironment   string  `json:"ebay_environment"`
	EbaySiteID        string  `json:"ebay_site_id,omitempty"`
	PageSize          int     `json:"page_size,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	DBPath            string  `json:"db_path,omitempty"`
	LogLevel          string  `json:"log_level,omitempty"`
	LogFormat         string  `json:"log_format,omitempty"`
	LogOutput         string  `json:"log_output,omitempty"`
	AdminAddr         string  `json:"admin_addr,omitempty"`
	AdminToken        string  `json:"admin_token,omitempty"`
	SyncInterval      string  `json:"sync_interval,omitempty"`
}

// Dir returns the XDG data directory for resell.
func Dir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() string {
	return filepath.Join(Dir(), "resell.db")
}

func defaults() *Config {
	return &Config{
		EbayEnvironment:   ebay.EnvironmentSandbox,
		EbaySiteID:        "0",
		PageSize:          100,
		RequestsPerSecond: 2,
		DBPath:            DefaultDBPath(),
		LogLevel:          "info",
		LogFormat:         "console",
		LogOutput:         "stderr",
		AdminAddr:         "127.0.0.1:8088",
		SyncInterval:      "1h",
	}
}

// Load reads the config file, then a .env file in the working directory or data
// directory, then environment overrides:
// - EBAY_APP_ID, EBAY_CERT_ID, EBAY_DEV_ID, EBAY_RU_NAME
// - EBAY_ENVIRONMENT, EBAY_SITE_ID
// - RESELL_DB_PATH, RESELL_PAGE_SIZE, RESELL_REQUESTS_PER_SECOND
// - RESELL_LOG_LEVEL, RESELL_LOG_FORMAT, RESELL_LOG_OUTPUT
// - RESELL_ADMIN_ADDR, RESELL_ADMIN_TOKEN, RESELL_SYNC_INTERVAL.
// A missing config file is not an error.
func Load() (*Config, error) {
	cfg := defaults()

	f, err := os.Open(Path())
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
func loadDotEnv() error {
	for _, path := range []string{".env", filepath.Join(Dir(), ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.EbayAppID, "EBAY_APP_ID")
	setString(&cfg.EbayCertID, "EBAY_CERT_ID")
	setString(&cfg.EbayDevID, "EBAY_DEV_ID")
	setString(&cfg.EbayRuName, "EBAY_RU_NAME")
	setString(&cfg.EbayEnvironment, "EBAY_ENVIRONMENT")
	setString(&cfg.EbaySiteID, "EBAY_SITE_ID")
	setString(&cfg.DBPath, "RESELL_DB_PATH")
	setString(&cfg.LogLevel, "RESELL_LOG_LEVEL")
	setString(&cfg.LogFormat, "RESELL_LOG_FORMAT")
	setString(&cfg.LogOutput, "RESELL_LOG_OUTPUT")
	setString(&cfg.AdminAddr, "RESELL_ADMIN_ADDR")
	setString(&cfg.AdminToken, "RESELL_ADMIN_TOKEN")
	setString(&cfg.SyncInterval, "RESELL_SYNC_INTERVAL")

	if v := os.Getenv("RESELL_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("RESELL_REQUESTS_PER_SECOND"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RequestsPerSecond = n
		}
	}
}

// Save writes the config file with owner-only permissions.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// Validate reports whether the eBay OAuth app settings are present.
func (c *Config) Validate() error {
	if c.EbayAppID == "" || c.EbayCertID == "" || c.EbayRuName == "" {
		return ErrNotConfigured
	}
	return nil
}

// EbayConfig builds the client configuration.
func (c *Config) EbayConfig() *ebay.Config {
	return &ebay.Config{
		AppID:             c.EbayAppID,
		CertID:            c.EbayCertID,
		DevID:             c.EbayDevID,
		RuName:            c.EbayRuName,
		Environment:       c.EbayEnvironment,
		SiteID:            c.EbaySiteID,
		EntriesPerPage:    c.PageSize,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// LoggerConfig builds the logger configuration.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}
