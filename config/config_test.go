// ABOUTME: Tests for config loading, persistence, and environment overrides
// ABOUTME: Redirects XDG data home to a temp dir so user config is never touched
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/harperreed/resell/ebay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDataHome(t *testing.T) string {
	t.Helper()
	origHome := xdg.DataHome
	tmpDir := t.TempDir()
	xdg.DataHome = tmpDir
	t.Cleanup(func() { xdg.DataHome = origHome })

	for _, key := range []string{
		"EBAY_APP_ID", "EBAY_CERT_ID", "EBAY_DEV_ID", "EBAY_RU_NAME",
		"EBAY_ENVIRONMENT", "EBAY_SITE_ID", "RESELL_DB_PATH", "RESELL_PAGE_SIZE",
		"RESELL_REQUESTS_PER_SECOND", "RESELL_LOG_LEVEL", "RESELL_ADMIN_TOKEN",
	} {
		t.Setenv(key, "")
	}
	return tmpDir
}

func TestPaths(t *testing.T) {
	tmpDir := useTempDataHome(t)

	assert.Equal(t, filepath.Join(tmpDir, "resell"), Dir())
	assert.Equal(t, filepath.Join(tmpDir, "resell", "config.json"), Path())
	assert.Equal(t, filepath.Join(tmpDir, "resell", "resell.db"), DefaultDBPath())
}

func TestLoad_NotFound(t *testing.T) {
	useTempDataHome(t)

	cfg, err := Load()
	require.NoError(t, err, "Load should not error when file not found")
	require.NotNil(t, cfg)

	assert.Equal(t, ebay.EnvironmentSandbox, cfg.EbayEnvironment)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Empty(t, cfg.EbayAppID)
	assert.ErrorIs(t, cfg.Validate(), ErrNotConfigured)
}

func TestSaveAndLoad(t *testing.T) {
	useTempDataHome(t)

	cfg := defaults()
	cfg.EbayAppID = "app-123"
	cfg.EbayCertID = "cert-456"
	cfg.EbayRuName = "Resell-RuName"
	cfg.EbayEnvironment = ebay.EnvironmentProduction
	cfg.AdminToken = "secret"

	require.NoError(t, Save(cfg))

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "config should be owner-only")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "app-123", loaded.EbayAppID)
	assert.Equal(t, "cert-456", loaded.EbayCertID)
	assert.Equal(t, "Resell-RuName", loaded.EbayRuName)
	assert.Equal(t, ebay.EnvironmentProduction, loaded.EbayEnvironment)
	assert.Equal(t, "secret", loaded.AdminToken)
	assert.NoError(t, loaded.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	useTempDataHome(t)

	cfg := defaults()
	cfg.EbayAppID = "from-file"
	require.NoError(t, Save(cfg))

	t.Setenv("EBAY_APP_ID", "from-env")
	t.Setenv("EBAY_CERT_ID", "cert-env")
	t.Setenv("EBAY_RU_NAME", "ru-env")
	t.Setenv("RESELL_DB_PATH", "/tmp/override.db")
	t.Setenv("RESELL_PAGE_SIZE", "25")
	t.Setenv("RESELL_REQUESTS_PER_SECOND", "not-a-number")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.EbayAppID)
	assert.Equal(t, "cert-env", loaded.EbayCertID)
	assert.Equal(t, "ru-env", loaded.EbayRuName)
	assert.Equal(t, "/tmp/override.db", loaded.DBPath)
	assert.Equal(t, 25, loaded.PageSize)
	assert.Equal(t, float64(2), loaded.RequestsPerSecond, "unparseable override keeps default")
}

func TestLoad_DotEnvInDataDir(t *testing.T) {
	useTempDataHome(t)
	require.NoError(t, os.MkdirAll(Dir(), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(Dir(), ".env"), []byte("EBAY_DEV_ID=dev-dotenv\n"), 0600))
	t.Setenv("EBAY_DEV_ID", "")
	require.NoError(t, os.Unsetenv("EBAY_DEV_ID"))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev-dotenv", loaded.EbayDevID)
}

func TestLoad_InvalidJSON(t *testing.T) {
	useTempDataHome(t)
	require.NoError(t, os.MkdirAll(Dir(), 0700))
	require.NoError(t, os.WriteFile(Path(), []byte("{not json"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestEbayAndLoggerConfig(t *testing.T) {
	cfg := &Config{
		EbayAppID:         "a",
		EbayCertID:        "c",
		EbayDevID:         "d",
		EbayRuName:        "r",
		EbayEnvironment:   ebay.EnvironmentProduction,
		EbaySiteID:        "3",
		PageSize:          50,
		RequestsPerSecond: 5,
		LogLevel:          "debug",
		LogFormat:         "json",
		LogOutput:         "stdout",
	}

	ec := cfg.EbayConfig()
	assert.Equal(t, "a", ec.AppID)
	assert.Equal(t, "r", ec.RuName)
	assert.Equal(t, "3", ec.SiteID)
	assert.Equal(t, 50, ec.EntriesPerPage)
	assert.False(t, ec.IsSandbox())
	require.NoError(t, ec.Validate())

	lc := cfg.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.Output)
}
