package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLegacyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resell.db")
	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = database.Exec(`CREATE TABLE purchases (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, database.Close())
	return path
}

func TestMissingTables(t *testing.T) {
	assert.Equal(t, resellTables, missingTables(nil))
	assert.Empty(t, missingTables(resellTables))
	assert.Equal(t,
		[]string{"marketplace_accounts", "marketplace_contacts", "sync_runs"},
		missingTables([]string{"purchases", "sqlite_sequence"}))
}

func TestMigrateRequiresExistingFile(t *testing.T) {
	err := migrate(filepath.Join(t.TempDir(), "nope.db"), false, false)
	assert.Error(t, err)
}

func TestMigrateDryRunChangesNothing(t *testing.T) {
	path := newLegacyDB(t)

	require.NoError(t, migrate(path, true, true))

	database, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer database.Close()
	tables, err := getCurrentTables(database)
	require.NoError(t, err)
	assert.Equal(t, []string{"purchases"}, tables)

	backups, _ := filepath.Glob(path + ".backup.*")
	assert.Empty(t, backups)
}

func TestBackupDatabase(t *testing.T) {
	path := newLegacyDB(t)
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

	backupPath, err := backupDatabase(path, now)
	require.NoError(t, err)
	assert.Equal(t, path+".backup.20261001-093000", backupPath)

	orig, err := os.ReadFile(path)
	require.NoError(t, err)
	copied, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, orig, copied)
}
