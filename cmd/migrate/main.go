// ABOUTME: Schema upgrade utility for existing resell databases
// ABOUTME: Backs up the file, reports missing tables, and applies the current schema
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/resell/db"
	_ "github.com/mattn/go-sqlite3"
)

// resellTables lists every table the current schema creates.
var resellTables = []string{
	"marketplace_accounts",
	"purchases",
	"marketplace_contacts",
	"sync_runs",
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}

	if err := migrate(*dbPath, *dryRun, *backup); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(dbPath string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath, err := backupDatabase(dbPath, time.Now())
		if err != nil {
			return err
		}
		log.Printf("Backup created: %s", backupPath)
	}

	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	tables, err := getCurrentTables(database)
	if err != nil {
		return fmt.Errorf("failed to get current tables: %w", err)
	}

	missing := missingTables(tables)
	if len(missing) == 0 {
		log.Printf("All tables present, re-applying indexes")
	} else {
		log.Printf("Missing tables: %v", missing)
	}

	if dryRun {
		log.Printf("[DRY RUN] Would create: %v", missing)
		return nil
	}

	// The schema is idempotent, so existing rows are untouched.
	if err := db.InitSchema(database); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	for _, table := range resellTables {
		var n int
		if err := database.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		log.Printf("%s: %d rows", table, n)
	}

	return nil
}

func backupDatabase(dbPath string, now time.Time) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", dbPath, now.Format("20060102-150405"))

	input, err := os.ReadFile(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

func getCurrentTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func missingTables(existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t] = true
	}

	var missing []string
	for _, t := range resellTables {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	return missing
}
