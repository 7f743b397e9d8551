// ABOUTME: Database operations for the sync_runs table
// ABOUTME: Records the start, terminal outcome, and history of purchase sync runs
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
	"github.com/oklog/ulid/v2"
)

const syncRunColumns = `id, account_id, sync_type, status, records_fetched, records_created,
	records_updated, error_message, started_at, completed_at`

// SyncCounts are the per-run record counters written on the terminal update.
type SyncCounts struct {
	Fetched int
	Created int
	Updated int
}

func scanSyncRun(row rowScanner) (*models.SyncLog, error) {
	var run models.SyncLog
	var accountID, errorMessage sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&accountID,
		&run.SyncType,
		&run.Status,
		&run.RecordsFetched,
		&run.RecordsCreated,
		&run.RecordsUpdated,
		&errorMessage,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if accountID.Valid {
		if id, err := uuid.Parse(accountID.String); err == nil {
			run.AccountID = &id
		}
	}
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	run.CompletedAt = timePtr(completedAt)

	return &run, nil
}

// CreateSyncRun inserts a run in the running state and returns it. Run IDs are
// monotonic ULIDs so they sort by start time.
func CreateSyncRun(ctx context.Context, db *sql.DB, syncType string, accountID *uuid.UUID) (*models.SyncLog, error) {
	now := time.Now().UTC()
	run := &models.SyncLog{
		ID:        ulid.Make().String(),
		AccountID: accountID,
		SyncType:  syncType,
		Status:    models.SyncStatusRunning,
		StartedAt: now,
	}

	var account sql.NullString
	if accountID != nil {
		account = nullString(accountID.String())
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, account_id, sync_type, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, account, run.SyncType, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}

	return run, nil
}

// FinishSyncRun applies the single terminal update to a running sync run. A nil runErr
// marks it completed, otherwise failed with the error text.
func FinishSyncRun(ctx context.Context, db *sql.DB, runID string, accountID *uuid.UUID, counts SyncCounts, runErr error) error {
	status := models.SyncStatusCompleted
	var errorMessage sql.NullString
	if runErr != nil {
		status = models.SyncStatusFailed
		errorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}

	var account sql.NullString
	if accountID != nil {
		account = nullString(accountID.String())
	}

	res, err := db.ExecContext(ctx, `
		UPDATE sync_runs
		SET status = ?, account_id = COALESCE(?, account_id), records_fetched = ?, records_created = ?,
			records_updated = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`,
		status,
		account,
		counts.Fetched,
		counts.Created,
		counts.Updated,
		errorMessage,
		time.Now().UTC(),
		runID,
		models.SyncStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sync run %s is not running", runID)
	}

	return nil
}

// GetSyncRun retrieves a sync run by ID. Returns nil when not found.
func GetSyncRun(ctx context.Context, db *sql.DB, runID string) (*models.SyncLog, error) {
	row := db.QueryRowContext(ctx, `SELECT `+syncRunColumns+` FROM sync_runs WHERE id = ?`, runID)

	run, err := scanSyncRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}

	return run, nil
}

// ListSyncRuns returns the most recent sync runs, newest first.
func ListSyncRuns(ctx context.Context, db *sql.DB, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+syncRunColumns+`
		FROM sync_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncLog
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}
