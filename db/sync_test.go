// ABOUTME: Tests for sync run bookkeeping
// ABOUTME: Verifies running/terminal transitions and newest-first listing
package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncRunLifecycle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	run, err := CreateSyncRun(ctx, database, models.SyncTypePurchases, nil)
	require.NoError(t, err)
	assert.Len(t, run.ID, 26)
	assert.Equal(t, models.SyncStatusRunning, run.Status)

	accountID := uuid.New()
	require.NoError(t, FinishSyncRun(ctx, database, run.ID, &accountID, SyncCounts{Fetched: 7, Created: 5, Updated: 2}, nil))

	got, err := GetSyncRun(ctx, database, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.SyncStatusCompleted, got.Status)
	assert.Equal(t, 7, got.RecordsFetched)
	assert.Equal(t, 5, got.RecordsCreated)
	assert.Equal(t, 2, got.RecordsUpdated)
	require.NotNil(t, got.AccountID)
	assert.Equal(t, accountID, *got.AccountID)
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.ErrorMessage)

	// exactly one terminal update
	assert.Error(t, FinishSyncRun(ctx, database, run.ID, nil, SyncCounts{}, errors.New("late")))
}

func TestSyncRunFailed(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	run, err := CreateSyncRun(ctx, database, models.SyncTypePurchases, nil)
	require.NoError(t, err)
	require.NoError(t, FinishSyncRun(ctx, database, run.ID, nil, SyncCounts{Fetched: 3}, errors.New("vendor timeout")))

	got, err := GetSyncRun(ctx, database, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "vendor timeout", *got.ErrorMessage)
	assert.Nil(t, got.AccountID)
}

func TestListSyncRunsNewestFirst(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := CreateSyncRun(ctx, database, models.SyncTypePurchases, nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := ListSyncRuns(ctx, database, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
}
