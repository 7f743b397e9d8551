// ABOUTME: Error taxonomy for credential handling and sync runs
// ABOUTME: Sentinels are matched with errors.Is; SyncError carries the run id and partial counts
package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMissing means no active linked account exists.
	ErrCredentialMissing = errors.New("no linked marketplace account")
	// ErrCredentialExpired means the refresh token is gone or rejected and the account must be re-linked.
	ErrCredentialExpired = errors.New("marketplace credential expired, reconnect the account")
	// ErrRemoteFetch wraps a network or vendor failure during a page fetch.
	ErrRemoteFetch = errors.New("failed to fetch orders")
	// ErrMarketplaceUnavailable means the manager was built without a marketplace client.
	ErrMarketplaceUnavailable = errors.New("marketplace client not configured")
	// ErrNotFound is returned by updates targeting an unknown record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a patch fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// SyncError reports a failed run after it has been recorded in the sync log.
type SyncError struct {
	RunID   string
	Fetched int
	Created int
	Updated int
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync run %s failed after %d fetched (%d created, %d updated): %v",
		e.RunID, e.Fetched, e.Created, e.Updated, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
