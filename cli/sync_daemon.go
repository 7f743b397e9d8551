// ABOUTME: Sync daemon mode for scheduled purchase imports
// ABOUTME: Runs sync back-to-back on an interval until interrupted or the account needs re-linking
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/sync"
)

const minDaemonInterval = 5 * time.Minute

// validateInterval parses a daemon interval and enforces the minimum.
func validateInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d < minDaemonInterval {
		return 0, fmt.Errorf("interval must be at least %s, got %s", minDaemonInterval, d)
	}
	return d, nil
}

func runSyncDaemon(mgr *sync.Manager, accountID *uuid.UUID, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting sync daemon (interval: %s). Press Ctrl+C to stop.\n", interval)

	var lastSync time.Time
	err := runDaemonLoop(ctx, interval, func(ctx context.Context) error {
		if !lastSync.IsZero() {
			fmt.Printf("\n[%s] Syncing (last sync %s)...\n", time.Now().Format("15:04:05"), formatTimeSince(lastSync))
		} else {
			fmt.Printf("\n[%s] Syncing...\n", time.Now().Format("15:04:05"))
		}

		summary, err := mgr.RunSync(ctx, accountID, sync.Window{})
		if err != nil {
			printSyncFailure(err)
			return err
		}
		lastSync = time.Now()
		printSyncSummary(summary)
		return nil
	})

	if err != nil {
		return err
	}
	fmt.Println("\nSync daemon stopped")
	return nil
}

// runDaemonLoop calls runOnce immediately and then every interval until ctx is done.
// Transient failures are retried on the next tick; a missing or expired credential
// stops the loop because no later run can succeed without re-linking.
func runDaemonLoop(ctx context.Context, interval time.Duration, runOnce func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := runOnce(ctx); err != nil && isFatalSyncError(err) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func isFatalSyncError(err error) bool {
	return errors.Is(err, sync.ErrCredentialExpired) ||
		errors.Is(err, sync.ErrCredentialMissing) ||
		errors.Is(err, sync.ErrMarketplaceUnavailable)
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
