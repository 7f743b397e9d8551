// ABOUTME: Purchase sync CLI commands
// ABOUTME: Runs one-shot or daemon syncs and shows the sync run log
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/harperreed/resell/sync"
)

// DefaultSyncInterval is the --interval default; main sets it from config.
var DefaultSyncInterval = "1h"

// SyncCommand imports purchases for the active (or given) account.
// With --daemon it keeps syncing every --interval until interrupted.
func SyncCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	account := fs.String("account", "", "Account ID to sync (defaults to the active account)")
	from := fs.String("from", "", "Start of the order window (YYYY-MM-DD, default 30 days ago)")
	to := fs.String("to", "", "End of the order window (YYYY-MM-DD, default now)")
	daemon := fs.Bool("daemon", false, "Keep syncing on an interval")
	interval := fs.String("interval", DefaultSyncInterval, "Daemon sync interval (minimum 5m)")
	_ = fs.Parse(args)

	var accountID *uuid.UUID
	if *account != "" {
		id, err := uuid.Parse(*account)
		if err != nil {
			return fmt.Errorf("invalid account ID: %w", err)
		}
		accountID = &id
	}

	fromDate, err := sync.ParseDate(*from)
	if err != nil {
		return err
	}
	toDate, err := sync.ParseDate(*to)
	if err != nil {
		return err
	}

	if *daemon {
		if fromDate != nil || toDate != nil {
			return fmt.Errorf("--from and --to cannot be combined with --daemon")
		}
		every, err := validateInterval(*interval)
		if err != nil {
			return err
		}
		return runSyncDaemon(mgr, accountID, every)
	}

	fmt.Println("Syncing eBay purchases...")
	summary, err := mgr.RunSync(context.Background(), accountID, sync.Window{From: fromDate, To: toDate})
	if err != nil {
		printSyncFailure(err)
		return err
	}

	printSyncSummary(summary)
	return nil
}

func printSyncSummary(s *sync.SyncSummary) {
	fmt.Printf("✓ Sync completed (run %s)\n", s.RunID)
	fmt.Printf("  Fetched: %d\n", s.RecordsFetched)
	fmt.Printf("  Created: %d\n", s.RecordsCreated)
	fmt.Printf("  Updated: %d\n", s.RecordsUpdated)
}

func printSyncFailure(err error) {
	var syncErr *sync.SyncError
	if errors.As(err, &syncErr) {
		fmt.Printf("✗ Sync failed (run %s) after fetching %d orders\n", syncErr.RunID, syncErr.Fetched)
	} else {
		fmt.Println("✗ Sync failed")
	}
	if errors.Is(err, sync.ErrCredentialExpired) || errors.Is(err, sync.ErrCredentialMissing) {
		fmt.Println("  Run 'resell market connect' to link the account again.")
	}
}

// SyncLogCommand shows recent sync runs
func SyncLogCommand(mgr *sync.Manager, args []string) error {
	fs := flag.NewFlagSet("sync-log", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum runs to show")
	_ = fs.Parse(args)

	runs, err := mgr.ListSyncRuns(context.Background(), *limit)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No sync runs yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tSTATUS\tFETCHED\tCREATED\tUPDATED\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t------\t-------\t-------\t-------\t-----")

	for _, r := range runs {
		errMsg := "-"
		if r.ErrorMessage != nil {
			errMsg = truncate(*r.ErrorMessage, 60)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status,
			r.RecordsFetched, r.RecordsCreated, r.RecordsUpdated, errMsg)
	}
	_ = w.Flush()

	return nil
}
