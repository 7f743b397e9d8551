// ABOUTME: Purchase sync orchestrator that pages through remote orders and upserts them locally
// ABOUTME: Records every run in the sync log and harvests seller contacts from new purchases
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/ebay"
	"github.com/harperreed/resell/metrics"
	"github.com/harperreed/resell/models"
	"go.uber.org/zap"
)

// Window bounds the order creation times a sync covers. Nil ends default to the last
// 30 days through now.
type Window struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// SyncSummary reports the outcome of a completed run.
type SyncSummary struct {
	RunID          string `json:"run_id"`
	RecordsFetched int    `json:"records_fetched"`
	RecordsCreated int    `json:"records_created"`
	RecordsUpdated int    `json:"records_updated"`
}

// PurchaseImporter drives sync runs.
type PurchaseImporter struct {
	db        *sql.DB
	fetcher   *Fetcher
	harvester *ContactHarvester
	logger    *zap.Logger
	now       func() time.Time
}

// NewPurchaseImporter creates an importer.
func NewPurchaseImporter(database *sql.DB, fetcher *Fetcher, harvester *ContactHarvester, logger *zap.Logger, now func() time.Time) *PurchaseImporter {
	if now == nil {
		now = time.Now
	}
	return &PurchaseImporter{
		db:        database,
		fetcher:   fetcher,
		harvester: harvester,
		logger:    logger,
		now:       now,
	}
}

// ParseDate parses a YYYY-MM-DD date or an RFC 3339 timestamp. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidInput, s)
	}
	return &t, nil
}

// resolve fills in the default window ends.
func (w Window) resolve(now time.Time) (time.Time, time.Time) {
	to := now
	if w.To != nil {
		to = *w.To
	}
	from := to.Add(-ebay.DefaultWindow)
	if w.From != nil {
		from = *w.From
	}
	return from, to
}

// RunSync imports purchases for accountID, or the active account when nil. Failures are
// written to the sync log before a *SyncError is returned.
func (im *PurchaseImporter) RunSync(ctx context.Context, accountID *uuid.UUID, window Window) (*SyncSummary, error) {
	started := im.now()
	from, to := window.resolve(started)

	run, err := db.CreateSyncRun(ctx, im.db, models.SyncTypePurchases, accountID)
	if err != nil {
		return nil, err
	}

	log := im.logger.With(zap.String("run_id", run.ID))
	log.Info("sync started", zap.Time("from", from), zap.Time("to", to))

	var counts db.SyncCounts
	cred, err := im.resolveCredential(ctx, accountID)
	if err == nil {
		err = im.importPages(ctx, log, cred, from, to, &counts)
	}
	if err == nil {
		err = db.UpdateAccountLastSync(ctx, im.db, cred.ID, im.now())
	}

	var linked *uuid.UUID
	if cred != nil {
		linked = &cred.ID
	}

	metrics.SyncDuration.Observe(im.now().Sub(started).Seconds())
	metrics.SyncRecords.WithLabelValues("fetched").Add(float64(counts.Fetched))
	metrics.SyncRecords.WithLabelValues("created").Add(float64(counts.Created))
	metrics.SyncRecords.WithLabelValues("updated").Add(float64(counts.Updated))

	if err != nil {
		metrics.SyncRuns.WithLabelValues(models.SyncStatusFailed).Inc()
		log.Error("sync failed",
			zap.Int("records_fetched", counts.Fetched),
			zap.Int("records_created", counts.Created),
			zap.Int("records_updated", counts.Updated),
			zap.Error(err))

		// The run must be recorded even when ctx was cancelled.
		if finishErr := db.FinishSyncRun(context.WithoutCancel(ctx), im.db, run.ID, linked, counts, err); finishErr != nil {
			log.Error("failed to record sync failure", zap.Error(finishErr))
		}

		return nil, &SyncError{
			RunID:   run.ID,
			Fetched: counts.Fetched,
			Created: counts.Created,
			Updated: counts.Updated,
			Err:     err,
		}
	}

	if err := db.FinishSyncRun(ctx, im.db, run.ID, linked, counts, nil); err != nil {
		return nil, err
	}
	metrics.SyncRuns.WithLabelValues(models.SyncStatusCompleted).Inc()

	log.Info("sync completed",
		zap.Int("records_fetched", counts.Fetched),
		zap.Int("records_created", counts.Created),
		zap.Int("records_updated", counts.Updated))

	return &SyncSummary{
		RunID:          run.ID,
		RecordsFetched: counts.Fetched,
		RecordsCreated: counts.Created,
		RecordsUpdated: counts.Updated,
	}, nil
}

func (im *PurchaseImporter) resolveCredential(ctx context.Context, accountID *uuid.UUID) (*models.Credential, error) {
	var cred *models.Credential
	var err error
	if accountID != nil {
		cred, err = db.GetAccount(ctx, im.db, *accountID)
	} else {
		cred, err = db.GetActiveAccount(ctx, im.db)
	}
	if err != nil {
		return nil, err
	}
	if cred == nil || !cred.IsActive {
		return nil, ErrCredentialMissing
	}
	return cred, nil
}

// importPages walks every page in order. counts reflects only fully fetched pages and
// the records processed from them.
func (im *PurchaseImporter) importPages(ctx context.Context, log *zap.Logger, cred *models.Credential, from, to time.Time, counts *db.SyncCounts) error {
	for pageNum := 1; ; pageNum++ {
		page, fresh, err := im.fetcher.FetchOrdersPage(ctx, cred, ebay.OrdersQuery{From: from, To: to, Page: pageNum})
		if err != nil {
			return err
		}
		cred = fresh
		counts.Fetched += len(page.Orders)

		log.Debug("fetched orders page",
			zap.Int("page", pageNum),
			zap.Int("total_pages", page.TotalPages),
			zap.Int("orders", len(page.Orders)))

		for _, order := range page.Orders {
			if err := im.importOrder(ctx, log, order, counts); err != nil {
				return err
			}
		}

		if !page.HasMore {
			return nil
		}
	}
}

func (im *PurchaseImporter) importOrder(ctx context.Context, log *zap.Logger, order ebay.Order, counts *db.SyncCounts) error {
	if _, ok := ebay.MapOrderStatus(order.OrderStatus); !ok {
		log.Warn("unrecognized order status, treating as active",
			zap.String("order_id", order.OrderID),
			zap.String("vendor_status", order.OrderStatus))
	}

	purchase := ebay.Normalize(order)
	if purchase.VendorOrderID == "" {
		log.Warn("skipping order without an order id")
		return nil
	}

	created, err := db.UpsertPurchase(ctx, im.db, &purchase)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", purchase.VendorOrderID, err)
	}

	if !created {
		counts.Updated++
		return nil
	}
	counts.Created++

	if err := im.harvester.HarvestContact(ctx, &purchase); err != nil {
		return fmt.Errorf("failed to update seller %s: %w", purchase.SellerUsername, err)
	}

	return nil
}
