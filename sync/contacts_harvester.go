// ABOUTME: Seller contact aggregation driven by newly imported purchases
// ABOUTME: Maintains purchase count, spend, average deal size, and relationship tier per seller
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/resell/db"
	"github.com/harperreed/resell/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ContactHarvester folds purchases into seller contacts.
type ContactHarvester struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContactHarvester creates a harvester.
func NewContactHarvester(database *sql.DB, logger *zap.Logger) *ContactHarvester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactHarvester{db: database, logger: logger}
}

// HarvestContact records purchase p against its seller, creating the contact on first sight.
// Purchases without a seller are ignored.
func (h *ContactHarvester) HarvestContact(ctx context.Context, p *models.Purchase) error {
	if p.SellerUsername == "" {
		return nil
	}

	var orderDate *time.Time
	if !p.OrderDate.IsZero() {
		at := p.OrderDate
		orderDate = &at
	}

	contact, err := db.GetContactByUsername(ctx, h.db, p.SellerUsername)
	if err != nil {
		return fmt.Errorf("failed to look up contact: %w", err)
	}

	if contact == nil {
		contact = &models.Contact{
			VendorUsername: p.SellerUsername,
			ContactType:    models.ContactTypeSeller,
			Relationship:   models.RelationshipNew,
			TotalPurchases: 1,
			TotalSpent:     p.TotalCost,
			AvgDealSize:    p.TotalCost.Round(2),
			LastPurchaseAt: orderDate,
		}
		if err := db.CreateContact(ctx, h.db, contact); err != nil {
			return err
		}
		h.logger.Debug("created seller contact", zap.String("seller", p.SellerUsername))
		return nil
	}

	previous := contact.Relationship
	contact.TotalPurchases++
	contact.TotalSpent = contact.TotalSpent.Add(p.TotalCost)
	contact.AvgDealSize = contact.TotalSpent.Div(decimal.NewFromInt(int64(contact.TotalPurchases))).Round(2)
	if orderDate != nil && (contact.LastPurchaseAt == nil || orderDate.After(*contact.LastPurchaseAt)) {
		contact.LastPurchaseAt = orderDate
	}
	contact.Relationship = models.NextRelationship(contact.Relationship, contact.TotalPurchases)

	if err := db.UpdateContactAggregates(ctx, h.db, contact); err != nil {
		return err
	}

	if contact.Relationship != previous {
		h.logger.Info("seller promoted",
			zap.String("seller", contact.VendorUsername),
			zap.String("from", previous),
			zap.String("to", contact.Relationship),
			zap.Int("total_purchases", contact.TotalPurchases))
	}

	return nil
}
