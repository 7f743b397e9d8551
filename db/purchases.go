// ABOUTME: Purchase database operations keyed by the vendor order id
// ABOUTME: Provides natural-key upsert, filtered listing with aggregate stats, and operator edits
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
	"github.com/shopspring/decimal"
)

const purchaseColumns = `id, vendor_order_id, vendor_item_id, title, item_price, shipping_cost, total_cost,
	currency, seller_username, tracking_number, shipping_carrier, tracking_url, order_status,
	vendor_status, order_date, raw_payload, notes, created_at, updated_at`

// PurchaseFilter narrows ListPurchases. Zero values mean "no filter".
type PurchaseFilter struct {
	Status string
	Seller string
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// PurchaseListStats summarizes every stored purchase regardless of filter.
type PurchaseListStats struct {
	TotalPurchases   int             `json:"total_purchases"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	AwaitingDelivery int             `json:"awaiting_delivery"`
	UniqueSellers    int             `json:"unique_sellers"`
}

// SellerSpend is one row of the per-seller breakdown.
type SellerSpend struct {
	SellerUsername string          `json:"seller_username"`
	Purchases      int             `json:"purchases"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
}

// PurchaseStats is the spend report over purchases ordered on or after Since.
type PurchaseStats struct {
	Since      *time.Time      `json:"since,omitempty"`
	ByStatus   map[string]int  `json:"by_status"`
	Purchases  int             `json:"purchases"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	BySeller   []SellerSpend   `json:"by_seller"`
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var itemID, currency, seller, trackingNumber, carrier, trackingURL, vendorStatus, raw, notes sql.NullString
	var orderDate sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.VendorOrderID,
		&itemID,
		&p.Title,
		&p.ItemPrice,
		&p.ShippingCost,
		&p.TotalCost,
		&currency,
		&seller,
		&trackingNumber,
		&carrier,
		&trackingURL,
		&p.OrderStatus,
		&vendorStatus,
		&orderDate,
		&raw,
		&notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.VendorItemID = itemID.String
	p.Currency = currency.String
	p.SellerUsername = seller.String
	p.TrackingNumber = trackingNumber.String
	p.ShippingCarrier = carrier.String
	p.TrackingURL = trackingURL.String
	p.VendorStatus = vendorStatus.String
	p.RawPayload = raw.String
	p.Notes = notes.String
	if orderDate.Valid {
		p.OrderDate = orderDate.Time
	}

	return &p, nil
}

// GetPurchase retrieves a purchase by its surrogate ID. Returns nil when not found.
func GetPurchase(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Purchase, error) {
	row := db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id.String())

	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return p, nil
}

// GetPurchaseByOrderID retrieves a purchase by its vendor order id. Returns nil when not found.
func GetPurchaseByOrderID(ctx context.Context, db *sql.DB, vendorOrderID string) (*models.Purchase, error) {
	row := db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE vendor_order_id = ?`, vendorOrderID)

	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase by order id: %w", err)
	}

	return p, nil
}

// UpsertPurchase inserts p or overwrites the vendor-derived fields of the row sharing its
// vendor order id. Operator notes on an existing row are preserved. Reports whether a new
// row was created; p is updated with the stored ID, notes and timestamps.
func UpsertPurchase(ctx context.Context, db *sql.DB, p *models.Purchase) (bool, error) {
	existing, err := GetPurchaseByOrderID(ctx, db, p.VendorOrderID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	created := existing == nil
	if created {
		p.ID = uuid.New()
		p.CreatedAt = now
	} else {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.Notes = existing.Notes
	}
	p.UpdatedAt = now
	if p.OrderStatus == "" {
		p.OrderStatus = models.OrderStatusActive
	}

	orderDate := p.OrderDate
	_, err = db.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(vendor_order_id) DO UPDATE SET
			vendor_item_id = excluded.vendor_item_id,
			title = excluded.title,
			item_price = excluded.item_price,
			shipping_cost = excluded.shipping_cost,
			total_cost = excluded.total_cost,
			currency = excluded.currency,
			seller_username = excluded.seller_username,
			tracking_number = excluded.tracking_number,
			shipping_carrier = excluded.shipping_carrier,
			tracking_url = excluded.tracking_url,
			order_status = excluded.order_status,
			vendor_status = excluded.vendor_status,
			order_date = excluded.order_date,
			raw_payload = excluded.raw_payload,
			updated_at = excluded.updated_at
	`,
		p.ID.String(),
		p.VendorOrderID,
		nullString(p.VendorItemID),
		p.Title,
		p.ItemPrice,
		p.ShippingCost,
		p.TotalCost,
		nullString(p.Currency),
		nullString(p.SellerUsername),
		nullString(p.TrackingNumber),
		nullString(p.ShippingCarrier),
		nullString(p.TrackingURL),
		p.OrderStatus,
		nullString(p.VendorStatus),
		nullTime(&orderDate),
		nullString(p.RawPayload),
		nullString(p.Notes),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert purchase %s: %w", p.VendorOrderID, err)
	}

	return created, nil
}

// UpdatePurchase writes the operator-editable fields of p.
func UpdatePurchase(ctx context.Context, db *sql.DB, p *models.Purchase) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := db.ExecContext(ctx, `
		UPDATE purchases
		SET notes = ?, order_status = ?, tracking_number = ?, shipping_carrier = ?, tracking_url = ?, updated_at = ?
		WHERE id = ?
	`,
		nullString(p.Notes),
		p.OrderStatus,
		nullString(p.TrackingNumber),
		nullString(p.ShippingCarrier),
		nullString(p.TrackingURL),
		p.UpdatedAt,
		p.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("purchase %s not found", p.ID)
	}

	return nil
}

func purchaseWhere(filter PurchaseFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Status != "" && !strings.EqualFold(filter.Status, "all") {
		clauses = append(clauses, "order_status = ?")
		args = append(args, filter.Status)
	}
	if filter.Seller != "" {
		clauses = append(clauses, "seller_username = ?")
		args = append(args, filter.Seller)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		clauses = append(clauses, `(LOWER(title) LIKE ? OR LOWER(vendor_order_id) LIKE ?
			OR LOWER(COALESCE(tracking_number, '')) LIKE ? OR LOWER(COALESCE(seller_username, '')) LIKE ?)`)
		args = append(args, pattern, pattern, pattern, pattern)
	}
	if filter.From != nil {
		clauses = append(clauses, "order_date >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		clauses = append(clauses, "order_date <= ?")
		args = append(args, filter.To.UTC())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ListPurchases returns one page of purchases, newest order first, plus the total
// number of rows matching the filter.
func ListPurchases(ctx context.Context, db *sql.DB, filter PurchaseFilter) ([]models.Purchase, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where, args := purchaseWhere(filter)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases`+where+`
		ORDER BY order_date DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, *p)
	}

	return purchases, total, rows.Err()
}

// GetPurchaseListStats computes the dashboard summary over all stored purchases.
func GetPurchaseListStats(ctx context.Context, db *sql.DB) (*PurchaseListStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT total_cost, order_status, seller_username FROM purchases`)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase stats: %w", err)
	}
	defer rows.Close()

	stats := &PurchaseListStats{TotalSpent: decimal.Zero}
	sellers := make(map[string]struct{})

	for rows.Next() {
		var total decimal.Decimal
		var status string
		var seller sql.NullString
		if err := rows.Scan(&total, &status, &seller); err != nil {
			return nil, fmt.Errorf("failed to scan purchase stats: %w", err)
		}

		stats.TotalPurchases++
		stats.TotalSpent = stats.TotalSpent.Add(total)
		if status == models.OrderStatusActive || status == models.OrderStatusShipped {
			stats.AwaitingDelivery++
		}
		if seller.Valid && seller.String != "" {
			sellers[seller.String] = struct{}{}
		}
	}
	stats.UniqueSellers = len(sellers)

	return stats, rows.Err()
}

// GetPurchaseStats reports counts by status, total spend and per-seller spend for purchases
// ordered on or after since (all purchases when since is nil). Sellers are sorted by spend.
func GetPurchaseStats(ctx context.Context, db *sql.DB, since *time.Time) (*PurchaseStats, error) {
	query := `SELECT total_cost, order_status, seller_username FROM purchases`
	var args []any
	if since != nil {
		query += ` WHERE order_date >= ?`
		args = append(args, since.UTC())
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase stats: %w", err)
	}
	defer rows.Close()

	stats := &PurchaseStats{
		Since:      since,
		ByStatus:   make(map[string]int),
		TotalSpent: decimal.Zero,
	}
	bySeller := make(map[string]*SellerSpend)

	for rows.Next() {
		var total decimal.Decimal
		var status string
		var seller sql.NullString
		if err := rows.Scan(&total, &status, &seller); err != nil {
			return nil, fmt.Errorf("failed to scan purchase stats: %w", err)
		}

		stats.Purchases++
		stats.ByStatus[status]++
		stats.TotalSpent = stats.TotalSpent.Add(total)

		if !seller.Valid || seller.String == "" {
			continue
		}
		s, ok := bySeller[seller.String]
		if !ok {
			s = &SellerSpend{SellerUsername: seller.String, TotalSpent: decimal.Zero}
			bySeller[seller.String] = s
		}
		s.Purchases++
		s.TotalSpent = s.TotalSpent.Add(total)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range bySeller {
		stats.BySeller = append(stats.BySeller, *s)
	}
	sort.Slice(stats.BySeller, func(i, j int) bool {
		a, b := stats.BySeller[i], stats.BySeller[j]
		if c := a.TotalSpent.Cmp(b.TotalSpent); c != 0 {
			return c > 0
		}
		return a.SellerUsername < b.SellerUsername
	})

	return stats, nil
}
