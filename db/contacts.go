// ABOUTME: Marketplace contact (seller) database operations
// ABOUTME: Handles lookups by vendor username, aggregate updates, filtered listing, and profile edits
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/resell/models"
)

const contactColumns = `id, vendor_username, contact_type, relationship, total_purchases, total_spent,
	avg_deal_size, last_purchase_at, display_name, email, phone, notes, mailing_list, created_at, updated_at`

// ContactFilter narrows ListContacts. Zero values mean "no filter".
type ContactFilter struct {
	Relationship    string
	ContactType     string
	Search          string
	MailingListOnly bool
	Limit           int
	Offset          int
}

// ContactListStats summarizes every stored contact regardless of filter.
type ContactListStats struct {
	TotalContacts int `json:"total_contacts"`
	OnMailingList int `json:"on_mailing_list"`
	VIPSellers    int `json:"vip_sellers"`
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var c models.Contact
	var lastPurchase sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.VendorUsername,
		&c.ContactType,
		&c.Relationship,
		&c.TotalPurchases,
		&c.TotalSpent,
		&c.AvgDealSize,
		&lastPurchase,
		&c.DisplayName,
		&c.Email,
		&c.Phone,
		&c.Notes,
		&c.MailingList,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.LastPurchaseAt = timePtr(lastPurchase)

	return &c, nil
}

// GetContact retrieves a contact by ID. Returns nil when not found.
func GetContact(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.Contact, error) {
	row := db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM marketplace_contacts WHERE id = ?`, id.String())

	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return c, nil
}

// GetContactByUsername retrieves a contact by vendor username. Returns nil when not found.
func GetContactByUsername(ctx context.Context, db *sql.DB, username string) (*models.Contact, error) {
	row := db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM marketplace_contacts WHERE vendor_username = ?`, username)

	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by username: %w", err)
	}

	return c, nil
}

// CreateContact inserts a new contact, assigning its ID and timestamps.
func CreateContact(ctx context.Context, db *sql.DB, c *models.Contact) error {
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ContactType == "" {
		c.ContactType = models.ContactTypeSeller
	}
	if c.Relationship == "" {
		c.Relationship = models.RelationshipNew
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO marketplace_contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID.String(),
		c.VendorUsername,
		c.ContactType,
		c.Relationship,
		c.TotalPurchases,
		c.TotalSpent,
		c.AvgDealSize,
		nullTime(c.LastPurchaseAt),
		c.DisplayName,
		c.Email,
		c.Phone,
		c.Notes,
		c.MailingList,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact %s: %w", c.VendorUsername, err)
	}

	return nil
}

// UpdateContactAggregates writes the derived purchase statistics and tier of c.
func UpdateContactAggregates(ctx context.Context, db *sql.DB, c *models.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		UPDATE marketplace_contacts
		SET total_purchases = ?, total_spent = ?, avg_deal_size = ?, last_purchase_at = ?,
			relationship = ?, updated_at = ?
		WHERE id = ?
	`,
		c.TotalPurchases,
		c.TotalSpent,
		c.AvgDealSize,
		nullTime(c.LastPurchaseAt),
		c.Relationship,
		c.UpdatedAt,
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update contact aggregates: %w", err)
	}

	return nil
}

// UpdateContactProfile writes the operator-editable fields of c.
func UpdateContactProfile(ctx context.Context, db *sql.DB, c *models.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := db.ExecContext(ctx, `
		UPDATE marketplace_contacts
		SET display_name = ?, email = ?, phone = ?, notes = ?, mailing_list = ?,
			relationship = ?, contact_type = ?, updated_at = ?
		WHERE id = ?
	`,
		c.DisplayName,
		c.Email,
		c.Phone,
		c.Notes,
		c.MailingList,
		c.Relationship,
		c.ContactType,
		c.UpdatedAt,
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contact %s not found", c.ID)
	}

	return nil
}

// ListContacts returns one page of contacts ordered by total spend, plus the total
// number of rows matching the filter.
func ListContacts(ctx context.Context, db *sql.DB, filter ContactFilter) ([]models.Contact, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var clauses []string
	var args []any
	if filter.Relationship != "" && !strings.EqualFold(filter.Relationship, "all") {
		clauses = append(clauses, "relationship = ?")
		args = append(args, filter.Relationship)
	}
	if filter.ContactType != "" {
		clauses = append(clauses, "contact_type = ?")
		args = append(args, filter.ContactType)
	}
	if filter.MailingListOnly {
		clauses = append(clauses, "mailing_list = 1")
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		clauses = append(clauses, "(LOWER(vendor_username) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM marketplace_contacts`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	// total_spent is TEXT; CAST keeps the ordering numeric
	rows, err := db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM marketplace_contacts`+where+`
		ORDER BY CAST(total_spent AS REAL) DESC, vendor_username ASC
		LIMIT ? OFFSET ?
	`, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}

	return contacts, total, rows.Err()
}

// GetContactListStats counts contacts overall, on the mailing list, and at the vip tier.
func GetContactListStats(ctx context.Context, db *sql.DB) (*ContactListStats, error) {
	var stats ContactListStats

	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN mailing_list = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN relationship = ? THEN 1 ELSE 0 END), 0)
		FROM marketplace_contacts
	`, models.RelationshipVIP).Scan(&stats.TotalContacts, &stats.OnMailingList, &stats.VIPSellers)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact stats: %w", err)
	}

	return &stats, nil
}
