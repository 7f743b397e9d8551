// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for accounts, purchases, contacts, and sync runs
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS marketplace_accounts (
	id TEXT PRIMARY KEY,
	vendor_username TEXT NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT,
	access_token_expires_at DATETIME NOT NULL,
	refresh_token_expires_at DATETIME,
	is_active BOOLEAN NOT NULL DEFAULT 0 CHECK(is_active IN (0, 1)),
	last_sync_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

-- at most one linked account may be active
CREATE UNIQUE INDEX IF NOT EXISTS idx_marketplace_accounts_single_active
	ON marketplace_accounts(is_active) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS purchases (
	id TEXT PRIMARY KEY,
	vendor_order_id TEXT NOT NULL UNIQUE,
	vendor_item_id TEXT,
	title TEXT NOT NULL,
	item_price TEXT NOT NULL DEFAULT '0',
	shipping_cost TEXT NOT NULL DEFAULT '0',
	total_cost TEXT NOT NULL DEFAULT '0',
	currency TEXT,
	seller_username TEXT,
	tracking_number TEXT,
	shipping_carrier TEXT,
	tracking_url TEXT,
	order_status TEXT NOT NULL DEFAULT 'Active' CHECK(order_status IN ('Active', 'Shipped', 'Delivered', 'Cancelled')),
	vendor_status TEXT,
	order_date DATETIME,
	raw_payload TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_purchases_seller ON purchases(seller_username);
CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(order_status);
CREATE INDEX IF NOT EXISTS idx_purchases_order_date ON purchases(order_date DESC);

CREATE TABLE IF NOT EXISTS marketplace_contacts (
	id TEXT PRIMARY KEY,
	vendor_username TEXT NOT NULL UNIQUE,
	contact_type TEXT NOT NULL DEFAULT 'seller',
	relationship TEXT NOT NULL DEFAULT 'new' CHECK(relationship IN ('new', 'active', 'vip', 'inactive')),
	total_purchases INTEGER NOT NULL DEFAULT 0,
	total_spent TEXT NOT NULL DEFAULT '0',
	avg_deal_size TEXT NOT NULL DEFAULT '0',
	last_purchase_at DATETIME,
	display_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	mailing_list BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_marketplace_contacts_relationship ON marketplace_contacts(relationship);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	account_id TEXT,
	sync_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'failed')),
	records_fetched INTEGER NOT NULL DEFAULT 0,
	records_created INTEGER NOT NULL DEFAULT 0,
	records_updated INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
