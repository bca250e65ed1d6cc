// Package testdb provides an in-memory sqlite database mirroring the
// production schema for repository tests. The DDL is written by hand because
// the production defaults (gen_random_uuid, text arrays) are Postgres-only.
package testdb

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  size TEXT NOT NULL,
  category TEXT NOT NULL,
  gender TEXT NOT NULL DEFAULT 'unisex',
  era TEXT,
  image_urls TEXT NOT NULL DEFAULT '{}',
  is_sold INTEGER NOT NULL DEFAULT 0,
  reserved_token TEXT,
  reserved_session_id TEXT,
  reserved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS discount_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  type TEXT NOT NULL,
  value NUMERIC NOT NULL,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  applies_to TEXT NOT NULL DEFAULT 'all',
  product_ids TEXT NOT NULL DEFAULT '{}',
  min_order_value NUMERIC,
  is_active INTEGER NOT NULL DEFAULT 1,
  starts_at DATETIME NOT NULL,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  product_id TEXT,
  stripe_session_id TEXT NOT NULL UNIQUE,
  stripe_payment_intent_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  delivery_method TEXT NOT NULL DEFAULT 'shipping',
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  shipping_address TEXT NOT NULL,
  shipping_city TEXT NOT NULL,
  shipping_postal_code TEXT NOT NULL,
  shipping_country TEXT NOT NULL,
  original_price NUMERIC NOT NULL,
  product_discount_percent INTEGER NOT NULL DEFAULT 0,
  discount_code TEXT,
  discount_code_type TEXT,
  discount_code_value NUMERIC,
  discount_code_amount NUMERIC NOT NULL DEFAULT 0,
  final_price NUMERIC NOT NULL,
  product_title TEXT NOT NULL,
  product_size TEXT NOT NULL,
  product_image TEXT,
  pickup_code TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS pickup_codes (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL,
  product_id TEXT,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  product_title TEXT NOT NULL,
  product_size TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  redeemed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
}

// Open returns a fresh in-memory database with the storefront schema applied.
// Each call gets its own database so parallel tests do not share state.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, ddl := range schema {
		if err := db.Exec(ddl).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}
