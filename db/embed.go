// Package db provides embedded database schema and migration files.
package db

import _ "embed"

// Schema contains the DDL for the categories, products, orders, order_items
// and api_keys tables.
//
//go:embed migrations/001_schema.sql
var Schema string
