// Package model defines domain types used by the vending machine.
package model

import "github.com/shopspring/decimal"

// CatalogEntry is one line of a fill-time product list. Units may be zero or
// negative; the ledger rejects such entries.
type CatalogEntry struct {
	ProductID string
	Price     decimal.Decimal
	Units     int
}

// Product represents the current state of a stocked product.
type Product struct {
	ProductID string
	Price     decimal.Decimal
	Units     int
}

// Available reports whether at least one unit can be sold.
func (p Product) Available() bool { return p.Units >= 1 }

// Identity describes a machine. It does not change after construction.
type Identity struct {
	Name    string
	Type    string
	Version string
	Serial  string
}
