// Package ledger keeps the machine's stock: an ordered set of products with a
// cached unit total.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

var (
	// ErrUnknownProduct is returned when an identifier is not stocked.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrOutOfStock is returned when a product has no units left.
	ErrOutOfStock = errors.New("out of stock")
)

// Rejection records a catalog entry that was not added to the stock.
type Rejection struct {
	Entry  model.CatalogEntry
	Reason string
}

// FillReport summarizes a Fill call.
type FillReport struct {
	Added    []model.CatalogEntry
	Rejected []Rejection
}

// Ledger is the stock of a single machine.
//
// Insertion order is display order. Products are never removed; a product at
// zero units stays listed.
type Ledger struct {
	mu    sync.Mutex
	order []string
	items map[string]*model.Product
	total int
}

func New() *Ledger {
	return &Ledger{items: make(map[string]*model.Product)}
}

// Fill adds catalog entries to the stock. Entries with units <= 0, a negative
// price or an empty identifier are rejected with a warning. Units of an
// already stocked identifier are merged; its first price is kept.
func (l *Ledger) Fill(entries []model.CatalogEntry) FillReport {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rep FillReport
	for _, e := range entries {
		if reason := validate(e); reason != "" {
			obs.Logger.Warn("ledger_entry_rejected", "product_id", e.ProductID, "units", e.Units, "reason", reason)
			rep.Rejected = append(rep.Rejected, Rejection{Entry: e, Reason: reason})
			continue
		}
		p, ok := l.items[e.ProductID]
		if !ok {
			p = &model.Product{ProductID: e.ProductID, Price: e.Price}
			l.items[e.ProductID] = p
			l.order = append(l.order, e.ProductID)
		}
		p.Units += e.Units
		obs.Logger.Info("ledger_product_added", "product_id", e.ProductID, "price", p.Price.String(), "units", e.Units)
		rep.Added = append(rep.Added, e)
	}
	l.total = l.sum()
	obs.Logger.Info("ledger_filled", "products", len(l.order), "total_units", l.total)
	return rep
}

func validate(e model.CatalogEntry) string {
	switch {
	case e.ProductID == "":
		return "missing product id"
	case e.Units <= 0:
		return "no units"
	case e.Price.IsNegative():
		return "negative price"
	}
	return ""
}

// Decrement removes one unit of the product. The availability check and the
// decrement run under the same lock.
func (l *Ledger) Decrement(id string) (model.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.items[id]
	if !ok {
		return model.Product{}, fmt.Errorf("decrement %q: %w", id, ErrUnknownProduct)
	}
	if p.Units < 1 {
		return *p, fmt.Errorf("decrement %q: %w", id, ErrOutOfStock)
	}
	before := p.Units
	p.Units--
	l.total = l.sum()
	obs.Logger.Info("ledger_decremented", "product_id", id, "units_before", before, "units_after", p.Units, "total_units", l.total)
	return *p, nil
}

// Get returns a copy of the product.
func (l *Ledger) Get(id string) (model.Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.items[id]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// IDs returns the stocked identifiers in insertion order.
func (l *Ledger) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Snapshot returns copies of all products in insertion order.
func (l *Ledger) Snapshot() []model.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Product, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.items[id])
	}
	return out
}

// TotalUnits returns the cached total, which always equals the live sum.
func (l *Ledger) TotalUnits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// IsEmpty reports whether no units are left.
func (l *Ledger) IsEmpty() bool {
	return l.TotalUnits() == 0
}

// sum must be called with mu held.
func (l *Ledger) sum() int {
	n := 0
	for _, p := range l.items {
		n += p.Units
	}
	return n
}
