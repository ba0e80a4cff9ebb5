// Package catalog provides the product lists a machine is filled with.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

// ErrEmptyCatalog is returned when a catalog file lists no products.
var ErrEmptyCatalog = errors.New("catalog has no products")

// Default returns the built-in catalog. Soda-1 appears twice and is merged
// at fill time.
func Default() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ProductID: "Soda-1", Price: decimal.RequireFromString("2.5"), Units: 1},
		{ProductID: "Soda-2", Price: decimal.RequireFromString("1.5"), Units: 1},
		{ProductID: "Soda-1", Price: decimal.RequireFromString("2.5"), Units: 1},
	}
}

// OrDefault returns entries, or the default catalog when entries is empty.
func OrDefault(entries []model.CatalogEntry) []model.CatalogEntry {
	if len(entries) == 0 {
		obs.Logger.Info("catalog_default_used")
		return Default()
	}
	return entries
}

// price decodes the scalar text directly so no digits pass through float64.
type price struct{ decimal.Decimal }

func (p *price) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("price at line %d: not a number", value.Line)
	}
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("price %q at line %d: %w", value.Value, value.Line, err)
	}
	p.Decimal = d
	return nil
}

type fileEntry struct {
	ID    string `yaml:"id"`
	Price price  `yaml:"price"`
	Units int    `yaml:"units"`
}

type file struct {
	Products []fileEntry `yaml:"products"`
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) ([]model.CatalogEntry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, ErrEmptyCatalog
	}
	out := make([]model.CatalogEntry, 0, len(f.Products))
	for _, e := range f.Products {
		out = append(out, model.CatalogEntry{
			ProductID: e.ID,
			Price:     e.Price.Decimal,
			Units:     e.Units,
		})
	}
	return out, nil
}

// Load reads a catalog file. An empty path, or a file without products,
// yields no entries so the machine falls back to its default catalog.
func Load(path string) ([]model.CatalogEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	entries, err := Parse(data)
	if errors.Is(err, ErrEmptyCatalog) {
		obs.Logger.Warn("catalog_file_empty", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	obs.Logger.Info("catalog_loaded", "path", path, "entries", len(entries))
	return entries, nil
}
