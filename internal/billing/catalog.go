// Package billing holds the price catalog and the per-bill ledger: line item
// accumulation, totals and the printable bill text.
package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
)

// ErrInvalidCatalog is returned when seed data cannot form a catalog.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the fixed price list. Entries keep their display order (1..N)
// and are looked up by case-folded, trimmed name.
type Catalog struct {
	entries []model.CatalogEntry
	byName  map[string]int
}

// NewCatalog validates the seed entries and builds a catalog from them.
func NewCatalog(entries []model.CatalogEntry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidCatalog)
	}

	c := &Catalog{
		entries: make([]model.CatalogEntry, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		key := Normalize(e.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalidCatalog, i+1)
		}
		if e.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %s has negative price %s", ErrInvalidCatalog, e.Name, e.Price)
		}
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", ErrInvalidCatalog, e.Name)
		}
		c.byName[key] = len(c.entries)
		c.entries = append(c.entries, model.CatalogEntry{Name: strings.TrimSpace(e.Name), Price: e.Price})
	}
	return c, nil
}

// MustNewCatalog is NewCatalog for static seed data.
func MustNewCatalog(entries []model.CatalogEntry) *Catalog {
	c, err := NewCatalog(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Normalize case-folds and trims an item name or token.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve maps a token to a catalog item name. A token that parses as a valid
// 1-based display index wins; otherwise the normalized token must name an item.
func (c *Catalog) Resolve(token string) (string, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(token)); err == nil && n >= 1 && n <= len(c.entries) {
		return c.entries[n-1].Name, nil
	}
	if i, ok := c.byName[Normalize(token)]; ok {
		return c.entries[i].Name, nil
	}
	return "", errx.UnknownItem(token)
}

// PriceOf returns the unit price (per kg) of the named item.
func (c *Catalog) PriceOf(itemName string) (decimal.Decimal, error) {
	i, ok := c.byName[Normalize(itemName)]
	if !ok {
		return decimal.Zero, errx.UnknownItem(itemName)
	}
	return c.entries[i].Price, nil
}

// Entries returns the catalog in display order.
func (c *Catalog) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
