package repo

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vijaylaxmi/flourmill/internal/model"
)

// CatalogSource supplies the price list seed data.
type CatalogSource interface {
	Load(ctx context.Context) ([]model.CatalogEntry, error)
}

// BuiltinCatalog returns the reference price list (₹ per kg) in display order.
func BuiltinCatalog() []model.CatalogEntry {
	return []model.CatalogEntry{
		{Name: "Wheat", Price: decimal.RequireFromString("3.0")},
		{Name: "Rice", Price: decimal.RequireFromString("4.0")},
		{Name: "Maida", Price: decimal.RequireFromString("5.0")},
		{Name: "Besan", Price: decimal.RequireFromString("6.0")},
	}
}

type builtinSource struct{}

func (builtinSource) Load(context.Context) ([]model.CatalogEntry, error) {
	return BuiltinCatalog(), nil
}

// NewBuiltinCatalogSource serves the compiled-in price list.
func NewBuiltinCatalogSource() CatalogSource {
	return builtinSource{}
}

type catalogFile struct {
	Items []catalogItem `yaml:"items"`
}

type catalogItem struct {
	Name  string    `yaml:"name"`
	Price yamlPrice `yaml:"price"`
}

// maxPriceExp keeps prices well inside what the ledger can multiply.
const maxPriceExp = 18

// yamlPrice reads and writes a price from its scalar text so it never passes
// through float64.
type yamlPrice struct {
	decimal.Decimal
}

func (p *yamlPrice) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: price must be a number", node.Line)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", node.Line, node.Value)
	}
	if exp := d.Exponent(); exp < -maxPriceExp || exp > maxPriceExp {
		return fmt.Errorf("line %d: price %q out of range", node.Line, node.Value)
	}
	p.Decimal = d
	return nil
}

func (p yamlPrice) MarshalYAML() (any, error) {
	v := p.String()
	if p.Exponent() >= 0 {
		v = p.StringFixed(1)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v}, nil
}

// FileCatalogSource reads a YAML price list:
//
//	items:
//	  - name: Wheat
//	    price: 3.0
type FileCatalogSource struct {
	path string
}

func NewFileCatalogSource(path string) *FileCatalogSource {
	return &FileCatalogSource{path: path}
}

func (s *FileCatalogSource) Load(_ context.Context) ([]model.CatalogEntry, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalogYAML(b)
}

// ParseCatalogYAML decodes a YAML price list, keeping document order.
func ParseCatalogYAML(b []byte) ([]model.CatalogEntry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}

	entries := make([]model.CatalogEntry, 0, len(f.Items))
	for _, it := range f.Items {
		entries = append(entries, model.CatalogEntry{Name: it.Name, Price: it.Price.Decimal})
	}
	return entries, nil
}

// MarshalCatalogYAML encodes entries in the format ParseCatalogYAML reads.
func MarshalCatalogYAML(entries []model.CatalogEntry) ([]byte, error) {
	var f catalogFile
	for _, e := range entries {
		f.Items = append(f.Items, catalogItem{Name: e.Name, Price: yamlPrice{e.Price}})
	}
	return yaml.Marshal(&f)
}
