package model

import "github.com/shopspring/decimal"

// CatalogEntry is one sellable item of the price list. Price is per kg.
type CatalogEntry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem is one purchased item on a bill. LineTotal = QuantityKg × UnitPrice.
type LineItem struct {
	ItemName   string          `json:"item_name"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// OrderEntry is a raw (item token, quantity) pair as supplied by an input
// source, before resolution against the catalog.
type OrderEntry struct {
	Token    string `json:"token"`
	Quantity string `json:"quantity"`
}
