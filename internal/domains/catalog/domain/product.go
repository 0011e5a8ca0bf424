package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the authoritative catalog entry consulted during checkout.
// Prices here are the only prices trusted for order totals.
type Product struct {
	ID               string
	Name             string
	Price            decimal.Decimal
	SalePrice        *decimal.Decimal
	ShortDescription string
	ImageURLs        []string
	Tags             []string
	Active           bool
}

// CurrentPrice returns the sale price when one is set, the base price otherwise.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// NameMatches reports whether the candidate matches the catalog name,
// ignoring case and surrounding whitespace.
func (p Product) NameMatches(candidate string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(candidate))
}

// Size carries per-size availability for a product.
type Size struct {
	ProductID     string
	Size          string
	StockQuantity int
	Available     bool
}
