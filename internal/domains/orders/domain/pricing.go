package domain

import "github.com/shopspring/decimal"

// Pricing policy constants. Tax collection is disabled until fiscal
// registration completes in the launch market.
const (
	// MaxItemQuantity bounds a single line item.
	MaxItemQuantity = 99

	// FreeShippingThreshold is the minimum total quantity of units for
	// shipping to be free.
	FreeShippingThreshold = 2
)

var (
	// StandardShippingFee applies to orders below the free-shipping threshold.
	StandardShippingFee = decimal.RequireFromString("3.00")

	// PriceTolerance is the maximum absolute deviation allowed between a
	// client-submitted unit price and the authoritative catalog price.
	PriceTolerance = decimal.RequireFromString("0.01")
)

// ValidatedItem is a cart line after revalidation against the catalog: the
// unit price is the authoritative one, never the client's.
type ValidatedItem struct {
	ProductID   string
	ProductName string
	Size        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// LineTotal returns unit price times quantity, unrounded.
func (v ValidatedItem) LineTotal() decimal.Decimal {
	return v.UnitPrice.Mul(decimal.NewFromInt(int64(v.Quantity)))
}

// Totals is the complete server-computed monetary breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives order totals from validated items and an already
// settled discount amount. Shipping is waived once the order carries at
// least FreeShippingThreshold units. All figures round to two decimal
// places, half away from zero.
func ComputeTotals(items []ValidatedItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	quantity := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		quantity += item.Quantity
	}

	shipping := StandardShippingFee
	if quantity >= FreeShippingThreshold {
		shipping = decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	tax := decimal.Zero
	total := subtotal.Sub(discount).Add(tax).Add(shipping)

	return Totals{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Tax:      tax.Round(2),
		Shipping: shipping.Round(2),
		Total:    total.Round(2),
	}
}

// PriceWithinTolerance reports whether a client-submitted price matches the
// authoritative price within PriceTolerance.
func PriceWithinTolerance(submitted, authoritative decimal.Decimal) bool {
	return submitted.Sub(authoritative).Abs().LessThanOrEqual(PriceTolerance)
}
