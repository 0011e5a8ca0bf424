package ports

import (
	"context"

	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
)

// OrderReader exposes the slice of the orders context the payments flow
// needs. The orders repository satisfies it directly.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*ordersdomain.Order, error)
}

// StockDecrementer reserves catalog stock after a payment settles. The
// boolean result reports whether enough stock remained.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error)
}
