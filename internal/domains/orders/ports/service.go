package ports

import (
	"context"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
)

// Service is the orders application boundary consumed by transport.
type Service interface {
	// CreateOrder revalidates the cart, prices it server-side, persists
	// the order, and starts the first payment attempt.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)

	// GetOrder returns an order with its items.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// RetryPayment starts a fresh payment attempt for an unpaid order,
	// cancelling any previous pending attempt.
	RetryPayment(ctx context.Context, orderID string) (*CreateOrderResult, error)
}
