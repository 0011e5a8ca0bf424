package ports

import (
	"context"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/guantera/checkout-api/internal/domains/catalog/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/domain"
	paymentsdomain "github.com/guantera/checkout-api/internal/domains/payments/domain"
	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// CatalogGateway is the slice of the catalog context order creation needs.
// The catalog repository satisfies it directly.
type CatalogGateway interface {
	GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error)
}

// DiscountGateway validates and consumes a discount code against an order
// amount, returning the settled discount. Implementations return an error
// wrapping the discounts context's rejection sentinel when the code cannot
// apply; callers treat that as a zero discount.
type DiscountGateway interface {
	Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
}

// PaymentInitiator starts a settlement attempt for a freshly created order.
type PaymentInitiator interface {
	InitiatePayment(ctx context.Context, orderID string) (*paymentsdomain.Payment, *paymentsports.SignedForm, error)
}

// CartItem is a client-submitted line before revalidation. Prices and names
// inside it are untrusted.
type CartItem struct {
	ProductID   string
	ProductName string
	Size        string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderInput is everything checkout submits.
type CreateOrderInput struct {
	UserID       *string
	Items        []CartItem
	Customer     domain.Customer
	Shipping     domain.ShippingAddress
	DiscountCode string
}

// CreateOrderResult pairs the persisted order with its first payment
// attempt and redirect form.
type CreateOrderResult struct {
	Order   *domain.Order
	Payment *paymentsdomain.Payment
	Form    *paymentsports.SignedForm
}
