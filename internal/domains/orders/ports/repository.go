package ports

import (
	"context"
	"errors"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// Repository persists order aggregates together with their line items.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
}
