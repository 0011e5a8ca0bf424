package ports

import (
	"context"
	"errors"

	"github.com/guantera/checkout-api/internal/domains/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Repository is the inventory-and-catalog gateway: authoritative product
// lookup plus atomic stock decrement.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// DecrementStock atomically reduces the stock of a (product, size) pair.
	// It returns false without mutating anything when the remaining stock is
	// insufficient; stock never goes negative.
	DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error)
}
