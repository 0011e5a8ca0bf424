package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/guantera/checkout-api/internal/domains/catalog/domain"
	"github.com/guantera/checkout-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

type stockKey struct {
	productID string
	size      string
}

// Repository is an in-memory catalog adapter used for tests and DSN-less runs.
type Repository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	stock    map[stockKey]int
}

func NewRepository() *Repository {
	return &Repository{
		products: map[string]*domain.Product{},
		stock:    map[stockKey]int{},
	}
}

// SeedProduct registers a product with per-size stock levels.
func (r *Repository) SeedProduct(product domain.Product, stock map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := product
	r.products[product.ID] = &clone
	for size, qty := range stock {
		r.stock[stockKey{productID: product.ID, size: size}] = qty
	}
}

func (r *Repository) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *Repository) DecrementStock(_ context.Context, productID, size string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, errors.New("quantity must be positive")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey{productID: productID, size: size}
	available, ok := r.stock[key]
	if !ok || available < quantity {
		return false, nil
	}
	r.stock[key] = available - quantity
	return true, nil
}

// StockLevel reports the remaining stock for a (product, size) pair.
func (r *Repository) StockLevel(productID, size string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[stockKey{productID: productID, size: size}]
}
