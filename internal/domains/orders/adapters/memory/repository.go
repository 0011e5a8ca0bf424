package memory

import (
	"context"
	"sync"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/ports"
)

// Repository is an in-memory order store for tests and local runs.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{orders: make(map[string]*domain.Order)}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range order.Items {
		r.nextID++
		order.Items[i].ID = r.nextID
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, order := range r.orders {
		if order.Number == number {
			return cloneOrder(order), nil
		}
	}
	return nil, ports.ErrOrderNotFound
}

// ApplyOutcome mutates the stored order's settlement fields. The payments
// memory adapter calls it while finalizing a callback.
func (r *Repository) ApplyOutcome(_ context.Context, orderID, status, paymentStatus, paymentReference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return ports.ErrOrderNotFound
	}
	order.Status = domain.Status(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if paymentReference != "" {
		order.PaymentReference = paymentReference
	}
	return nil
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	return &clone
}

var _ ports.Repository = (*Repository)(nil)
