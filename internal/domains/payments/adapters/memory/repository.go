package memory

import (
	"context"
	"sync"
	"time"

	"github.com/guantera/checkout-api/internal/domains/payments/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// OrderOutcomeApplier propagates a callback's order outcome into the
// orders store, standing in for the cross-table transaction the SQL
// repository performs.
type OrderOutcomeApplier func(ctx context.Context, orderID, status, paymentStatus, paymentReference string) error

// Repository is an in-memory payment store for tests and local runs.
type Repository struct {
	mu           sync.RWMutex
	payments     map[string]*domain.Payment
	transactions map[string]*domain.RedsysTransaction
	applyOutcome OrderOutcomeApplier
}

func NewRepository(applyOutcome OrderOutcomeApplier) *Repository {
	return &Repository{
		payments:     make(map[string]*domain.Payment),
		transactions: make(map[string]*domain.RedsysTransaction),
		applyOutcome: applyOutcome,
	}
}

func (r *Repository) CreateAttempt(_ context.Context, payment *domain.Payment, txn *domain.RedsysTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *payment
	t := *txn
	r.payments[p.ID] = &p
	r.transactions[t.ID] = &t
	return nil
}

func (r *Repository) GetPayment(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrPaymentNotFound
	}
	p := *payment
	return &p, nil
}

func (r *Repository) GetTransactionByDsOrder(_ context.Context, dsOrder string) (*domain.RedsysTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, txn := range r.transactions {
		if txn.DsOrder == dsOrder {
			t := *txn
			return &t, nil
		}
	}
	return nil, ports.ErrTransactionNotFound
}

func (r *Repository) GetTransactionByPaymentID(_ context.Context, paymentID string) (*domain.RedsysTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, txn := range r.transactions {
		if txn.PaymentID == paymentID {
			t := *txn
			return &t, nil
		}
	}
	return nil, ports.ErrTransactionNotFound
}

func (r *Repository) CancelPendingForOrder(_ context.Context, orderID string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, payment := range r.payments {
		if payment.OrderID == orderID && !payment.Status.Terminal() {
			payment.Status = domain.StatusCancelled
			payment.UpdatedAt = at
			count++
		}
	}
	return count, nil
}

func (r *Repository) FinalizeCallback(ctx context.Context, payment *domain.Payment, txn *domain.RedsysTransaction, outcome ports.OrderOutcome) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[payment.ID]
	if !ok {
		return false, ports.ErrPaymentNotFound
	}
	if _, ok := r.transactions[txn.ID]; !ok {
		return false, ports.ErrTransactionNotFound
	}
	// The stored status decides, not the caller's copy: a concurrent
	// duplicate delivery may have settled the payment since it was read.
	if stored.Status.Terminal() {
		return false, nil
	}
	p := *payment
	t := *txn
	r.payments[p.ID] = &p
	r.transactions[t.ID] = &t
	if r.applyOutcome != nil {
		if err := r.applyOutcome(ctx, outcome.OrderID, outcome.Status, outcome.PaymentStatus, outcome.PaymentReference); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Repository) ExpireStale(_ context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, payment := range r.payments {
		open := payment.Status == domain.StatusPending || payment.Status == domain.StatusProcessing
		if open && payment.ExpiresAt.Before(now) {
			payment.Status = domain.StatusExpired
			payment.UpdatedAt = now
			ids = append(ids, payment.ID)
		}
	}
	return ids, nil
}

var _ ports.Repository = (*Repository)(nil)
