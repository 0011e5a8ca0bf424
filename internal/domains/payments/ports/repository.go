package ports

import (
	"context"
	"errors"
	"time"

	"github.com/guantera/checkout-api/internal/domains/payments/domain"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// OrderOutcome describes how the owning order's rows must change inside the
// same transaction that finalizes the payment.
type OrderOutcome struct {
	OrderID          string
	Status           string
	PaymentStatus    string
	PaymentReference string
}

// Repository persists payments and their gateway transaction audit trail.
type Repository interface {
	CreateAttempt(ctx context.Context, payment *domain.Payment, txn *domain.RedsysTransaction) error
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	GetTransactionByDsOrder(ctx context.Context, dsOrder string) (*domain.RedsysTransaction, error)
	GetTransactionByPaymentID(ctx context.Context, paymentID string) (*domain.RedsysTransaction, error)

	// CancelPendingForOrder cancels every non-terminal payment attempt for
	// an order, returning how many were cancelled.
	CancelPendingForOrder(ctx context.Context, orderID string, at time.Time) (int, error)

	// FinalizeCallback atomically persists the reconciled payment, its
	// transaction's response fields, and the owning order's outcome. The
	// payment row only transitions when it is still non-terminal; the
	// returned flag reports whether this call won that transition, so a
	// concurrent duplicate delivery settles an order exactly once.
	FinalizeCallback(ctx context.Context, payment *domain.Payment, txn *domain.RedsysTransaction, outcome OrderOutcome) (bool, error)

	// ExpireStale moves pending and processing payments whose expiry
	// timestamp has passed to expired, returning the ids affected.
	ExpireStale(ctx context.Context, now time.Time) ([]string, error)
}
