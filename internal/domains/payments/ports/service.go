package ports

import (
	"context"

	"github.com/guantera/checkout-api/internal/domains/payments/domain"
)

// CallbackResponse is the acknowledgement body returned to the gateway once
// a notification has been fully processed.
type CallbackResponse struct {
	Status string `json:"status"`
}

// Service is the payments application boundary consumed by transport.
type Service interface {
	// InitiatePayment creates a payment attempt for an order and returns
	// the signed redirect form.
	InitiatePayment(ctx context.Context, orderID string) (*domain.Payment, *SignedForm, error)

	// HandleCallback reconciles one gateway notification. Nothing is
	// mutated unless the signature verifies.
	HandleCallback(ctx context.Context, merchantParameters, signature string) (*CallbackResponse, error)

	// GetPayment returns a payment attempt by id.
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)

	// GetTransaction returns the gateway audit record for a payment.
	GetTransaction(ctx context.Context, paymentID string) (*domain.RedsysTransaction, error)

	// ExpireStalePayments sweeps payments stuck pending past the
	// configured window.
	ExpireStalePayments(ctx context.Context) (int, error)
}
