package payments

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// ExpireStalePaymentsActivityName sweeps payments stuck pending past the window.
const ExpireStalePaymentsActivityName = "payments.activities.ExpireStalePayments"

// Activities groups activities that operate on the payments bounded context.
type Activities struct {
	service paymentsports.Service
}

// NewActivities wires the payments service into the Temporal activities bundle.
func NewActivities(service paymentsports.Service) *Activities {
	return &Activities{service: service}
}

// ExpireStalePayments moves overdue pending payments to expired and
// reports how many were swept.
func (a *Activities) ExpireStalePayments(ctx context.Context) (int, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("payment expiry activity not initialized")
		return 0, errors.New("payment expiry activity not initialized")
	}
	count, err := a.service.ExpireStalePayments(ctx)
	if err != nil {
		logger.Error("ExpireStalePayments activity failed", "error", err)
		return 0, err
	}
	if count > 0 {
		logger.Info("ExpireStalePayments activity completed", "expired", count)
	}
	return count, nil
}
