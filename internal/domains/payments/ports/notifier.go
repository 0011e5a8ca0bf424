package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// ApprovedOrderNotification carries what the confirmation messages need.
type ApprovedOrderNotification struct {
	OrderID       string
	OrderNumber   string
	CustomerEmail string
	CustomerName  string
	TotalAmount   decimal.Decimal
	Currency      string
}

// Notifier dispatches post-payment messages. Implementations must not
// influence settlement: failures are logged and swallowed by callers.
type Notifier interface {
	NotifyOrderApproved(ctx context.Context, n ApprovedOrderNotification) error
	NotifyAdminNewOrder(ctx context.Context, n ApprovedOrderNotification) error
}
