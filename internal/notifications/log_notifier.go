// Package notifications dispatches post-settlement messages. The log
// notifier stands in until a mail provider is contracted; downstream
// delivery tails the structured log.
package notifications

import (
	"context"
	"log/slog"

	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// LogNotifier emits order notifications as structured log records.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyOrderApproved(ctx context.Context, notif ports.ApprovedOrderNotification) error {
	n.logger.InfoContext(ctx, "order confirmation notification",
		"recipient", notif.CustomerEmail,
		"customer", notif.CustomerName,
		"order_number", notif.OrderNumber,
		"total", notif.TotalAmount.String(),
		"currency", notif.Currency)
	return nil
}

func (n *LogNotifier) NotifyAdminNewOrder(ctx context.Context, notif ports.ApprovedOrderNotification) error {
	n.logger.InfoContext(ctx, "admin new-order notification",
		"order_id", notif.OrderID,
		"order_number", notif.OrderNumber,
		"total", notif.TotalAmount.String(),
		"currency", notif.Currency)
	return nil
}

var _ ports.Notifier = (*LogNotifier)(nil)
