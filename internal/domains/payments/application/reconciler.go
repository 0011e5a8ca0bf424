package application

import (
	"context"
	"fmt"
	"time"

	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// HandleCallback reconciles one gateway notification. The signature gate
// comes before any lookup or mutation: an unverifiable payload touches
// nothing. Replays against a settled payment acknowledge without side
// effects, so the gateway stops retrying.
func (s *Service) HandleCallback(ctx context.Context, merchantParameters, signature string) (*ports.CallbackResponse, error) {
	cb, err := s.gateway.DecodeCallback(merchantParameters, signature)
	if err != nil {
		return nil, err
	}
	if err := s.gateway.VerifySignature(cb); err != nil {
		s.logger.WarnContext(ctx, "callback signature rejected", "ds_order", cb.DsOrder)
		return nil, err
	}

	txn, err := s.repo.GetTransactionByDsOrder(ctx, cb.DsOrder)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.GetPayment(ctx, txn.PaymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status.Terminal() {
		s.logger.InfoContext(ctx, "callback replay ignored, payment already settled",
			"payment_id", payment.ID,
			"payment_status", string(payment.Status),
			"ds_order", cb.DsOrder)
		return &ports.CallbackResponse{Status: "ok"}, nil
	}

	order, err := s.orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s for payment %s: %w", payment.OrderID, payment.ID, err)
	}

	now := s.now().UTC()
	recordResponse(txn, cb, now)

	approved := domain.Approved(cb.ResponseCode)
	var outcome ports.OrderOutcome
	if approved {
		reference := cb.TransactionID
		if reference == "" {
			reference = cb.DsOrder
		}
		if err := payment.Capture(reference, cb.ResponseCode, now); err != nil {
			return nil, err
		}
		outcome = ports.OrderOutcome{
			OrderID:          order.ID,
			Status:           string(ordersdomain.StatusConfirmed),
			PaymentStatus:    string(ordersdomain.PaymentCaptured),
			PaymentReference: reference,
		}
	} else {
		desc := domain.ResponseCodeDescription(cb.ResponseCode)
		if err := payment.Fail(cb.ResponseCode, desc, now); err != nil {
			return nil, err
		}
		outcome = ports.OrderOutcome{
			OrderID:       order.ID,
			Status:        string(ordersdomain.StatusCancelled),
			PaymentStatus: string(ordersdomain.PaymentFailed),
		}
	}

	applied, err := s.repo.FinalizeCallback(ctx, payment, txn, outcome)
	if err != nil {
		return nil, fmt.Errorf("finalize callback for payment %s: %w", payment.ID, err)
	}
	if !applied {
		// A concurrent delivery of the same notification won the
		// transition. Acknowledge without repeating its side effects.
		s.logger.InfoContext(ctx, "callback already finalized concurrently",
			"payment_id", payment.ID,
			"ds_order", cb.DsOrder)
		return &ports.CallbackResponse{Status: "ok"}, nil
	}

	s.logger.InfoContext(ctx, "callback reconciled",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"ds_order", cb.DsOrder,
		"response_code", cb.ResponseCode,
		"approved", approved)

	if approved {
		s.reserveStock(ctx, order)
		s.notifyApproved(ctx, order)
	}

	return &ports.CallbackResponse{Status: "ok"}, nil
}

// recordResponse copies the verified callback fields onto the audit record.
func recordResponse(txn *domain.RedsysTransaction, cb *ports.Callback, now time.Time) {
	valid := true
	txn.ResponseDsOrder = cb.DsOrder
	txn.ResponseDsCode = cb.ResponseCode
	txn.ResponseDsAuthCode = cb.Authorisation
	txn.ResponseDsTransactionID = cb.TransactionID
	txn.ResponseDsCardNumber = cb.CardNumber
	txn.ResponseDsCardBrand = cb.CardBrand
	txn.ResponseDsCardType = cb.CardType
	txn.ResponseDsCardCountry = cb.CardCountry
	txn.ResponseParams = cb.RawParameters
	txn.ResponseSignature = cb.RawSignature
	txn.ResponseReceivedAt = &now
	txn.ResponseSignatureValid = &valid
}

// reserveStock decrements catalog stock for every line of a settled order.
// Failures are logged for manual reconciliation and never revert the
// payment.
func (s *Service) reserveStock(ctx context.Context, order *ordersdomain.Order) {
	if s.stock == nil {
		return
	}
	for _, item := range order.Items {
		ok, err := s.stock.DecrementStock(ctx, item.ProductID, item.Size, item.Quantity)
		if err != nil {
			s.logger.ErrorContext(ctx, "stock decrement failed after settlement",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"size", item.Size,
				"quantity", item.Quantity,
				"error", err)
			continue
		}
		if !ok {
			s.logger.ErrorContext(ctx, "insufficient stock after settlement, oversell recorded",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"size", item.Size,
				"quantity", item.Quantity)
		}
	}
}

// notifyApproved sends confirmation messages. Notification failures never
// affect the settled payment.
func (s *Service) notifyApproved(ctx context.Context, order *ordersdomain.Order) {
	if s.notifier == nil {
		return
	}
	n := ports.ApprovedOrderNotification{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		CustomerEmail: order.Customer.Email,
		CustomerName:  order.Customer.FullName(),
		TotalAmount:   order.TotalAmount,
		Currency:      s.currency,
	}
	if err := s.notifier.NotifyOrderApproved(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "customer notification failed",
			"order_id", order.ID, "error", err)
	}
	if err := s.notifier.NotifyAdminNewOrder(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "admin notification failed",
			"order_id", order.ID, "error", err)
	}
}
