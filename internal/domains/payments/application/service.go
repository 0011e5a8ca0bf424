package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// DefaultExpiryWindow is how far ahead a new attempt's expiry timestamp
// is set; the sweep expires open payments past it.
const DefaultExpiryWindow = 60 * time.Minute

// Service orchestrates payment attempts and gateway callback
// reconciliation.
type Service struct {
	repo     ports.Repository
	gateway  ports.Gateway
	orders   ports.OrderReader
	stock    ports.StockDecrementer
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
	expiry   time.Duration
	currency string
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithStock wires post-settlement stock reservation.
func WithStock(s ports.StockDecrementer) Option {
	return func(svc *Service) { svc.stock = s }
}

// WithNotifier wires post-settlement notifications.
func WithNotifier(n ports.Notifier) Option {
	return func(svc *Service) { svc.notifier = n }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) { svc.logger = l }
}

// WithClock fixes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// WithExpiryWindow overrides how long payments may stay pending.
func WithExpiryWindow(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.expiry = d
		}
	}
}

func NewService(repo ports.Repository, gateway ports.Gateway, orders ports.OrderReader, opts ...Option) *Service {
	svc := &Service{
		repo:     repo,
		gateway:  gateway,
		orders:   orders,
		logger:   slog.Default(),
		now:      time.Now,
		expiry:   DefaultExpiryWindow,
		currency: "EUR",
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// InitiatePayment cancels any previous pending attempt for the order,
// signs a new redirect form, and persists the attempt with its audit
// record. At most one non-terminal attempt exists per order afterwards.
func (s *Service) InitiatePayment(ctx context.Context, orderID string) (*domain.Payment, *ports.SignedForm, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.PaymentStatus == ordersdomain.PaymentCaptured || order.Status == ordersdomain.StatusCancelled {
		return nil, nil, fmt.Errorf("order %s is not awaiting payment", orderID)
	}

	now := s.now().UTC()
	cancelled, err := s.repo.CancelPendingForOrder(ctx, orderID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("cancel previous attempts: %w", err)
	}
	if cancelled > 0 {
		s.logger.InfoContext(ctx, "cancelled previous payment attempts",
			"order_id", orderID, "count", cancelled)
	}

	form, err := s.gateway.Prepare(ports.PaymentRequest{
		OrderNumber: order.Number,
		Amount:      order.TotalAmount,
		Currency:    s.currency,
		Description: fmt.Sprintf("Order %s", order.Number),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("prepare payment form: %w", err)
	}

	payment := &domain.Payment{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Amount:    order.TotalAmount,
		Currency:  s.currency,
		Status:    domain.StatusPending,
		Method:    domain.MethodRedsys,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
		UpdatedAt: now,
	}
	txn := &domain.RedsysTransaction{
		ID:                uuid.NewString(),
		PaymentID:         payment.ID,
		DsOrder:           form.DsOrder,
		DsAmount:          domain.AmountToCents(order.TotalAmount),
		DsCurrency:        s.currency,
		DsTransactionType: "0",
		RequestParams:     form.MerchantParameters,
		RequestSignature:  form.Signature,
		RequestSentAt:     &now,
		CreatedAt:         now,
	}
	if err := s.repo.CreateAttempt(ctx, payment, txn); err != nil {
		return nil, nil, fmt.Errorf("persist payment attempt: %w", err)
	}

	s.logger.InfoContext(ctx, "payment attempt created",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"ds_order", form.DsOrder,
		"amount", order.TotalAmount.String())

	return payment, form, nil
}

// GetPayment returns a payment attempt by id.
func (s *Service) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// GetTransaction returns the gateway audit record for a payment.
func (s *Service) GetTransaction(ctx context.Context, paymentID string) (*domain.RedsysTransaction, error) {
	return s.repo.GetTransactionByPaymentID(ctx, paymentID)
}

// ExpireStalePayments moves open payments whose expiry timestamp has
// passed to expired.
func (s *Service) ExpireStalePayments(ctx context.Context) (int, error) {
	now := s.now().UTC()
	ids, err := s.repo.ExpireStale(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale payments: %w", err)
	}
	for _, id := range ids {
		s.logger.InfoContext(ctx, "payment expired", "payment_id", id)
	}
	return len(ids), nil
}

var _ ports.Service = (*Service)(nil)
