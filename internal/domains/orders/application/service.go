package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/ports"
)

// Service orchestrates checkout: cart revalidation, server-side pricing,
// order persistence, and payment initiation.
type Service struct {
	repo      ports.Repository
	catalog   ports.CatalogGateway
	discounts ports.DiscountGateway
	payments  ports.PaymentInitiator
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithDiscounts wires the discount gateway; without it every discount code
// resolves to zero.
func WithDiscounts(g ports.DiscountGateway) Option {
	return func(s *Service) { s.discounts = g }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock fixes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo ports.Repository, catalog ports.CatalogGateway, payments ports.PaymentInitiator, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		catalog:  catalog,
		payments: payments,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder revalidates every cart line against the catalog, prices the
// order server-side, persists it, and starts the first payment attempt.
// Client-submitted prices are checked against the catalog but never used.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*ports.CreateOrderResult, error) {
	validated, err := s.validateCart(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range validated {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := s.settleDiscount(ctx, input.DiscountCode, subtotal)
	totals := domain.ComputeTotals(validated, discount)

	items := make([]domain.OrderItem, 0, len(validated))
	for _, v := range validated {
		items = append(items, domain.OrderItem{
			ProductID:   v.ProductID,
			ProductName: v.ProductName,
			Size:        v.Size,
			Quantity:    v.Quantity,
			UnitPrice:   v.UnitPrice,
			TotalPrice:  v.LineTotal().Round(2),
		})
	}

	order, err := domain.NewOrder(input.UserID, items, input.Customer, input.Shipping, totals, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	// The order is already persisted, so a payment-initiation failure is
	// not fatal: the caller gets the order back and can retry payment.
	payment, form, err := s.payments.InitiatePayment(ctx, order.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "payment initiation failed, order left awaiting payment",
			"order_id", order.ID,
			"order_number", order.Number,
			"error", err)
		return &ports.CreateOrderResult{Order: order}, nil
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.Number,
		"total", order.TotalAmount.String(),
		"payment_id", payment.ID)

	return &ports.CreateOrderResult{Order: order, Payment: payment, Form: form}, nil
}

// GetOrder returns an order with its items.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// RetryPayment starts a fresh settlement attempt for an order still
// awaiting payment.
func (s *Service) RetryPayment(ctx context.Context, orderID string) (*ports.CreateOrderResult, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != domain.PaymentPending || order.Status == domain.StatusCancelled {
		return nil, fmt.Errorf("%w: order %s has payment status %s", ErrOrderNotPayable, order.ID, order.PaymentStatus)
	}
	payment, form, err := s.payments.InitiatePayment(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("initiate payment for order %s: %w", order.ID, err)
	}
	return &ports.CreateOrderResult{Order: order, Payment: payment, Form: form}, nil
}

// validateCart checks each line against the catalog and returns lines
// repriced with authoritative prices.
func (s *Service) validateCart(ctx context.Context, items []ports.CartItem) ([]domain.ValidatedItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	validated := make([]domain.ValidatedItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > domain.MaxItemQuantity {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if !product.Active {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if item.ProductName != "" && !product.NameMatches(item.ProductName) {
			return nil, &IdentityMismatchError{
				ProductID: item.ProductID,
				Submitted: item.ProductName,
				Expected:  product.Name,
			}
		}
		authoritative := product.CurrentPrice()
		if !domain.PriceWithinTolerance(item.UnitPrice, authoritative) {
			return nil, &PriceMismatchError{
				ProductID: item.ProductID,
				Submitted: item.UnitPrice,
				Expected:  authoritative,
			}
		}
		validated = append(validated, domain.ValidatedItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   authoritative,
		})
	}
	return validated, nil
}

// settleDiscount resolves a discount code to an amount. Discount failures
// never block checkout: the order proceeds with a zero discount.
func (s *Service) settleDiscount(ctx context.Context, code string, subtotal decimal.Decimal) decimal.Decimal {
	if code == "" || s.discounts == nil {
		return decimal.Zero
	}
	amount, err := s.discounts.Apply(ctx, code, subtotal)
	if err != nil {
		s.logger.WarnContext(ctx, "discount code rejected, proceeding without discount",
			"code", code, "error", err)
		return decimal.Zero
	}
	return amount
}

var _ ports.Service = (*Service)(nil)
