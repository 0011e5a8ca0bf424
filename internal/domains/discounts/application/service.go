package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
	"github.com/guantera/checkout-api/internal/domains/discounts/ports"
)

// ErrCodeRejected wraps every soft validation failure so callers can treat
// the whole family as "proceed without discount".
var ErrCodeRejected = errors.New("discount code rejected")

// Validation is the read-only preview returned to the storefront.
type Validation struct {
	Valid          bool
	Code           string
	Type           domain.Type
	Value          decimal.Decimal
	DiscountAmount decimal.Decimal
	Description    string
	Reason         string
}

// Service validates and applies discount codes.
type Service struct {
	repo ports.Repository
	now  func() time.Time
}

func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate previews a code against an order amount without side effects.
func (s *Service) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (Validation, error) {
	discount, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ports.ErrCodeNotFound) {
			return Validation{Valid: false, Code: code, Reason: "invalid discount code"}, nil
		}
		return Validation{}, err
	}
	if err := discount.Validate(s.now(), orderAmount); err != nil {
		return Validation{Valid: false, Code: discount.Code, Reason: err.Error()}, nil
	}
	return Validation{
		Valid:          true,
		Code:           discount.Code,
		Type:           discount.Type,
		Value:          discount.Value,
		DiscountAmount: discount.DiscountFor(orderAmount),
		Description:    discount.Description,
	}, nil
}

// Apply validates the code, computes the capped discount amount, and
// increments the usage counter. The increment is atomic relative to
// concurrent applications of the same code; losing the race surfaces as an
// exhausted code. Errors wrapping ErrCodeRejected are soft: checkout
// proceeds with a zero discount.
func (s *Service) Apply(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	discount, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ports.ErrCodeNotFound) {
			return decimal.Zero, fmt.Errorf("%w: invalid discount code %q", ErrCodeRejected, code)
		}
		return decimal.Zero, err
	}
	if err := discount.Validate(s.now(), orderAmount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrCodeRejected, err)
	}
	amount := discount.DiscountFor(orderAmount)
	ok, err := s.repo.IncrementUsage(ctx, discount.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrCodeRejected, domain.ErrExhausted)
	}
	return amount, nil
}
